package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries every application setting in one bundle.
type Config struct {
	TelegramToken string
	SQLitePath    string
	HTTPAddr      string
	CatalogPath   string
	ReportsDir    string
	MiniAppURL    string
	AdminIDs      []int64
}

// Load reads .env (when present) and fills the Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("info: no .env file, reading the OS environment")
	}

	token := os.Getenv("TELEGRAM_TOKEN")
	sqlitePath := os.Getenv("SQLITE_PATH")
	httpAddr := os.Getenv("HTTP_ADDR")
	catalogPath := os.Getenv("CATALOG_PATH")
	reportsDir := os.Getenv("REPORTS_DIR")
	miniAppURL := os.Getenv("MINIAPP_URL")

	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	admins, err := parseAdminIDs(os.Getenv("ADMIN_IDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken: token,
		SQLitePath:    resolvePath(withDefault(sqlitePath, "data/library.db")),
		HTTPAddr:      withDefault(httpAddr, ":8080"),
		ReportsDir:    resolvePath(withDefault(reportsDir, "storage/reports")),
		MiniAppURL:    miniAppURL,
		AdminIDs:      admins,
	}
	if catalogPath != "" {
		cfg.CatalogPath = resolvePath(catalogPath)
	}
	return cfg, nil
}

// IsAdmin reports whether the user may manage the catalog.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseAdminIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ADMIN_IDS entry %q is not a user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func withDefault(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func resolvePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return p
	}
	if filepath.IsAbs(p) {
		return p
	}

	if exe, err := os.Executable(); err == nil {
		base := filepath.Dir(exe)
		return filepath.Clean(filepath.Join(base, p))
	}

	if cwd, err := os.Getwd(); err == nil {
		return filepath.Clean(filepath.Join(cwd, p))
	}

	return p
}
