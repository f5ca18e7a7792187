package storage

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SavedReport describes an export file written to the reports directory.
type SavedReport struct {
	Path      string
	SizeBytes int64
}

// SaveReport writes data into baseDir under a random name with the given
// extension and returns where it landed.
func SaveReport(baseDir string, ext string, data io.Reader) (SavedReport, error) {
	if baseDir == "" {
		return SavedReport{}, fmt.Errorf("reports directory is empty")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return SavedReport{}, fmt.Errorf("create reports directory: %w", err)
	}

	name, err := randomHex(16)
	if err != nil {
		return SavedReport{}, fmt.Errorf("generate report name: %w", err)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	fullPath := filepath.Join(baseDir, name+ext)
	out, err := os.Create(fullPath)
	if err != nil {
		return SavedReport{}, fmt.Errorf("create report file: %w", err)
	}
	defer out.Close()

	n, err := io.Copy(out, data)
	if err != nil {
		_ = os.Remove(fullPath)
		return SavedReport{}, fmt.Errorf("write report: %w", err)
	}

	return SavedReport{Path: fullPath, SizeBytes: n}, nil
}

func randomHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", buf), nil
}
