package main

import (
	"context"
	"log"
	"net/http"

	"library_project/internal/config"
	"library_project/internal/db"
	"library_project/internal/httpapi"
	"library_project/internal/service"
	"library_project/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	log.Println("=== LIBRARY BOT STARTING ===")

	store, err := db.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer store.Close()
	log.Printf("sqlite: %s", cfg.SQLitePath)
	log.Printf("reports: %s", cfg.ReportsDir)

	lib := service.NewLibrary(store)

	seeded, err := lib.EnsureCatalog(context.Background(), cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog seed error: %v", err)
	}
	if seeded > 0 {
		log.Printf("catalog seeded with %d books", seeded)
	}

	// HTTP API for the Mini App.
	api := httpapi.New(lib, cfg.TelegramToken)
	go func() {
		log.Printf("http api listening on %s", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, api.Handler()); err != nil {
			log.Fatalf("http api error: %v", err)
		}
	}()

	bot, err := telegram.NewBot(cfg.TelegramToken, lib, cfg.ReportsDir, cfg.MiniAppURL, cfg.AdminIDs)
	if err != nil {
		log.Fatalf("bot error: %v", err)
	}

	log.Println("bot is up — send /start in Telegram")

	// Blocks until the process is stopped.
	bot.Start()
}
