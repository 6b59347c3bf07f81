package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/config"
	"github.com/Galev01/LimiQuantix-sub002/internal/infrastructure/server"
)

func main() {
	// Parse flags; set flags win over the environment
	envFile := flag.String("env", ".env", "Optional dotenv file")
	port := flag.String("port", "", "Server port (overrides PORT)")
	inventoryURL := flag.String("inventory", "", "Control plane base URL (overrides INVENTORY_URL)")
	storagePath := flag.String("storage", "", "Layout storage directory (overrides WORKSPACE_STORAGE_PATH)")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	cfg, err := config.LoadFiles(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *inventoryURL != "" {
		cfg.Inventory.BaseURL = *inventoryURL
	}
	if *storagePath != "" {
		cfg.Storage.Path = *storagePath
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer srv.Close()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Printf("Server error: %v", err)
		srv.Close()
		os.Exit(1)
	}
}
