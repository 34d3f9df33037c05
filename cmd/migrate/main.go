package main

import (
	"mock_trading/internal/config" // Custom import path (Config)
	"mock_trading/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg, log) // Connect using DB_DRIVER and friends
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.WithField("driver", cfg.DBDriver).Info("Database migrated successfully")
}
