package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"invoiceform/cmd"
	"invoiceform/internal/config"
	"invoiceform/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Commands that need the configuration report the error themselves.
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting invoiceform")

	cmd.Execute()

	log.Debug().Msg("Invoiceform shutdown")
	os.Exit(0)
}
