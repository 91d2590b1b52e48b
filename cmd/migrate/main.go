package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"airwatch-platform/internal/config"
	"airwatch-platform/pkg/database"
	"airwatch-platform/pkg/logging"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	if *direction != "up" && *direction != "down" {
		fmt.Fprintf(os.Stderr, "Invalid direction %q: expected up or down\n", *direction)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airwatch-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	fmt.Printf("Running %s migrations against %s\n", *direction, cfg.Database.Driver)

	if err := database.Migrate(context.Background(), cfg.DB(), *direction, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
