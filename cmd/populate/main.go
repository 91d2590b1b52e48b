package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"airwatch-platform/internal/config"
	"airwatch-platform/internal/generator"
	"airwatch-platform/internal/insight"
	"airwatch-platform/internal/repository"
	"airwatch-platform/internal/services"
	"airwatch-platform/pkg/database"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

func main() {
	count := flag.Int("count", 10, "Number of readings to record per location")
	interval := flag.Duration("interval", 0, "Repeat the population on this interval until interrupted (0 runs once)")
	flag.Parse()

	if *count <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid -count %d: must be positive\n", *count)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airwatch-populate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[POPULATE_START] Starting location population", logging.Fields{
		"count":     *count,
		"interval":  interval.String(),
		"db_driver": cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("airwatch_populate")

	dbConfig := cfg.DB()
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, dbConfig, "up", logger); err != nil {
			logger.Fatal(ctx, "[POPULATE_ERROR] Failed to migrate database", logging.Fields{}, err)
		}
	}

	db, err := database.Open(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[POPULATE_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)
	airQuality := services.NewAirQualityService(repo, generator.New(), insight.NewRuleGenerator(), logger, metricsCollector)
	populator := services.NewPopulateService(airQuality, logger, metricsCollector)

	if *interval <= 0 {
		result, err := populator.Populate(ctx, *count)
		if result != nil {
			printResult(result)
		}
		if err != nil {
			logger.Fatal(ctx, "[POPULATE_ERROR] Population interrupted", logging.Fields{}, err)
		}
		return
	}

	scheduler := gocron.NewScheduler(time.UTC)
	_, err = scheduler.Every(*interval).SingletonMode().Do(func() {
		result, err := populator.Populate(ctx, *count)
		if err != nil {
			logger.Warn(ctx, "[POPULATE_RUN_ABORTED] Scheduled population stopped early", logging.Fields{
				"error": err.Error(),
			})
		}
		if result != nil {
			printResult(result)
		}
	})
	if err != nil {
		logger.Fatal(ctx, "[POPULATE_ERROR] Failed to schedule population", logging.Fields{}, err)
	}

	scheduler.StartAsync()
	<-ctx.Done()
	scheduler.Stop()

	logger.Info(context.Background(), "[POPULATE_STOPPED] Scheduled population stopped", logging.Fields{})
}

func printResult(result *services.PopulateResult) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("POPULATION COMPLETE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Locations:          %d\n", result.Locations)
	fmt.Printf("Total Records:      %d\n", result.TotalRecords)
	fmt.Printf("Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Printf("Failed Records:     %d\n", result.FailedRecords)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i == 10 {
				fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
				break
			}
			fmt.Printf("  - %s\n", errMsg)
		}
	}
}
