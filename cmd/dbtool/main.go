package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"airwatch-platform/internal/config"
	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/pkg/database"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const usage = `Usage: dbtool <command> [flags]

Commands:
  stats           Row counts per table
  view [-limit N] Most recent rows of every location series and all station snapshots
  purge -yes      Delete every row of every table
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	limit := fs.Int("limit", 5, "Rows to show per location (view)")
	confirm := fs.Bool("yes", false, "Confirm deletion (purge)")
	fs.Parse(os.Args[2:])

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airwatch-dbtool", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	metricsCollector := metrics.NewCollector("airwatch_dbtool")

	db, err := database.Open(cfg.DB(), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewAirQualityRepository(db, logger, metricsCollector)

	switch command {
	case "stats":
		err = printStats(ctx, repo)
	case "view":
		err = printRecent(ctx, repo, *limit)
	case "purge":
		if !*confirm {
			fmt.Fprintln(os.Stderr, "Refusing to purge without -yes")
			os.Exit(2)
		}
		if err = repo.Purge(ctx); err == nil {
			fmt.Println("All tables purged")
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", command, err)
		os.Exit(1)
	}
}

func printStats(ctx context.Context, repo repository.AirQualityRepository) error {
	stats, err := repo.Stats(ctx)
	if err != nil {
		return err
	}

	flat := stats.Flatten()
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\n", k, flat[k])
	}
	return tw.Flush()
}

func printRecent(ctx context.Context, repo repository.AirQualityRepository, limit int) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	for _, loc := range models.Locations() {
		rows, err := repo.RecentReadings(ctx, loc, limit)
		if err != nil {
			return err
		}

		fmt.Fprintf(tw, "\n%s (%d shown)\n", strings.ToUpper(loc.String()), len(rows))
		fmt.Fprintln(tw, "ID\tAQI\tCATEGORY\tPOLLUTANT\tPM2.5\tREADING TIME")
		for _, row := range rows {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%.1f\t%s\n",
				row.ID, row.AQIValue, row.AQICategory, row.PrimaryPollutant, row.PM25, row.ReadingTime)
		}
	}

	stations, err := repo.ListStationSnapshots(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(tw, "\nSTATIONS (%d)\n", len(stations))
	fmt.Fprintln(tw, "ID\tLOCATION\tAQI\tCATEGORY\tREADING TIME")
	for _, s := range stations {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.StationID, s.Location, s.AQIValue, s.AQICategory, s.ReadingTime)
	}
	return tw.Flush()
}
