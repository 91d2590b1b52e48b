package main

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"strings"

	"airwatch-platform/internal/generator"
	"airwatch-platform/internal/insight"
	"airwatch-platform/internal/models"
	"airwatch-platform/internal/services"
	"airwatch-platform/pkg/logging"
)

// demo exercises the reading generator and the rule insights without a database
func main() {
	samples := flag.Int("samples", 100, "Readings to draw for the category distribution")
	flag.Parse()

	logger := logging.NewStructuredLogger("airwatch-demo", "1.0.0", logging.InfoLevel)
	ctx := context.Background()

	gen := generator.New()
	rules := insight.NewRuleGenerator()

	banner("AIRWATCH - READING GENERATOR DEMONSTRATION")

	current := gen.Current()
	fmt.Printf("%s now: AQI %d (%s), primary pollutant %s\n",
		current.Location, current.AQIValue, current.AQICategory, current.PrimaryPollutant)
	fmt.Printf("  PM2.5 %.1f | PM10 %.1f | O3 %.1f | NO2 %.1f | SO2 %.1f | CO %.1f\n",
		current.PM25, current.PM10, current.O3, current.NO2, current.SO2, current.CO)
	fmt.Printf("  %.1f°C, %.1f%% humidity, reading time %s\n\n", current.Temperature, current.Humidity, current.ReadingTime)

	rec := services.RecommendationFor(current.AQICategory)
	fmt.Printf("Advice: %s\n", rec.Message)
	fmt.Printf("Activities: %s\n", strings.Join(rec.Activities, ", "))
	fmt.Printf("Sensitive groups: %s\n\n", rec.SensitiveGroups)

	section("Last 24 hours")
	var trend strings.Builder
	for p := range gen.HistorySeq(24) {
		fmt.Fprintf(&trend, "%s=%d ", p.Time, p.AQI)
	}
	fmt.Println(strings.TrimSpace(trend.String()))
	fmt.Println()

	section("Monitoring stations")
	for _, s := range gen.AllStations() {
		fmt.Printf("  %-10s %-32s AQI %3d  %s\n", s.StationID, s.Location, s.AQIValue, s.AQICategory)
	}
	fmt.Println()

	section("Insights per location")
	for _, loc := range models.Locations() {
		reading := gen.Current().Reading
		result, err := rules.Generate(ctx, loc.String(), reading)
		if err != nil {
			logger.Error(ctx, "[DEMO_ERROR] Insight generation failed", logging.Fields{"location": loc.String()}, err)
			continue
		}
		fmt.Printf("  %s (AQI %d): %s\n", loc, reading.AQIValue, result.Text)
	}
	fmt.Println()

	section(fmt.Sprintf("Category distribution over %d draws", *samples))
	counts := make(map[models.AQICategory]int)
	for i := 0; i < *samples; i++ {
		counts[gen.Current().AQICategory]++
	}
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		fmt.Printf("  %-20s %d\n", c, counts[models.AQICategory(c)])
	}
	fmt.Println()

	banner("DEMONSTRATION COMPLETE")
}

func banner(title string) {
	line := strings.Repeat("=", 64)
	fmt.Println(line)
	fmt.Println(title)
	fmt.Println(line)
	fmt.Println()
}

func section(title string) {
	fmt.Println(title)
	fmt.Println(strings.Repeat("-", 64))
}
