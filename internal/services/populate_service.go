package services

import (
	"context"
	"fmt"
	"time"

	"airwatch-platform/internal/models"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

// PopulateService seeds the location series with generated readings
type PopulateService struct {
	airQuality *AirQualityService
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// PopulateResult contains population statistics
type PopulateResult struct {
	Locations         int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	Duration          time.Duration
	Errors            []string
}

// NewPopulateService creates a new populate service
func NewPopulateService(airQuality *AirQualityService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PopulateService {
	return &PopulateService{
		airQuality: airQuality,
		logger:     logger,
		metrics:    metricsCollector,
	}
}

// Populate records count readings for every location. A failed write is
// counted and the run continues; cancellation stops it early.
func (s *PopulateService) Populate(ctx context.Context, count int) (*PopulateResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}

	startTime := time.Now()
	locations := models.Locations()

	s.logger.Info(ctx, "[POPULATE_START] Starting location population", logging.Fields{
		"locations": len(locations),
		"count":     count,
		"stage":     "INITIALIZATION",
	})

	result := &PopulateResult{
		Locations: len(locations),
		Errors:    make([]string, 0),
	}

	for _, loc := range locations {
		ok := 0
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				result.Duration = time.Since(startTime)
				return result, err
			}

			result.TotalRecords++
			if _, err := s.airQuality.RecordLocationReading(ctx, loc); err != nil {
				result.FailedRecords++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", loc, err))
				continue
			}
			ok++
		}
		result.SuccessfulRecords += ok

		s.logger.Info(ctx, "[POPULATE_LOCATION_COMPLETE] Location populated", logging.Fields{
			"location": loc.String(),
			"records":  ok,
			"stage":    "LOCATION_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)

	s.logger.Info(ctx, "[POPULATE_COMPLETE] Location population completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}
