package services

import (
	"context"

	"airwatch-platform/internal/generator"
	"airwatch-platform/internal/insight"
	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const historyHours = 24

// CityOverview is the current city reading plus a compact 24h trend
type CityOverview struct {
	Current    models.CityReading    `json:"current"`
	Historical []models.HistoryPoint `json:"historical"`
}

// Recommendation is the static advice for one AQI category
type Recommendation struct {
	Message         string   `json:"message"`
	Activities      []string `json:"activities"`
	SensitiveGroups string   `json:"sensitive_groups"`
}

// HealthAdvice pairs a fresh reading with its category advice
type HealthAdvice struct {
	AQIValue        int                `json:"aqi_value"`
	AQICategory     models.AQICategory `json:"aqi_category"`
	Recommendations Recommendation     `json:"recommendations"`
}

// LocationInsight is advice derived from a location's latest stored reading
type LocationInsight struct {
	Location         string                  `json:"location"`
	AQIValue         int                     `json:"aqi_value"`
	AQICategory      models.AQICategory      `json:"aqi_category"`
	PrimaryPollutant string                  `json:"primary_pollutant"`
	Insight          string                  `json:"insight"`
	Source           string                  `json:"source"`
	FullData         *models.LocationReading `json:"full_data"`
}

var recommendations = map[models.AQICategory]Recommendation{
	models.AQIGood: {
		Message:         "Air quality is satisfactory and poses little or no risk.",
		Activities:      []string{"All outdoor activities are safe", "Great day for outdoor exercise"},
		SensitiveGroups: "No special precautions needed",
	},
	models.AQIModerate: {
		Message:         "Air quality is acceptable for most people.",
		Activities:      []string{"Most outdoor activities are safe", "Consider reducing prolonged outdoor exertion"},
		SensitiveGroups: "Sensitive individuals may experience minor breathing discomfort",
	},
	models.AQIUnhealthySensitive: {
		Message:         "Sensitive groups may experience health effects.",
		Activities:      []string{"Reduce outdoor activities", "Avoid prolonged outdoor exertion"},
		SensitiveGroups: "Children, elderly, and those with respiratory conditions should limit outdoor activities",
	},
	models.AQIUnhealthy: {
		Message:         "Everyone may begin to experience health effects.",
		Activities:      []string{"Avoid outdoor activities", "Stay indoors when possible"},
		SensitiveGroups: "Sensitive groups should avoid all outdoor activities",
	},
	models.AQIVeryUnhealthy: {
		Message:         "Health warnings of emergency conditions.",
		Activities:      []string{"Stay indoors", "Avoid all outdoor activities"},
		SensitiveGroups: "Everyone should avoid outdoor activities",
	},
	models.AQIHazardous: {
		Message:         "Health alert: everyone may experience serious health effects.",
		Activities:      []string{"Stay indoors", "Use air purifiers", "Avoid all outdoor activities"},
		SensitiveGroups: "Emergency conditions - everyone should stay indoors",
	},
}

// RecommendationFor returns the advice for a category, defaulting to moderate
func RecommendationFor(category models.AQICategory) Recommendation {
	if rec, ok := recommendations[category]; ok {
		return rec
	}
	return recommendations[models.AQIModerate]
}

// AirQualityService coordinates reading generation, persistence and insights
type AirQualityService struct {
	repo      repository.AirQualityRepository
	generator *generator.Generator
	insights  insight.Generator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewAirQualityService creates a new air quality service
func NewAirQualityService(
	repo repository.AirQualityRepository,
	gen *generator.Generator,
	insights insight.Generator,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AirQualityService {
	return &AirQualityService{
		repo:      repo,
		generator: gen,
		insights:  insights,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// CurrentCity generates the city overview and records the current reading
// under the home location. A storage failure is logged, not returned.
func (s *AirQualityService) CurrentCity(ctx context.Context) *CityOverview {
	overview := &CityOverview{
		Current:    s.generator.Current(),
		Historical: s.generator.History(historyHours),
	}
	s.metrics.RecordReadingGenerated("city", 1)
	s.metrics.RecordReadingGenerated("history", len(overview.Historical))

	s.persistLocation(ctx, models.LocationHome, overview.Current.Reading)

	return overview
}

// RefreshStations generates one reading per station, replaces each station
// snapshot and appends the reading to the station's location series
func (s *AirQualityService) RefreshStations(ctx context.Context) []models.StationReading {
	readings := s.generator.AllStations()
	s.metrics.RecordReadingGenerated("station", len(readings))

	for i := range readings {
		snapshot := readings[i]
		if err := s.repo.UpsertStationSnapshot(ctx, &snapshot); err != nil {
			s.metrics.RecordPersistError("station")
			s.logger.Error(ctx, "[AQ_PERSIST_ERROR] Failed to store station snapshot", logging.Fields{
				"station_id": snapshot.StationID,
			}, err)
		} else {
			s.metrics.RecordReadingPersisted("station")
		}

		station, ok := models.StationByID(snapshot.StationID)
		if !ok {
			continue
		}
		if loc, ok := station.Location(); ok {
			s.persistLocation(ctx, loc, snapshot.Reading)
		}
	}

	s.logger.Info(ctx, "[AQ_STATIONS_REFRESHED] Station readings generated", logging.Fields{
		"stations": len(readings),
	})

	return readings
}

// StationReading generates a reading for one station
func (s *AirQualityService) StationReading(stationID string) (*models.StationReading, error) {
	station, ok := models.StationByID(stationID)
	if !ok {
		return nil, &repository.NotFoundError{Resource: "station", ID: stationID}
	}

	reading := s.generator.ForStation(station)
	s.metrics.RecordReadingGenerated("station", 1)
	return &reading, nil
}

// RecordLocationReading generates a reading at the location's station and
// appends it to the location series
func (s *AirQualityService) RecordLocationReading(ctx context.Context, loc models.Location) (*models.LocationReading, error) {
	station, ok := loc.Station()
	if !ok {
		return nil, models.ErrInvalidLocation
	}

	reading := s.generator.ForStation(station)
	s.metrics.RecordReadingGenerated("station", 1)

	stored, err := s.repo.AppendReading(ctx, loc, reading.Reading)
	if err != nil {
		s.metrics.RecordPersistError(loc.String())
		return nil, err
	}
	s.metrics.RecordReadingPersisted(loc.String())

	return stored, nil
}

// LatestForLocation returns the newest stored reading for the location
func (s *AirQualityService) LatestForLocation(ctx context.Context, loc models.Location) (*models.LocationReading, error) {
	return s.repo.LatestReading(ctx, loc)
}

// HistoryForLocation returns the stored readings inside the window, newest first
func (s *AirQualityService) HistoryForLocation(ctx context.Context, loc models.Location, window models.TimeWindow) ([]*models.LocationReading, error) {
	return s.repo.ReadingHistory(ctx, loc, window)
}

// HealthRecommendations returns advice for a freshly generated city reading
func (s *AirQualityService) HealthRecommendations() *HealthAdvice {
	current := s.generator.Current()
	s.metrics.RecordReadingGenerated("city", 1)

	return &HealthAdvice{
		AQIValue:        current.AQIValue,
		AQICategory:     current.AQICategory,
		Recommendations: RecommendationFor(current.AQICategory),
	}
}

// DatabaseStats returns row counts for every table
func (s *AirQualityService) DatabaseStats(ctx context.Context) (*models.DatabaseStats, error) {
	return s.repo.Stats(ctx)
}

// InsightForLocation generates advice from the location's latest reading
func (s *AirQualityService) InsightForLocation(ctx context.Context, loc models.Location) (*LocationInsight, error) {
	latest, err := s.repo.LatestReading(ctx, loc)
	if err != nil {
		return nil, err
	}

	out, err := s.insights.Generate(ctx, loc.DisplayName(), latest.Reading)
	if err != nil {
		return nil, err
	}

	station, _ := loc.Station()

	return &LocationInsight{
		Location:         station.ID,
		AQIValue:         latest.AQIValue,
		AQICategory:      latest.AQICategory,
		PrimaryPollutant: latest.PrimaryPollutant,
		Insight:          out.Text,
		Source:           out.Source,
		FullData:         latest,
	}, nil
}

func (s *AirQualityService) persistLocation(ctx context.Context, loc models.Location, reading models.Reading) {
	if _, err := s.repo.AppendReading(ctx, loc, reading); err != nil {
		s.metrics.RecordPersistError(loc.String())
		s.logger.Error(ctx, "[AQ_PERSIST_ERROR] Failed to store location reading", logging.Fields{
			"location": loc.String(),
		}, err)
		return
	}
	s.metrics.RecordReadingPersisted(loc.String())
}

// HealthCheck reports whether storage is reachable
func (s *AirQualityService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
