package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"airwatch-platform/internal/models"
	"airwatch-platform/pkg/database"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const (
	stationsTable = "nyc_stations"
	profilesTable = "user_profiles"
)

// seriesTables is the only source of location table names
var seriesTables = map[models.Location]string{
	models.LocationHome:     "home_air_quality",
	models.LocationWork:     "work_air_quality",
	models.LocationFootball: "football_air_quality",
	models.LocationStudio:   "studio_air_quality",
	models.LocationDaycare:  "daycare_air_quality",
}

const readingColumns = `aqi_value, aqi_category, primary_pollutant,
	pm25, pm10, o3, no2, so2, co, temperature, humidity,
	latitude, longitude, reading_time, data_source`

// AirQualityRepository provides data access for readings, station snapshots
// and user profiles
type AirQualityRepository interface {
	// Location series operations
	AppendReading(ctx context.Context, loc models.Location, reading models.Reading) (*models.LocationReading, error)
	LatestReading(ctx context.Context, loc models.Location) (*models.LocationReading, error)
	ReadingHistory(ctx context.Context, loc models.Location, window models.TimeWindow) ([]*models.LocationReading, error)
	RecentReadings(ctx context.Context, loc models.Location, limit int) ([]*models.LocationReading, error)

	// Station snapshot operations
	UpsertStationSnapshot(ctx context.Context, snapshot *models.StationReading) error
	ListStationSnapshots(ctx context.Context) ([]*models.StationReading, error)

	// Profile operations
	UpsertUserProfile(ctx context.Context, profile *models.UserProfile) error
	GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error)

	// Utility operations
	Stats(ctx context.Context) (*models.DatabaseStats, error)
	Purge(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

// airQualityRepository implements AirQualityRepository
type airQualityRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewAirQualityRepository creates a new air quality repository
func NewAirQualityRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) AirQualityRepository {
	return &airQualityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func seriesTable(loc models.Location) (string, error) {
	table, ok := seriesTables[loc]
	if !ok {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidLocation, loc.String())
	}
	return table, nil
}

func readingArgs(r *models.Reading) []interface{} {
	return []interface{}{
		r.AQIValue,
		string(r.AQICategory),
		r.PrimaryPollutant,
		r.PM25,
		r.PM10,
		r.O3,
		r.NO2,
		r.SO2,
		r.CO,
		r.Temperature,
		r.Humidity,
		r.Latitude,
		r.Longitude,
		r.ReadingTime,
		r.Source(),
	}
}

// AppendReading adds a reading to the location's series
func (r *airQualityRepository) AppendReading(ctx context.Context, loc models.Location, reading models.Reading) (*models.LocationReading, error) {
	table, err := seriesTable(loc)
	if err != nil {
		return nil, err
	}
	if err := reading.Validate(); err != nil {
		return nil, err
	}

	row := &models.LocationReading{
		RecordedAt: r.now(),
		Reading:    reading,
	}
	row.DataSource = reading.Source()

	query := `INSERT INTO ` + table + ` (recorded_at, ` + readingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

	args := append([]interface{}{row.RecordedAt}, readingArgs(&row.Reading)...)
	if err := r.db.GetContext(ctx, "append_reading", &row.ID, query, args...); err != nil {
		return nil, &StorageError{Op: "insert", Table: table, Err: err}
	}

	r.logger.Debug(ctx, "[REPO_APPEND_READING] Reading stored", logging.Fields{
		"location":  loc.String(),
		"id":        row.ID,
		"aqi_value": row.AQIValue,
	})

	return row, nil
}

// LatestReading returns the most recently inserted reading for the location
func (r *airQualityRepository) LatestReading(ctx context.Context, loc models.Location) (*models.LocationReading, error) {
	table, err := seriesTable(loc)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, recorded_at, ` + readingColumns + `
		FROM ` + table + `
		ORDER BY id DESC
		LIMIT 1`

	var row models.LocationReading
	err = r.db.GetContext(ctx, "latest_reading", &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "reading",
			ID:       loc.String(),
		}
	}
	if err != nil {
		return nil, &StorageError{Op: "select", Table: table, Err: err}
	}

	return &row, nil
}

// ReadingHistory returns the readings whose reading_time falls within the
// inclusive window, newest first
func (r *airQualityRepository) ReadingHistory(ctx context.Context, loc models.Location, window models.TimeWindow) ([]*models.LocationReading, error) {
	table, err := seriesTable(loc)
	if err != nil {
		return nil, err
	}

	rows := []*models.LocationReading{}
	if window.Empty() {
		return rows, nil
	}

	start, end := window.Bounds()
	query := `SELECT id, recorded_at, ` + readingColumns + `
		FROM ` + table + `
		WHERE reading_time >= ? AND reading_time <= ?
		ORDER BY reading_time DESC, id DESC`

	if err := r.db.SelectContext(ctx, "reading_history", &rows, query, start, end); err != nil {
		return nil, &StorageError{Op: "select", Table: table, Err: err}
	}

	return rows, nil
}

// RecentReadings returns up to limit rows, newest inserted first
func (r *airQualityRepository) RecentReadings(ctx context.Context, loc models.Location, limit int) ([]*models.LocationReading, error) {
	table, err := seriesTable(loc)
	if err != nil {
		return nil, err
	}

	rows := []*models.LocationReading{}
	if limit <= 0 {
		return rows, nil
	}

	query := `SELECT id, recorded_at, ` + readingColumns + `
		FROM ` + table + `
		ORDER BY id DESC
		LIMIT ?`

	if err := r.db.SelectContext(ctx, "recent_readings", &rows, query, limit); err != nil {
		return nil, &StorageError{Op: "select", Table: table, Err: err}
	}

	return rows, nil
}

// UpsertStationSnapshot replaces the stored snapshot for the station
func (r *airQualityRepository) UpsertStationSnapshot(ctx context.Context, snapshot *models.StationReading) error {
	if _, ok := models.StationByID(snapshot.StationID); !ok {
		return &models.ValidationError{
			Field:   "station_id",
			Value:   snapshot.StationID,
			Message: "unknown station",
		}
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	recordedAt := r.now()
	query := `INSERT INTO ` + stationsTable + ` (station_id, location, recorded_at, ` + readingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (station_id) DO UPDATE SET
			location = EXCLUDED.location,
			recorded_at = EXCLUDED.recorded_at,
			aqi_value = EXCLUDED.aqi_value,
			aqi_category = EXCLUDED.aqi_category,
			primary_pollutant = EXCLUDED.primary_pollutant,
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			o3 = EXCLUDED.o3,
			no2 = EXCLUDED.no2,
			so2 = EXCLUDED.so2,
			co = EXCLUDED.co,
			temperature = EXCLUDED.temperature,
			humidity = EXCLUDED.humidity,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			reading_time = EXCLUDED.reading_time,
			data_source = EXCLUDED.data_source`

	args := append([]interface{}{snapshot.StationID, snapshot.Location, recordedAt}, readingArgs(&snapshot.Reading)...)
	if _, err := r.db.ExecContext(ctx, "upsert_station", query, args...); err != nil {
		return &StorageError{Op: "upsert", Table: stationsTable, Err: err}
	}

	snapshot.RecordedAt = &recordedAt
	return nil
}

// ListStationSnapshots returns every stored station snapshot ordered by id
func (r *airQualityRepository) ListStationSnapshots(ctx context.Context) ([]*models.StationReading, error) {
	query := `SELECT station_id, location, recorded_at, ` + readingColumns + `
		FROM ` + stationsTable + `
		ORDER BY station_id`

	rows := []*models.StationReading{}
	if err := r.db.SelectContext(ctx, "list_stations", &rows, query); err != nil {
		return nil, &StorageError{Op: "select", Table: stationsTable, Err: err}
	}

	return rows, nil
}

// UpsertUserProfile creates or replaces a profile. The first creation time is
// preserved; the stored timestamps are copied back into profile.
func (r *airQualityRepository) UpsertUserProfile(ctx context.Context, profile *models.UserProfile) error {
	if profile.UserID == "" {
		return &models.ValidationError{Field: "user_id", Message: "user_id is required"}
	}
	if profile.HealthConditions == nil {
		profile.HealthConditions = models.HealthConditions{}
	}

	now := r.now()
	query := `INSERT INTO ` + profilesTable + ` (user_id, age, sex, smoking_status, health_conditions, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			sex = EXCLUDED.sex,
			smoking_status = EXCLUDED.smoking_status,
			health_conditions = EXCLUDED.health_conditions,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, "upsert_profile", query,
		profile.UserID,
		profile.Age,
		profile.Sex,
		profile.SmokingStatus,
		profile.HealthConditions,
		now,
		now,
	)
	if err != nil {
		return &StorageError{Op: "upsert", Table: profilesTable, Err: err}
	}

	stored, err := r.GetUserProfile(ctx, profile.UserID)
	if err != nil {
		return err
	}
	profile.CreatedAt = stored.CreatedAt
	profile.UpdatedAt = stored.UpdatedAt

	r.logger.Debug(ctx, "[REPO_UPSERT_PROFILE] Profile stored", logging.Fields{
		"user_id": profile.UserID,
	})

	return nil
}

// GetUserProfile retrieves a profile by user id
func (r *airQualityRepository) GetUserProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT user_id, age, sex, smoking_status, health_conditions, created_at, updated_at
		FROM ` + profilesTable + `
		WHERE user_id = ?`

	var profile models.UserProfile
	err := r.db.GetContext(ctx, "get_profile", &profile, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "user_profile",
			ID:       userID,
		}
	}
	if err != nil {
		return nil, &StorageError{Op: "select", Table: profilesTable, Err: err}
	}

	return &profile, nil
}

// Stats counts the rows of every table
func (r *airQualityRepository) Stats(ctx context.Context) (*models.DatabaseStats, error) {
	stats := &models.DatabaseStats{
		LocationRecords: make(map[models.Location]int, len(seriesTables)),
	}

	for _, loc := range models.Locations() {
		n, err := r.count(ctx, seriesTables[loc])
		if err != nil {
			return nil, err
		}
		stats.LocationRecords[loc] = n
	}

	var err error
	if stats.StationRecords, err = r.count(ctx, stationsTable); err != nil {
		return nil, err
	}
	if stats.UserProfiles, err = r.count(ctx, profilesTable); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *airQualityRepository) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, "count_rows", &n, `SELECT COUNT(*) FROM `+table); err != nil {
		return 0, &StorageError{Op: "count", Table: table, Err: err}
	}
	return n, nil
}

// Purge deletes every row of every table. Each table is attempted even when
// an earlier one fails; all failures are reported together.
func (r *airQualityRepository) Purge(ctx context.Context) error {
	tables := make([]string, 0, len(seriesTables)+2)
	for _, loc := range models.Locations() {
		tables = append(tables, seriesTables[loc])
	}
	tables = append(tables, stationsTable, profilesTable)

	var result *multierror.Error
	failed := 0
	for _, table := range tables {
		if _, err := r.db.ExecContext(ctx, "purge_table", `DELETE FROM `+table); err != nil {
			result = multierror.Append(result, &StorageError{Op: "delete", Table: table, Err: err})
			failed++
		}
	}

	r.logger.Warn(ctx, "[REPO_PURGE] Tables purged", logging.Fields{
		"tables": len(tables),
		"failed": failed,
	})

	return result.ErrorOrNil()
}

// HealthCheck performs a repository health check
func (r *airQualityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
