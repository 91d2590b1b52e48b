package models

import (
	"fmt"
	"time"
)

// ReadingTimeLayout is the ISO-8601 UTC layout used for reading_time
const ReadingTimeLayout = "2006-01-02T15:04:05Z"

// DefaultDataSource tags readings produced by the API
const DefaultDataSource = "api"

// Reading is a point-in-time air quality measurement
type Reading struct {
	AQIValue         int         `json:"aqi_value" db:"aqi_value"`
	AQICategory      AQICategory `json:"aqi_category" db:"aqi_category"`
	PrimaryPollutant string      `json:"primary_pollutant" db:"primary_pollutant"`
	PM25             float64     `json:"pm25" db:"pm25"`
	PM10             float64     `json:"pm10" db:"pm10"`
	O3               float64     `json:"o3" db:"o3"`
	NO2              float64     `json:"no2" db:"no2"`
	SO2              float64     `json:"so2" db:"so2"`
	CO               float64     `json:"co" db:"co"`
	Temperature      float64     `json:"temperature" db:"temperature"`
	Humidity         float64     `json:"humidity" db:"humidity"`
	Latitude         *float64    `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64    `json:"longitude,omitempty" db:"longitude"`
	ReadingTime      string      `json:"reading_time" db:"reading_time"`
	DataSource       string      `json:"data_source,omitempty" db:"data_source"`
}

// Validate checks the invariants a stored reading must satisfy
func (r *Reading) Validate() error {
	if r.AQICategory != CategoryFor(r.AQIValue) {
		return &ValidationError{
			Field:   "aqi_category",
			Value:   string(r.AQICategory),
			Message: fmt.Sprintf("aqi_category %q does not match aqi_value %d", r.AQICategory, r.AQIValue),
		}
	}
	if _, err := time.Parse(ReadingTimeLayout, r.ReadingTime); err != nil {
		return &ValidationError{
			Field:   "reading_time",
			Value:   r.ReadingTime,
			Message: "invalid reading_time, expected YYYY-MM-DDTHH:MM:SSZ",
		}
	}
	return nil
}

// Source returns the data source, falling back to the default tag
func (r *Reading) Source() string {
	if r.DataSource == "" {
		return DefaultDataSource
	}
	return r.DataSource
}

// CityReading is the aggregate city-level view
type CityReading struct {
	Location string `json:"location"`
	Reading
}

// LocationReading is a row from a location's append-only series
type LocationReading struct {
	ID         int64     `json:"id" db:"id"`
	RecordedAt time.Time `json:"timestamp" db:"recorded_at"`
	Reading
}

// StationReading is a reading scoped to one monitoring station; it is also
// the row shape of the station snapshot table
type StationReading struct {
	StationID  string     `json:"id" db:"station_id"`
	Location   string     `json:"location" db:"location"`
	RecordedAt *time.Time `json:"timestamp,omitempty" db:"recorded_at"`
	Reading
}

// HistoryPoint is one compact hourly sample
type HistoryPoint struct {
	Time string `json:"time"`
	AQI  int    `json:"aqi"`
}

// TimeWindow is an inclusive reading_time range
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// LastHours returns the window covering the given number of hours up to now
func LastHours(now time.Time, hours int) TimeWindow {
	now = now.UTC()
	return TimeWindow{
		Start: now.Add(-time.Duration(hours) * time.Hour),
		End:   now,
	}
}

// Bounds returns the window bounds formatted as reading_time strings.
// reading_time has whole-second precision, so a fractional start rounds up
// and a fractional end rounds down.
func (w TimeWindow) Bounds() (string, string) {
	start := w.Start.Truncate(time.Second)
	if start.Before(w.Start) {
		start = start.Add(time.Second)
	}
	return FormatReadingTime(start), FormatReadingTime(w.End)
}

// Empty reports whether the window cannot contain any instant
func (w TimeWindow) Empty() bool {
	return w.End.Before(w.Start)
}

// FormatReadingTime formats t as a reading_time string
func FormatReadingTime(t time.Time) string {
	return t.UTC().Format(ReadingTimeLayout)
}
