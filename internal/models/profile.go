package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// HealthConditions is an ordered list of free-text tags, persisted as a JSON array
type HealthConditions []string

// Value implements driver.Valuer
func (h HealthConditions) Value() (driver.Value, error) {
	if h == nil {
		h = HealthConditions{}
	}
	data, err := json.Marshal([]string(h))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (h *HealthConditions) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*h = HealthConditions{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into HealthConditions", src)
	}

	if len(data) == 0 {
		*h = HealthConditions{}
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("invalid health_conditions: %w", err)
	}
	*h = out
	return nil
}

// UserProfile holds the health details a user shares with the app
type UserProfile struct {
	UserID           string           `json:"user_id" db:"user_id" validate:"required,max=128"`
	Age              *int             `json:"age" db:"age" validate:"omitempty,gte=0,lte=130"`
	Sex              *string          `json:"sex" db:"sex" validate:"omitempty,oneof=male female other"`
	SmokingStatus    *string          `json:"smoking_status" db:"smoking_status" validate:"omitempty,oneof=never former current"`
	HealthConditions HealthConditions `json:"health_conditions" db:"health_conditions" validate:"dive,required,max=64"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// DatabaseStats holds row counts for operational visibility
type DatabaseStats struct {
	LocationRecords map[Location]int
	StationRecords  int
	UserProfiles    int
}

// Flatten renders the stats with the legacy "<location>_records" keys
func (s *DatabaseStats) Flatten() map[string]int {
	out := make(map[string]int, len(s.LocationRecords)+2)
	for loc, n := range s.LocationRecords {
		out[loc.String()+"_records"] = n
	}
	out["station_records"] = s.StationRecords
	out["user_profiles"] = s.UserProfiles
	return out
}
