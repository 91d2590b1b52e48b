package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Location
		wantErr bool
	}{
		{name: "home", input: "home", want: LocationHome},
		{name: "work", input: "work", want: LocationWork},
		{name: "football", input: "football", want: LocationFootball},
		{name: "studio", input: "studio", want: LocationStudio},
		{name: "daycare", input: "daycare", want: LocationDaycare},
		{name: "unknown", input: "garage", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Home", wantErr: true},
		{name: "injection attempt", input: "home_air_quality; DROP TABLE user_profiles; --", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLocation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLocation) {
					t.Errorf("error should wrap ErrInvalidLocation, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLocation_ZeroValueInvalid(t *testing.T) {
	var loc Location
	if loc.Valid() {
		t.Error("zero Location should be invalid")
	}
	if _, ok := loc.Station(); ok {
		t.Error("zero Location should have no station")
	}
}

// TestLocationStationMapping checks the mapping is a bijection in both directions
func TestLocationStationMapping(t *testing.T) {
	seen := make(map[string]bool)

	for _, loc := range Locations() {
		station, ok := loc.Station()
		if !ok {
			t.Fatalf("location %v has no station", loc)
		}
		if seen[station.ID] {
			t.Errorf("station %s mapped twice", station.ID)
		}
		seen[station.ID] = true

		back, ok := station.Location()
		if !ok || back != loc {
			t.Errorf("station %s maps back to %v, want %v", station.ID, back, loc)
		}
	}

	if len(seen) != len(Stations()) {
		t.Errorf("mapped %d stations, have %d", len(seen), len(Stations()))
	}

	if got := LocationMapping()["home"]; got != "manhattan_midtown" {
		t.Errorf("home maps to %q, want manhattan_midtown", got)
	}
}

func TestStationByID(t *testing.T) {
	s, ok := StationByID("bronx_south")
	if !ok {
		t.Fatal("bronx_south not found")
	}
	if s.Latitude != 40.8448 || s.Longitude != -73.8648 {
		t.Errorf("unexpected coordinates %v,%v", s.Latitude, s.Longitude)
	}

	if _, ok := StationByID("jersey_city"); ok {
		t.Error("unknown station should not be found")
	}
}

func TestLocation_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Location{"loc": LocationStudio})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"loc":"studio"}` {
		t.Errorf("got %s", data)
	}

	var decoded struct {
		Loc Location `json:"loc"`
	}
	if err := json.Unmarshal([]byte(`{"loc":"daycare"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Loc != LocationDaycare {
		t.Errorf("decoded %v, want daycare", decoded.Loc)
	}

	if err := json.Unmarshal([]byte(`{"loc":"attic"}`), &decoded); err == nil {
		t.Error("expected error for unknown location")
	}
}
