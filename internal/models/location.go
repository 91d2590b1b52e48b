package models

import (
	"errors"
	"fmt"
)

// ErrInvalidLocation is returned for identifiers outside the enumerated location set
var ErrInvalidLocation = errors.New("invalid location")

// Location identifies one of the fixed user locations. The identifier is
// unexported so the only usable values are the package-level ones below;
// the zero value is invalid.
type Location struct {
	id string
}

var (
	LocationHome     = Location{id: "home"}
	LocationWork     = Location{id: "work"}
	LocationFootball = Location{id: "football"}
	LocationStudio   = Location{id: "studio"}
	LocationDaycare  = Location{id: "daycare"}
)

// Station is a fixed NYC monitoring point
type Station struct {
	ID        string  `json:"id"`
	Name      string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type locationInfo struct {
	displayName string
	stationID   string
}

// locationOrder is the canonical iteration order
var locationOrder = []Location{
	LocationHome,
	LocationWork,
	LocationFootball,
	LocationStudio,
	LocationDaycare,
}

var locationTable = map[Location]locationInfo{
	LocationHome:     {displayName: "your home area", stationID: "manhattan_midtown"},
	LocationWork:     {displayName: "your work area", stationID: "brooklyn_downtown"},
	LocationFootball: {displayName: "your football center area", stationID: "queens_astoria"},
	LocationStudio:   {displayName: "your studio area", stationID: "bronx_south"},
	LocationDaycare:  {displayName: "your daycare area", stationID: "staten_island_north"},
}

var stationTable = []Station{
	{ID: "manhattan_midtown", Name: "Manhattan Midtown", Latitude: 40.7589, Longitude: -73.9851},
	{ID: "brooklyn_downtown", Name: "Brooklyn Downtown", Latitude: 40.6943, Longitude: -73.9903},
	{ID: "queens_astoria", Name: "Queens Astoria", Latitude: 40.7794, Longitude: -73.9217},
	{ID: "bronx_south", Name: "Bronx South", Latitude: 40.8448, Longitude: -73.8648},
	{ID: "staten_island_north", Name: "Staten Island North", Latitude: 40.6415, Longitude: -74.0776},
}

// Locations returns all locations in canonical order
func Locations() []Location {
	out := make([]Location, len(locationOrder))
	copy(out, locationOrder)
	return out
}

// ParseLocation converts an identifier such as "home" into a Location
func ParseLocation(s string) (Location, error) {
	loc := Location{id: s}
	if !loc.Valid() {
		return Location{}, fmt.Errorf("%w: %q", ErrInvalidLocation, s)
	}
	return loc, nil
}

// Valid reports whether l is one of the enumerated locations
func (l Location) Valid() bool {
	_, ok := locationTable[l]
	return ok
}

// String returns the location identifier
func (l Location) String() string {
	return l.id
}

// DisplayName returns the user-facing name used in advisory text
func (l Location) DisplayName() string {
	return locationTable[l].displayName
}

// Station returns the monitoring station bound to l
func (l Location) Station() (Station, bool) {
	info, ok := locationTable[l]
	if !ok {
		return Station{}, false
	}
	return StationByID(info.stationID)
}

// MarshalText implements encoding.TextMarshaler
func (l Location) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, ErrInvalidLocation
	}
	return []byte(l.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (l *Location) UnmarshalText(b []byte) error {
	loc, err := ParseLocation(string(b))
	if err != nil {
		return err
	}
	*l = loc
	return nil
}

// Stations returns every monitoring station in canonical order
func Stations() []Station {
	out := make([]Station, len(stationTable))
	copy(out, stationTable)
	return out
}

// StationByID looks up a station by identifier
func StationByID(id string) (Station, bool) {
	for _, s := range stationTable {
		if s.ID == id {
			return s, true
		}
	}
	return Station{}, false
}

// Location returns the user location mapped to the station
func (s Station) Location() (Location, bool) {
	for _, loc := range locationOrder {
		if locationTable[loc].stationID == s.ID {
			return loc, true
		}
	}
	return Location{}, false
}

// LocationMapping returns the location -> station identifier mapping
func LocationMapping() map[string]string {
	out := make(map[string]string, len(locationTable))
	for loc, info := range locationTable {
		out[loc.id] = info.stationID
	}
	return out
}
