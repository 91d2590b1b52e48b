package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
)

// fakeRepository is an in-memory AirQualityRepository with injectable failures
type fakeRepository struct {
	mu         sync.Mutex
	nextID     int64
	series     map[models.Location][]*models.LocationReading
	stations   map[string]*models.StationReading
	profiles   map[string]*models.UserProfile
	appendErr  error
	stationErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		series:   make(map[models.Location][]*models.LocationReading),
		stations: make(map[string]*models.StationReading),
		profiles: make(map[string]*models.UserProfile),
	}
}

func (f *fakeRepository) AppendReading(_ context.Context, loc models.Location, r models.Reading) (*models.LocationReading, error) {
	if !loc.Valid() {
		return nil, models.ErrInvalidLocation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextID++
	row := &models.LocationReading{ID: f.nextID, RecordedAt: time.Now().UTC(), Reading: r}
	f.series[loc] = append(f.series[loc], row)
	return row, nil
}

func (f *fakeRepository) LatestReading(_ context.Context, loc models.Location) (*models.LocationReading, error) {
	if !loc.Valid() {
		return nil, models.ErrInvalidLocation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.series[loc]
	if len(rows) == 0 {
		return nil, &repository.NotFoundError{Resource: "reading", ID: loc.String()}
	}
	return rows[len(rows)-1], nil
}

func (f *fakeRepository) ReadingHistory(_ context.Context, loc models.Location, w models.TimeWindow) ([]*models.LocationReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	start, end := w.Bounds()
	out := []*models.LocationReading{}
	for _, r := range f.series[loc] {
		if r.ReadingTime >= start && r.ReadingTime <= end {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRepository) RecentReadings(_ context.Context, loc models.Location, limit int) ([]*models.LocationReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.series[loc]
	out := []*models.LocationReading{}
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

func (f *fakeRepository) UpsertStationSnapshot(_ context.Context, s *models.StationReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stationErr != nil {
		return f.stationErr
	}
	cp := *s
	f.stations[s.StationID] = &cp
	return nil
}

func (f *fakeRepository) ListStationSnapshots(context.Context) ([]*models.StationReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.StationReading{}
	for _, s := range f.stations {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeRepository) UpsertUserProfile(_ context.Context, p *models.UserProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := f.profiles[p.UserID]; ok {
		p.CreatedAt = prev.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeRepository) GetUserProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, &repository.NotFoundError{Resource: "user_profile", ID: userID}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRepository) Stats(context.Context) (*models.DatabaseStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.DatabaseStats{LocationRecords: make(map[models.Location]int)}
	for _, loc := range models.Locations() {
		stats.LocationRecords[loc] = len(f.series[loc])
	}
	stats.StationRecords = len(f.stations)
	stats.UserProfiles = len(f.profiles)
	return stats, nil
}

func (f *fakeRepository) Purge(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.series = make(map[models.Location][]*models.LocationReading)
	f.stations = make(map[string]*models.StationReading)
	f.profiles = make(map[string]*models.UserProfile)
	return nil
}

func (f *fakeRepository) HealthCheck(context.Context) error {
	return nil
}

func (f *fakeRepository) count(loc models.Location) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.series[loc])
}
