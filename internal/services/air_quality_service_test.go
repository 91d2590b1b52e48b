package services

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch-platform/internal/generator"
	"airwatch-platform/internal/insight"
	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

type stubInsight struct {
	out insight.Insight
	err error
}

func (s *stubInsight) Name() string { return "stub" }

func (s *stubInsight) Generate(_ context.Context, place string, _ models.Reading) (insight.Insight, error) {
	if s.err != nil {
		return insight.Insight{}, s.err
	}
	out := s.out
	out.Text = place + ": " + out.Text
	return out, nil
}

func newTestAirQualityService(t *testing.T, repo repository.AirQualityRepository, ins insight.Generator) (*AirQualityService, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollectorWithRegisterer("airwatch_test", prometheus.NewRegistry())
	gen := generator.New(
		generator.WithSource(rand.NewPCG(7, 11)),
		generator.WithClock(func() time.Time { return time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC) }),
	)
	if ins == nil {
		ins = insight.NewRuleGenerator()
	}
	return NewAirQualityService(repo, gen, ins, logging.Discard(), collector), collector
}

func TestCurrentCity_PersistsToHome(t *testing.T) {
	repo := newFakeRepository()
	svc, collector := newTestAirQualityService(t, repo, nil)

	overview := svc.CurrentCity(context.Background())

	assert.Equal(t, generator.CityLabel, overview.Current.Location)
	assert.Len(t, overview.Historical, 24)
	assert.Equal(t, 1, repo.count(models.LocationHome))
	assert.Equal(t, 0, repo.count(models.LocationWork))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ReadingsPersistedTotal.WithLabelValues("home")))

	latest, err := svc.LatestForLocation(context.Background(), models.LocationHome)
	require.NoError(t, err)
	assert.Equal(t, overview.Current.AQIValue, latest.AQIValue)
}

func TestCurrentCity_StorageFailureStillReturnsReading(t *testing.T) {
	repo := newFakeRepository()
	repo.appendErr = &repository.StorageError{Op: "insert", Table: "home_air_quality", Err: errors.New("disk full")}
	svc, collector := newTestAirQualityService(t, repo, nil)

	overview := svc.CurrentCity(context.Background())

	require.NotNil(t, overview)
	assert.NotZero(t, overview.Current.AQIValue)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.PersistErrorsTotal.WithLabelValues("home")))
}

func TestRefreshStations_FansOutToLocations(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestAirQualityService(t, repo, nil)
	ctx := context.Background()

	readings := svc.RefreshStations(ctx)
	require.Len(t, readings, 5)
	svc.RefreshStations(ctx)

	stats, err := svc.DatabaseStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.StationRecords, "snapshots are replaced, not appended")
	for _, loc := range models.Locations() {
		assert.Equal(t, 2, stats.LocationRecords[loc], loc.String())
	}
}

func TestRefreshStations_SnapshotFailureKeepsGoing(t *testing.T) {
	repo := newFakeRepository()
	repo.stationErr = errors.New("constraint violation")
	svc, collector := newTestAirQualityService(t, repo, nil)

	readings := svc.RefreshStations(context.Background())
	assert.Len(t, readings, 5)
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.PersistErrorsTotal.WithLabelValues("station")))
	assert.Equal(t, 1, repo.count(models.LocationDaycare))
}

func TestStationReading(t *testing.T) {
	svc, _ := newTestAirQualityService(t, newFakeRepository(), nil)

	r, err := svc.StationReading("brooklyn_downtown")
	require.NoError(t, err)
	assert.Equal(t, "Brooklyn Downtown", r.Location)

	_, err = svc.StationReading("nowhere")
	var nf *repository.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestRecordLocationReading(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestAirQualityService(t, repo, nil)
	ctx := context.Background()

	row, err := svc.RecordLocationReading(ctx, models.LocationFootball)
	require.NoError(t, err)
	require.NotNil(t, row.Latitude)
	assert.Equal(t, 40.7794, *row.Latitude)

	_, err = svc.RecordLocationReading(ctx, models.Location{})
	assert.ErrorIs(t, err, models.ErrInvalidLocation)

	repo.appendErr = errors.New("boom")
	_, err = svc.RecordLocationReading(ctx, models.LocationFootball)
	assert.Error(t, err)
}

func TestHistoryForLocation(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestAirQualityService(t, repo, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.RecordLocationReading(ctx, models.LocationWork)
		require.NoError(t, err)
	}

	now := time.Date(2025, 9, 15, 12, 0, 0, 0, time.UTC)
	rows, err := svc.HistoryForLocation(ctx, models.LocationWork, models.LastHours(now, 1))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = svc.HistoryForLocation(ctx, models.LocationWork, models.LastHours(now.Add(-2*time.Hour), 1))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHealthRecommendations(t *testing.T) {
	svc, _ := newTestAirQualityService(t, newFakeRepository(), nil)

	advice := svc.HealthRecommendations()
	assert.Equal(t, models.CategoryFor(advice.AQIValue), advice.AQICategory)
	assert.Equal(t, RecommendationFor(advice.AQICategory), advice.Recommendations)
}

func TestRecommendationFor(t *testing.T) {
	for _, c := range models.AQICategories() {
		rec := RecommendationFor(c)
		assert.NotEmpty(t, rec.Message, c)
		assert.NotEmpty(t, rec.Activities, c)
	}
	assert.Equal(t, RecommendationFor(models.AQIModerate), RecommendationFor("unknown"))
	assert.Len(t, RecommendationFor(models.AQIHazardous).Activities, 3)
}

func TestInsightForLocation(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestAirQualityService(t, repo, &stubInsight{out: insight.Insight{Text: "breathe easy", Source: "stub"}})
	ctx := context.Background()

	_, err := svc.InsightForLocation(ctx, models.LocationStudio)
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)

	stored, err := svc.RecordLocationReading(ctx, models.LocationStudio)
	require.NoError(t, err)

	out, err := svc.InsightForLocation(ctx, models.LocationStudio)
	require.NoError(t, err)
	assert.Equal(t, "bronx_south", out.Location)
	assert.Equal(t, "your studio area: breathe easy", out.Insight)
	assert.Equal(t, "stub", out.Source)
	assert.Equal(t, stored.AQIValue, out.AQIValue)
	assert.Equal(t, stored.ID, out.FullData.ID)
}

func TestPopulate(t *testing.T) {
	repo := newFakeRepository()
	aq, collector := newTestAirQualityService(t, repo, nil)
	svc := NewPopulateService(aq, logging.Discard(), collector)

	result, err := svc.Populate(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Locations)
	assert.Equal(t, 20, result.TotalRecords)
	assert.Equal(t, 20, result.SuccessfulRecords)
	assert.Zero(t, result.FailedRecords)
	for _, loc := range models.Locations() {
		assert.Equal(t, 4, repo.count(loc))
	}

	_, err = svc.Populate(context.Background(), 0)
	assert.Error(t, err)

	repo.appendErr = errors.New("read-only")
	result, err = svc.Populate(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, result.FailedRecords)
	assert.Len(t, result.Errors, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.Populate(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
