// Package generator fabricates synthetic air quality readings. It has no
// external dependencies and never touches storage.
package generator

import (
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"airwatch-platform/internal/models"
)

const (
	CityLabel     = "New York City, NY"
	CityLatitude  = 40.7128
	CityLongitude = -74.0060

	primaryPollutant = "PM2.5"
)

// Range is an inclusive sampling interval
type Range struct {
	Min float64
	Max float64
}

// Ranges holds the sampling interval of every field
type Ranges struct {
	AQIMin      int
	AQIMax      int
	PM25        Range
	PM10        Range
	O3          Range
	NO2         Range
	SO2         Range
	CO          Range
	Temperature Range
	Humidity    Range
}

// DefaultRanges are plausible values for a New York City day
var DefaultRanges = Ranges{
	AQIMin:      40,
	AQIMax:      120,
	PM25:        Range{10, 30},
	PM10:        Range{15, 40},
	O3:          Range{20, 60},
	NO2:         Range{10, 35},
	SO2:         Range{5, 15},
	CO:          Range{0.5, 2.0},
	Temperature: Range{15, 25},
	Humidity:    Range{50, 80},
}

// Generator produces readings from a random source. It is safe for
// concurrent use.
type Generator struct {
	mu     sync.Mutex
	rng    *rand.Rand
	now    func() time.Time
	ranges Ranges
}

// Option customises a Generator
type Option func(*Generator)

// WithSource makes sampling deterministic
func WithSource(src rand.Source) Option {
	return func(g *Generator) { g.rng = rand.New(src) }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRanges overrides the sampling intervals
func WithRanges(r Ranges) Option {
	return func(g *Generator) { g.ranges = r }
}

// New creates a generator seeded from the runtime's random source
func New(opts ...Option) *Generator {
	g := &Generator{
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:    time.Now,
		ranges: DefaultRanges,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Current generates a city-level reading
func (g *Generator) Current() models.CityReading {
	lat, lon := CityLatitude, CityLongitude

	r := g.sample()
	r.Latitude = &lat
	r.Longitude = &lon

	return models.CityReading{
		Location: CityLabel,
		Reading:  r,
	}
}

// ForStation generates a reading at the station's coordinates
func (g *Generator) ForStation(station models.Station) models.StationReading {
	lat, lon := station.Latitude, station.Longitude

	r := g.sample()
	r.Latitude = &lat
	r.Longitude = &lon

	return models.StationReading{
		StationID: station.ID,
		Location:  station.Name,
		Reading:   r,
	}
}

// AllStations generates one reading per monitoring station
func (g *Generator) AllStations() []models.StationReading {
	stations := models.Stations()
	out := make([]models.StationReading, 0, len(stations))
	for _, s := range stations {
		out = append(out, g.ForStation(s))
	}
	return out
}

// HistorySeq yields n hourly points, oldest first, ending at the current
// hour. Each iteration draws a fresh sample.
func (g *Generator) HistorySeq(n int) iter.Seq[models.HistoryPoint] {
	return func(yield func(models.HistoryPoint) bool) {
		now := g.now()
		for i := n - 1; i >= 0; i-- {
			point := models.HistoryPoint{
				Time: now.Add(-time.Duration(i) * time.Hour).Format("15:04"),
				AQI:  g.aqi(),
			}
			if !yield(point) {
				return
			}
		}
	}
}

// History materialises HistorySeq
func (g *Generator) History(n int) []models.HistoryPoint {
	if n <= 0 {
		return []models.HistoryPoint{}
	}
	return slices.Collect(g.HistorySeq(n))
}

func (g *Generator) sample() models.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	aqi := g.intn(g.ranges.AQIMin, g.ranges.AQIMax)

	return models.Reading{
		AQIValue:         aqi,
		AQICategory:      models.CategoryFor(aqi),
		PrimaryPollutant: primaryPollutant,
		PM25:             g.uniform(g.ranges.PM25),
		PM10:             g.uniform(g.ranges.PM10),
		O3:               g.uniform(g.ranges.O3),
		NO2:              g.uniform(g.ranges.NO2),
		SO2:              g.uniform(g.ranges.SO2),
		CO:               g.uniform(g.ranges.CO),
		Temperature:      g.uniform(g.ranges.Temperature),
		Humidity:         g.uniform(g.ranges.Humidity),
		ReadingTime:      models.FormatReadingTime(g.now()),
		DataSource:       models.DefaultDataSource,
	}
}

func (g *Generator) aqi() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.intn(g.ranges.AQIMin, g.ranges.AQIMax)
}

// intn draws from [lo, hi]; callers hold g.mu
func (g *Generator) intn(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

// uniform draws from r rounded to one decimal; callers hold g.mu
func (g *Generator) uniform(r Range) float64 {
	v := r.Min + g.rng.Float64()*(r.Max-r.Min)
	return math.Round(v*10) / 10
}
