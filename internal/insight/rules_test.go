package insight

import (
	"context"
	"strings"
	"testing"

	"airwatch-platform/internal/models"
)

func reading(aqi int, pollutant string, co, pm25, temp float64) models.Reading {
	return models.Reading{
		AQIValue:         aqi,
		AQICategory:      models.CategoryFor(aqi),
		PrimaryPollutant: pollutant,
		CO:               co,
		PM25:             pm25,
		Temperature:      temp,
	}
}

func TestRuleGenerator_Lines(t *testing.T) {
	tests := []struct {
		name    string
		reading models.Reading
		want    []string
	}{
		{
			name:    "clean day",
			reading: reading(30, "PM2.5", 0.5, 10, 20),
			want: []string{
				"Air quality is excellent in your home area - perfect for outdoor activities!",
				"Fine particles are the main concern - avoid outdoor exercise",
			},
		},
		{
			name:    "moderate with traffic CO and sensitive PM",
			reading: reading(80, "PM2.5", 1.5, 18, 20),
			want: []string{
				"Air quality is acceptable in your home area - most activities are safe",
				"Elevated CO levels - avoid areas with heavy traffic",
				"Moderate PM2.5 levels - sensitive individuals should take precautions",
			},
		},
		{
			name:    "high CO and mask worthy PM truncated to three",
			reading: reading(160, "O3", 2.5, 28, 35),
			want: []string{
				"Air quality is unhealthy in your home area - stay indoors when possible",
				"High CO levels detected - check for nearby fires or gas leaks",
				"High PM2.5 levels - consider wearing a mask outdoors",
			},
		},
		{
			name:    "cold weather and ozone",
			reading: reading(120, "O3", 0.2, 5, 2),
			want: []string{
				"Air quality may affect sensitive groups in your home area - limit outdoor time",
				"Cold weather may trap pollutants - check indoor air quality",
				"Ozone levels are elevated - avoid outdoor activities during peak hours",
			},
		},
		{
			name:    "hot weather and nitrogen dioxide",
			reading: reading(250, "NO2", 0.2, 5, 33),
			want: []string{
				"Air quality is very unhealthy in your home area - stay indoors",
				"Hot weather combined with air pollution - stay hydrated and limit outdoor time",
				"Nitrogen dioxide from traffic - avoid busy roads",
			},
		},
		{
			name:    "hazardous unknown pollutant",
			reading: reading(420, "SO2", 0.2, 5, 20),
			want: []string{
				"Hazardous air quality in your home area - stay indoors immediately",
			},
		},
		{
			name:    "boundaries are exclusive",
			reading: reading(50, "", 2.0, 25, 30),
			want: []string{
				"Air quality is excellent in your home area - perfect for outdoor activities!",
				"Elevated CO levels - avoid areas with heavy traffic",
				"Moderate PM2.5 levels - sensitive individuals should take precautions",
			},
		},
	}

	g := NewRuleGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Lines("your home area", tt.reading)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d lines %q, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRuleGenerator_Generate(t *testing.T) {
	g := NewRuleGenerator()
	out, err := g.Generate(context.Background(), "your work area", reading(80, "PM2.5", 1.5, 18, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Source != "rules" {
		t.Errorf("source = %q", out.Source)
	}
	if n := strings.Count(out.Text, "\n"); n != 2 {
		t.Errorf("expected three newline-joined lines, got %q", out.Text)
	}
	if !strings.Contains(out.Text, "your work area") {
		t.Errorf("place missing from %q", out.Text)
	}
}

func TestRuleGenerator_DerivesMissingCategory(t *testing.T) {
	r := reading(180, "", 0, 0, 20)
	r.AQICategory = ""
	lines := NewRuleGenerator().Lines("your studio area", r)
	if lines[0] != "Air quality is unhealthy in your studio area - stay indoors when possible" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}
