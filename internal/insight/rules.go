package insight

import (
	"context"
	"fmt"
	"strings"

	"airwatch-platform/internal/models"
)

const maxRuleLines = 3

var categoryAdvice = map[models.AQICategory]string{
	models.AQIGood:               "Air quality is excellent in %s - perfect for outdoor activities!",
	models.AQIModerate:           "Air quality is acceptable in %s - most activities are safe",
	models.AQIUnhealthySensitive: "Air quality may affect sensitive groups in %s - limit outdoor time",
	models.AQIUnhealthy:          "Air quality is unhealthy in %s - stay indoors when possible",
	models.AQIVeryUnhealthy:      "Air quality is very unhealthy in %s - stay indoors",
	models.AQIHazardous:          "Hazardous air quality in %s - stay indoors immediately",
}

var pollutantAdvice = map[string]string{
	"PM2.5": "Fine particles are the main concern - avoid outdoor exercise",
	"O3":    "Ozone levels are elevated - avoid outdoor activities during peak hours",
	"NO2":   "Nitrogen dioxide from traffic - avoid busy roads",
}

// RuleGenerator derives advice from a fixed threshold table. It is
// deterministic and never fails.
type RuleGenerator struct{}

func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

func (g *RuleGenerator) Name() string {
	return "rules"
}

func (g *RuleGenerator) Generate(_ context.Context, place string, r models.Reading) (Insight, error) {
	return Insight{
		Text:   strings.Join(g.Lines(place, r), "\n"),
		Source: g.Name(),
	}, nil
}

// Lines returns at most three advice lines, most general first
func (g *RuleGenerator) Lines(place string, r models.Reading) []string {
	category := r.AQICategory
	if !category.Valid() {
		category = models.CategoryFor(r.AQIValue)
	}

	lines := []string{fmt.Sprintf(categoryAdvice[category], place)}

	switch {
	case r.CO > 2.0:
		lines = append(lines, "High CO levels detected - check for nearby fires or gas leaks")
	case r.CO > 1.0:
		lines = append(lines, "Elevated CO levels - avoid areas with heavy traffic")
	}

	switch {
	case r.PM25 > 25:
		lines = append(lines, "High PM2.5 levels - consider wearing a mask outdoors")
	case r.PM25 > 15:
		lines = append(lines, "Moderate PM2.5 levels - sensitive individuals should take precautions")
	}

	switch {
	case r.Temperature > 30:
		lines = append(lines, "Hot weather combined with air pollution - stay hydrated and limit outdoor time")
	case r.Temperature < 5:
		lines = append(lines, "Cold weather may trap pollutants - check indoor air quality")
	}

	if advice, ok := pollutantAdvice[r.PrimaryPollutant]; ok {
		lines = append(lines, advice)
	}

	if len(lines) > maxRuleLines {
		lines = lines[:maxRuleLines]
	}
	return lines
}
