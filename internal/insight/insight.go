// Package insight turns a reading into short, actionable advice for a place.
package insight

import (
	"context"

	"airwatch-platform/internal/models"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

// Insight is generated advice and the provider that produced it
type Insight struct {
	Text   string `json:"insight"`
	Source string `json:"source"`
}

// Generator produces an insight for a reading observed at place, where
// place is a user-facing name such as "your home area"
type Generator interface {
	Name() string
	Generate(ctx context.Context, place string, reading models.Reading) (Insight, error)
}

// FallbackGenerator asks the primary provider first and falls back to the
// secondary on any failure. A nil primary goes straight to the secondary.
type FallbackGenerator struct {
	primary   Generator
	secondary Generator
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewFallbackGenerator creates a fallback chain
func NewFallbackGenerator(primary, secondary Generator, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *FallbackGenerator {
	return &FallbackGenerator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

func (f *FallbackGenerator) Name() string {
	return "fallback"
}

// Generate never fails when the secondary is the rule table
func (f *FallbackGenerator) Generate(ctx context.Context, place string, reading models.Reading) (Insight, error) {
	if f.primary != nil {
		out, err := f.observe(ctx, f.primary, place, reading)
		if err == nil {
			return out, nil
		}

		f.logger.Warn(ctx, "[INSIGHT_FALLBACK] Primary insight provider failed, using fallback", logging.Fields{
			"provider": f.primary.Name(),
			"fallback": f.secondary.Name(),
			"error":    err.Error(),
		})
	}

	return f.observe(ctx, f.secondary, place, reading)
}

func (f *FallbackGenerator) observe(ctx context.Context, g Generator, place string, reading models.Reading) (Insight, error) {
	timer := f.metrics.NewTimer(f.metrics.InsightDuration.WithLabelValues(g.Name()))
	out, err := g.Generate(ctx, place, reading)
	timer.ObserveDuration()

	if err != nil {
		f.metrics.RecordInsight(g.Name(), "error")
		return Insight{}, err
	}
	f.metrics.RecordInsight(g.Name(), "success")
	return out, nil
}
