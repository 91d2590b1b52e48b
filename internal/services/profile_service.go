package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

const (
	baseAQIThreshold  = 100
	minAQIThreshold   = 25
	conditionPenalty  = 25
	currentSmoker     = 15
	formerSmoker      = 5
	agePenalty        = 15
	seniorAge         = 65
	childAge          = 12
	lowRiskThreshold  = 90
	moderateThreshold = 60
)

const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// respiratoryConditions lower the recommended AQI threshold
var respiratoryConditions = map[string]bool{
	"asthma":        true,
	"copd":          true,
	"bronchitis":    true,
	"emphysema":     true,
	"heart_disease": true,
	"lung_disease":  true,
}

// ProfileSummary echoes the inputs of a risk assessment
type ProfileSummary struct {
	Age              *int                    `json:"age"`
	SmokingStatus    *string                 `json:"smoking_status"`
	HealthConditions models.HealthConditions `json:"health_conditions"`
}

// HealthRisk is a deterministic assessment of a user's sensitivity to poor air
type HealthRisk struct {
	UserID                  string         `json:"user_id"`
	RiskLevel               string         `json:"risk_level"`
	RecommendedAQIThreshold int            `json:"recommended_aqi_threshold"`
	ProfileSummary          ProfileSummary `json:"profile_summary"`
}

// ProfileService manages user health profiles
type ProfileService struct {
	repo     repository.AirQualityRepository
	validate *validator.Validate
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewProfileService creates a new profile service
func NewProfileService(repo repository.AirQualityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ProfileService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &ProfileService{
		repo:     repo,
		validate: v,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// SaveProfile validates and upserts a profile
func (s *ProfileService) SaveProfile(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	profile.UserID = strings.TrimSpace(profile.UserID)
	if err := s.validate.Struct(profile); err != nil {
		return nil, toValidationError(err)
	}

	if err := s.repo.UpsertUserProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[PROFILE_SAVED] User profile saved", logging.Fields{
		"user_id":    profile.UserID,
		"conditions": len(profile.HealthConditions),
	})

	return profile, nil
}

// GetProfile returns the stored profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repo.GetUserProfile(ctx, userID)
}

// AssessHealthRisk scores the stored profile
func (s *ProfileService) AssessHealthRisk(ctx context.Context, userID string) (*HealthRisk, error) {
	profile, err := s.repo.GetUserProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return AssessProfile(profile), nil
}

// AssessProfile derives the recommended AQI threshold and risk level
func AssessProfile(p *models.UserProfile) *HealthRisk {
	threshold := baseAQIThreshold

	for _, c := range p.HealthConditions {
		if respiratoryConditions[strings.ToLower(strings.TrimSpace(c))] {
			threshold -= conditionPenalty
		}
	}

	if p.SmokingStatus != nil {
		switch *p.SmokingStatus {
		case "current":
			threshold -= currentSmoker
		case "former":
			threshold -= formerSmoker
		}
	}

	if p.Age != nil && (*p.Age >= seniorAge || *p.Age < childAge) {
		threshold -= agePenalty
	}

	if threshold < minAQIThreshold {
		threshold = minAQIThreshold
	}

	level := RiskHigh
	switch {
	case threshold >= lowRiskThreshold:
		level = RiskLow
	case threshold >= moderateThreshold:
		level = RiskModerate
	}

	conditions := p.HealthConditions
	if conditions == nil {
		conditions = models.HealthConditions{}
	}

	return &HealthRisk{
		UserID:                  p.UserID,
		RiskLevel:               level,
		RecommendedAQIThreshold: threshold,
		ProfileSummary: ProfileSummary{
			Age:              p.Age,
			SmokingStatus:    p.SmokingStatus,
			HealthConditions: conditions,
		},
	}
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ValidationError{Message: err.Error()}
	}

	fe := fieldErrs[0]
	msg := fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte", "lte":
		msg = fmt.Sprintf("%s must be between 0 and 130", fe.Field())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}

	return &models.ValidationError{
		Field:   fe.Field(),
		Value:   fmt.Sprint(fe.Value()),
		Message: msg,
	}
}
