package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airwatch-platform/internal/models"
	"airwatch-platform/internal/repository"
	"airwatch-platform/pkg/logging"
	"airwatch-platform/pkg/metrics"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func newTestProfileService() (*ProfileService, *fakeRepository) {
	repo := newFakeRepository()
	collector := metrics.NewCollectorWithRegisterer("airwatch_test", prometheus.NewRegistry())
	return NewProfileService(repo, logging.Discard(), collector), repo
}

func TestSaveProfile_Validation(t *testing.T) {
	tests := []struct {
		name      string
		profile   models.UserProfile
		wantField string
	}{
		{"missing user id", models.UserProfile{}, "user_id"},
		{"blank user id", models.UserProfile{UserID: "   "}, "user_id"},
		{"negative age", models.UserProfile{UserID: "u", Age: intPtr(-1)}, "age"},
		{"age too high", models.UserProfile{UserID: "u", Age: intPtr(131)}, "age"},
		{"unknown sex", models.UserProfile{UserID: "u", Sex: strPtr("robot")}, "sex"},
		{"unknown smoking status", models.UserProfile{UserID: "u", SmokingStatus: strPtr("sometimes")}, "smoking_status"},
		{"empty condition", models.UserProfile{UserID: "u", HealthConditions: models.HealthConditions{"asthma", ""}}, "health_conditions[1]"},
	}

	svc, repo := newTestProfileService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			_, err := svc.SaveProfile(context.Background(), &p)

			var ve *models.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.NotEmpty(t, ve.Message)
		})
	}

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.UserProfiles)
}

func TestSaveAndGetProfile(t *testing.T) {
	svc, _ := newTestProfileService()
	ctx := context.Background()

	saved, err := svc.SaveProfile(ctx, &models.UserProfile{
		UserID:           " user-1 ",
		Age:              intPtr(0),
		Sex:              strPtr("other"),
		SmokingStatus:    strPtr("never"),
		HealthConditions: models.HealthConditions{"asthma"},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", saved.UserID)
	assert.False(t, saved.CreatedAt.IsZero())

	got, err := svc.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, *got.Age)
	assert.Equal(t, models.HealthConditions{"asthma"}, got.HealthConditions)

	_, err = svc.GetProfile(ctx, "user-2")
	var nf *repository.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAssessProfile(t *testing.T) {
	tests := []struct {
		name          string
		profile       models.UserProfile
		wantThreshold int
		wantLevel     string
	}{
		{"healthy adult", models.UserProfile{Age: intPtr(30), SmokingStatus: strPtr("never")}, 100, RiskLow},
		{"empty profile", models.UserProfile{}, 100, RiskLow},
		{"former smoker", models.UserProfile{SmokingStatus: strPtr("former")}, 95, RiskLow},
		{"asthma", models.UserProfile{HealthConditions: models.HealthConditions{"asthma"}}, 75, RiskModerate},
		{"condition case insensitive", models.UserProfile{HealthConditions: models.HealthConditions{" COPD "}}, 75, RiskModerate},
		{"unrelated condition ignored", models.UserProfile{HealthConditions: models.HealthConditions{"diabetes"}}, 100, RiskLow},
		{"current smoker senior", models.UserProfile{Age: intPtr(70), SmokingStatus: strPtr("current")}, 70, RiskModerate},
		{"child", models.UserProfile{Age: intPtr(8)}, 85, RiskModerate},
		{"age boundary 12", models.UserProfile{Age: intPtr(12)}, 100, RiskLow},
		{"age boundary 65", models.UserProfile{Age: intPtr(65)}, 85, RiskModerate},
		{"exactly moderate", models.UserProfile{Age: intPtr(70), HealthConditions: models.HealthConditions{"bronchitis"}}, 60, RiskModerate},
		{"high", models.UserProfile{HealthConditions: models.HealthConditions{"asthma", "heart_disease"}}, 50, RiskHigh},
		{
			"floored",
			models.UserProfile{
				Age:              intPtr(80),
				SmokingStatus:    strPtr("current"),
				HealthConditions: models.HealthConditions{"asthma", "copd", "emphysema"},
			},
			25,
			RiskHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := AssessProfile(&tt.profile)
			assert.Equal(t, tt.wantThreshold, risk.RecommendedAQIThreshold)
			assert.Equal(t, tt.wantLevel, risk.RiskLevel)
			assert.NotNil(t, risk.ProfileSummary.HealthConditions)
		})
	}
}

func TestAssessHealthRisk(t *testing.T) {
	svc, _ := newTestProfileService()
	ctx := context.Background()

	_, err := svc.AssessHealthRisk(ctx, "ghost")
	var nf *repository.NotFoundError
	require.ErrorAs(t, err, &nf)

	_, err = svc.SaveProfile(ctx, &models.UserProfile{
		UserID:           "u9",
		Age:              intPtr(40),
		HealthConditions: models.HealthConditions{"asthma"},
	})
	require.NoError(t, err)

	risk, err := svc.AssessHealthRisk(ctx, "u9")
	require.NoError(t, err)
	assert.Equal(t, "u9", risk.UserID)
	assert.Equal(t, RiskModerate, risk.RiskLevel)
	assert.Equal(t, 75, risk.RecommendedAQIThreshold)
	assert.Equal(t, 40, *risk.ProfileSummary.Age)
}
