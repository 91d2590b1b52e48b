package models

import "testing"

// TestCategoryFor covers every band boundary of the AQI threshold table
func TestCategoryFor(t *testing.T) {
	tests := []struct {
		aqi  int
		want AQICategory
	}{
		{0, AQIGood},
		{50, AQIGood},
		{51, AQIModerate},
		{100, AQIModerate},
		{101, AQIUnhealthySensitive},
		{150, AQIUnhealthySensitive},
		{151, AQIUnhealthy},
		{200, AQIUnhealthy},
		{201, AQIVeryUnhealthy},
		{300, AQIVeryUnhealthy},
		{301, AQIHazardous},
		{500, AQIHazardous},
	}

	for _, tt := range tests {
		if got := CategoryFor(tt.aqi); got != tt.want {
			t.Errorf("CategoryFor(%d) = %v, want %v", tt.aqi, got, tt.want)
		}
	}
}

func TestAQICategory_Valid(t *testing.T) {
	for _, c := range AQICategories() {
		if !c.Valid() {
			t.Errorf("%q should be valid", c)
		}
	}

	if AQICategory("Good").Valid() {
		t.Error("title-cased category should not be valid")
	}
}
