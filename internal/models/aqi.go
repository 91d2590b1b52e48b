package models

// AQICategory is the qualitative band an AQI value falls into
type AQICategory string

const (
	AQIGood               AQICategory = "good"
	AQIModerate           AQICategory = "moderate"
	AQIUnhealthySensitive AQICategory = "unhealthy_sensitive"
	AQIUnhealthy          AQICategory = "unhealthy"
	AQIVeryUnhealthy      AQICategory = "very_unhealthy"
	AQIHazardous          AQICategory = "hazardous"
)

// aqiBands holds the inclusive upper bound of each category, in ascending order.
// Anything above the last bound is hazardous.
var aqiBands = []struct {
	upper    int
	category AQICategory
}{
	{50, AQIGood},
	{100, AQIModerate},
	{150, AQIUnhealthySensitive},
	{200, AQIUnhealthy},
	{300, AQIVeryUnhealthy},
}

// CategoryFor maps an AQI value to its category
func CategoryFor(aqi int) AQICategory {
	for _, band := range aqiBands {
		if aqi <= band.upper {
			return band.category
		}
	}
	return AQIHazardous
}

// AQICategories returns every category from best to worst
func AQICategories() []AQICategory {
	return []AQICategory{
		AQIGood,
		AQIModerate,
		AQIUnhealthySensitive,
		AQIUnhealthy,
		AQIVeryUnhealthy,
		AQIHazardous,
	}
}

// Valid reports whether c is one of the known categories
func (c AQICategory) Valid() bool {
	for _, known := range AQICategories() {
		if c == known {
			return true
		}
	}
	return false
}
