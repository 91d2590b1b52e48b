package models

import (
	"testing"
	"time"
)

func TestReading_Validate(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		wantErr bool
	}{
		{
			name:    "consistent category",
			reading: Reading{AQIValue: 50, AQICategory: AQIGood, ReadingTime: "2025-09-15T10:00:00Z"},
		},
		{
			name:    "category mismatch",
			reading: Reading{AQIValue: 51, AQICategory: AQIGood, ReadingTime: "2025-09-15T10:00:00Z"},
			wantErr: true,
		},
		{
			name:    "bad reading time",
			reading: Reading{AQIValue: 301, AQICategory: AQIHazardous, ReadingTime: "2025-09-15 10:00:00"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.reading.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestReading_Source(t *testing.T) {
	r := Reading{}
	if r.Source() != DefaultDataSource {
		t.Errorf("Source() = %q, want %q", r.Source(), DefaultDataSource)
	}
	r.DataSource = "populate"
	if r.Source() != "populate" {
		t.Errorf("Source() = %q, want populate", r.Source())
	}
}

func TestLastHours(t *testing.T) {
	now := time.Date(2025, 9, 15, 12, 30, 0, 0, time.UTC)
	w := LastHours(now, 24)

	start, end := w.Bounds()
	if start != "2025-09-14T12:30:00Z" {
		t.Errorf("start = %s", start)
	}
	if end != "2025-09-15T12:30:00Z" {
		t.Errorf("end = %s", end)
	}
	if w.Empty() {
		t.Error("window should not be empty")
	}

	inverted := TimeWindow{Start: now, End: now.Add(-time.Minute)}
	if !inverted.Empty() {
		t.Error("inverted window should be empty")
	}
}

func TestTimeWindow_BoundsStayInsideFractionalWindow(t *testing.T) {
	w := TimeWindow{
		Start: time.Date(2025, 9, 15, 12, 0, 0, 500_000_000, time.UTC),
		End:   time.Date(2025, 9, 15, 13, 0, 0, 750_000_000, time.UTC),
	}

	start, end := w.Bounds()
	if start != "2025-09-15T12:00:01Z" {
		t.Errorf("start = %s, want the next whole second", start)
	}
	if end != "2025-09-15T13:00:00Z" {
		t.Errorf("end = %s, want the whole second below", end)
	}
}

func TestFormatReadingTime_ConvertsToUTC(t *testing.T) {
	ny := time.FixedZone("EDT", -4*60*60)
	got := FormatReadingTime(time.Date(2025, 9, 15, 8, 0, 0, 0, ny))
	if got != "2025-09-15T12:00:00Z" {
		t.Errorf("FormatReadingTime = %s", got)
	}
}
