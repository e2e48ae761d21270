package sky

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func day(sunrise, sunset string) Daylight {
	rise, _ := time.Parse(time.RFC3339, sunrise)
	set, _ := time.Parse(time.RFC3339, sunset)
	return Daylight{Sunrise: rise, Sunset: set}
}

func TestDaylightHours(t *testing.T) {
	d := day("2024-06-21T05:30:00Z", "2024-06-21T20:45:00Z")
	if got := DaylightHours(d); math.Abs(got-15.25) > epsilon {
		t.Errorf("DaylightHours() = %v, want 15.25", got)
	}

	// Swapped fields still give a positive span.
	swapped := Daylight{Sunrise: d.Sunset, Sunset: d.Sunrise}
	if got := DaylightHours(swapped); math.Abs(got-15.25) > epsilon {
		t.Errorf("DaylightHours(swapped) = %v, want 15.25", got)
	}
}

func TestDaylightHoursPositiveForValidSnapshots(t *testing.T) {
	base := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)
	for minutes := 1; minutes < 24*60; minutes += 37 {
		d := Daylight{Sunrise: base, Sunset: base.Add(time.Duration(minutes) * time.Minute)}
		if got := DaylightHours(d); got <= 0 {
			t.Fatalf("DaylightHours() = %v for %d minutes of daylight", got, minutes)
		}
	}
}

func TestSpentHours(t *testing.T) {
	d := day("2024-03-20T06:00:00Z", "2024-03-20T18:00:00Z")

	tests := []struct {
		name string
		now  string
		want float64
	}{
		{"at sunrise", "2024-03-20T06:00:00Z", 0},
		{"midday", "2024-03-20T12:00:00Z", 6},
		{"after sunset", "2024-03-20T20:00:00Z", 14},
		{"before sunrise", "2024-03-20T04:00:00Z", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, _ := time.Parse(time.RFC3339, tt.now)
			if got := SpentHours(d, now); math.Abs(got-tt.want) > epsilon {
				t.Errorf("SpentHours() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSunOffset(t *testing.T) {
	d := day("2024-03-20T06:00:00Z", "2024-03-20T18:00:00Z")

	tests := []struct {
		name string
		now  string
		want float64
	}{
		{"at sunrise", "2024-03-20T06:00:00Z", 0},
		{"before sunrise", "2024-03-20T05:00:00Z", 0},
		{"quarter", "2024-03-20T09:00:00Z", math.Pi / 4},
		{"midday", "2024-03-20T12:00:00Z", math.Pi / 2},
		{"at sunset", "2024-03-20T18:00:00Z", math.Pi},
		{"after sunset", "2024-03-20T18:00:01Z", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now, _ := time.Parse(time.RFC3339, tt.now)
			if got := SunOffset(d, now); math.Abs(got-tt.want) > epsilon {
				t.Errorf("SunOffset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSunOffsetWithinHalfTurn(t *testing.T) {
	d := day("2024-12-21T08:04:00Z", "2024-12-21T15:53:00Z")
	for now := d.Sunrise.Add(time.Second); !now.After(d.Sunset); now = now.Add(7 * time.Minute) {
		got := SunOffset(d, now)
		if got < 0 || got > math.Pi {
			t.Fatalf("SunOffset(%s) = %v, outside [0, π]", now, got)
		}
	}
}

func TestSunOffsetZeroDaylight(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d := Daylight{Sunrise: at, Sunset: at}

	got := SunOffset(d, at.Add(time.Hour))
	if got != 0 || math.IsNaN(got) {
		t.Errorf("SunOffset() with zero daylight = %v, want 0", got)
	}
	if got := SeasonalYShift(d, 100); got != 0 {
		t.Errorf("SeasonalYShift() with zero daylight = %v, want 0", got)
	}
}

func TestSeasonalYShiftZeroAtEquinox(t *testing.T) {
	d := day("2024-03-20T06:00:00Z", "2024-03-20T18:00:00Z")
	for _, radius := range []float64{0.5, 1, 36, 240.7, 1e6} {
		if got := SeasonalYShift(d, radius); got != 0 {
			t.Errorf("SeasonalYShift(radius=%v) = %v, want exactly 0", radius, got)
		}
	}
}

func TestSeasonalYShift(t *testing.T) {
	radius := 100.0

	summer := day("2024-06-21T04:00:00Z", "2024-06-21T22:00:00Z") // 18h
	// ratio 0.25 -> deltaAngle π/4 -> 2r·sin(π/8)
	want := 2 * radius * math.Sin(math.Pi/8)
	if got := SeasonalYShift(summer, radius); math.Abs(got-want) > epsilon {
		t.Errorf("SeasonalYShift(summer) = %v, want %v", got, want)
	}

	winter := day("2024-12-21T09:00:00Z", "2024-12-21T15:00:00Z") // 6h
	if got := SeasonalYShift(winter, radius); math.Abs(got+want) > epsilon {
		t.Errorf("SeasonalYShift(winter) = %v, want %v", got, -want)
	}

	if got := SeasonalYShift(summer, 0); got != 0 {
		t.Errorf("SeasonalYShift(radius=0) = %v, want 0", got)
	}
}

func TestNearestClockHour(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"on the hour", time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC), time.Hour},
		{"last millisecond", time.Date(2024, 5, 1, 14, 59, 59, int(999*time.Millisecond), time.UTC), time.Millisecond},
		{"half past", time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC), 30 * time.Minute},
		{"sub-millisecond ignored", time.Date(2024, 5, 1, 14, 0, 0, 500, time.UTC), time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearestClockHour(tt.now); got != tt.want {
				t.Errorf("NearestClockHour() = %v, want %v", got, tt.want)
			}
		})
	}
}
