package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCompactDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"plain", "20250901", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{"float artifact", "20250901.0", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{"padded", " 20250901 ", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), true},
		{"letters", "abc", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"too short", "2025091", time.Time{}, false},
		{"impossible day", "20250231", time.Time{}, false},
		{"nan token", "nan", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompactDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, "MON", Weekday(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "SUN", Weekday(time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC)))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"0705", "07:05:00", true},
		{"705", "07:05:00", true},
		{"0705.0", "07:05:00", true},
		{"07:05", "07:05:00", true},
		{"07:05:30", "07:05:30", true},
		{"2460", "", false},
		{"7:5x", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseClock(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestCoerceInt(t *testing.T) {
	tests := map[string]int{
		"50000":   50000,
		"50000.0": 50000,
		"1,200":   1200,
		" 42 ":    42,
		"":        0,
		"None":    0,
		"abc":     0,
		"-300":    0,
		"NaN":     0,
	}

	for input, want := range tests {
		assert.Equal(t, want, CoerceInt(input), "input %q", input)
	}
}

func TestCleanString(t *testing.T) {
	assert.Equal(t, "", CleanString(" nan "))
	assert.Equal(t, "", CleanString("None"))
	assert.Equal(t, "", CleanString("NaT"))
	assert.Equal(t, "부산", CleanString(" 부산 "))
}
