package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
)

var (
	compactDateRe  = regexp.MustCompile(`^\d{8}$`)
	compactClockRe = regexp.MustCompile(`^\d{1,4}$`)
	floatSuffixRe  = regexp.MustCompile(`\.0+$`)
)

// missingTokens collapse to the empty string when cleaning text fields
var missingTokens = map[string]struct{}{
	"nan":  {},
	"NaN":  {},
	"None": {},
	"NaT":  {},
	"null": {},
}

// CleanString trims a value and drops placeholder tokens
func CleanString(value string) string {
	value = strings.TrimSpace(value)
	if _, ok := missingTokens[value]; ok {
		return ""
	}
	return value
}

// ParseCompactDate parses YYYYMMDD. A trailing ".0" left by float conversion is ignored.
// Anything else reports false.
func ParseCompactDate(value string) (time.Time, bool) {
	value = floatSuffixRe.ReplaceAllString(CleanString(value), "")
	if !compactDateRe.MatchString(value) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(entity.CompactDateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseISODate parses YYYY-MM-DD, falling back to YYYYMMDD
func ParseISODate(value string) (time.Time, bool) {
	value = CleanString(value)
	if value == "" {
		return time.Time{}, false
	}
	if len(value) > len(entity.ISODateLayout) {
		value = value[:len(entity.ISODateLayout)]
	}
	if t, err := time.ParseInLocation(entity.ISODateLayout, value, time.UTC); err == nil {
		return t, true
	}
	return ParseCompactDate(value)
}

// Weekday returns the 3-letter uppercase weekday of a date
func Weekday(t time.Time) string {
	return strings.ToUpper(t.Weekday().String()[:3])
}

// ParseCompactClock parses zero-padded HHMM. Short values are left-padded.
func ParseCompactClock(value string) (*entity.Clock, bool) {
	value = floatSuffixRe.ReplaceAllString(CleanString(value), "")
	if !compactClockRe.MatchString(value) {
		return nil, false
	}
	value = strings.Repeat("0", 4-len(value)) + value
	hour, _ := strconv.Atoi(value[:2])
	minute, _ := strconv.Atoi(value[2:])
	if hour > 23 || minute > 59 {
		return nil, false
	}
	return &entity.Clock{Hour: hour, Minute: minute}, true
}

// ParseClock accepts HH:MM:SS, HH:MM or HHMM, tried in that order
func ParseClock(value string) (*entity.Clock, bool) {
	value = CleanString(value)
	if value == "" {
		return nil, false
	}
	for _, layout := range []string{entity.ClockLayout, "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &entity.Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, true
		}
	}
	return ParseCompactClock(value)
}

// CoerceInt parses a number leniently. Blank, invalid and negative values become 0.
func CoerceInt(value string) int {
	value = strings.ReplaceAll(CleanString(value), ",", "")
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
