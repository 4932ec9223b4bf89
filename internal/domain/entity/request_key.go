package entity

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts shared by the storage layout, the flat file and the sink
const (
	CompactDateLayout = "20060102"
	ISODateLayout     = "2006-01-02"
	ClockLayout       = "15:04:05"
)

// Passengers is the passenger mix sent with every search
type Passengers struct {
	Adults   int
	Children int
	Infants  int
}

// RequestKey identifies one portal search
type RequestKey struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	AgencyCode    string
	SeatClass     string
	Passengers    Passengers
}

// CompactDate returns the departure date as YYYYMMDD
func (k RequestKey) CompactDate() string {
	if k.DepartureDate.IsZero() {
		return ""
	}
	return k.DepartureDate.Format(CompactDateLayout)
}

func (k RequestKey) String() string {
	return fmt.Sprintf("%s-%s %s %s", k.Origin, k.Destination, k.CompactDate(), k.AgencyCode)
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYYMMDD dates. Start must not be after end.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.ParseInLocation(CompactDateLayout, strings.TrimSpace(start), time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidDateRange, start, err)
	}
	e, err := time.ParseInLocation(CompactDateLayout, strings.TrimSpace(end), time.UTC)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end date %q: %v", ErrInvalidDateRange, end, err)
	}
	if s.After(e) {
		return DateRange{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidDateRange, start, end)
	}
	return DateRange{Start: s, End: e}, nil
}

// Days lists every date of the range in order
func (r DateRange) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r DateRange) String() string {
	return r.Start.Format(CompactDateLayout) + "-" + r.End.Format(CompactDateLayout)
}
