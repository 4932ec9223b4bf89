package entity

import (
	"fmt"
	"time"
)

// Clock is a time of day
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// String formats the clock as HH:MM:SS
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// FlightRecord is one normalized fare observation
type FlightRecord struct {
	AgencyCode string
	FlightCode string

	DepartureDate    time.Time
	DepartureWeekday string
	DepartureTime    *Clock
	OriginCode       string
	OriginName       string

	ArrivalDate     *time.Time
	ArrivalWeekday  string
	ArrivalTime     *Clock
	DestinationCode string
	DestinationName string

	MarketingCarrierCode string
	MarketingCarrierName string
	OperatingCarrierCode string
	OperatingCarrierName string
	FlightNumber         string

	SeatClassCode        string
	SeatClassDescription string
	Seats                int

	TotalPrice    int
	Fare          int
	FareOrigin    int
	FuelSurcharge int
	AirportTax    int
	IssuanceFee   int

	ScrapeDate time.Time
	SourceRef  string
}

// NaturalKey identifies one real-world fare observation
type NaturalKey [13]string

// Key builds the natural key from the record as it stands.
// Callers that compare records from different sources should canonicalize first.
func (r FlightRecord) Key() NaturalKey {
	return NaturalKey{
		r.AgencyCode,
		r.FlightCode,
		formatDate(&r.DepartureDate),
		formatClock(r.DepartureTime),
		r.OriginCode,
		formatDate(r.ArrivalDate),
		formatClock(r.ArrivalTime),
		r.DestinationCode,
		r.MarketingCarrierCode,
		r.OperatingCarrierCode,
		r.FlightNumber,
		r.SeatClassCode,
		r.SeatClassDescription,
	}
}

// ComputeTotal returns fare + fuel surcharge + airport tax + issuance fee
func (r FlightRecord) ComputeTotal() int {
	return r.Fare + r.FuelSurcharge + r.AirportTax + r.IssuanceFee
}

// CanonicalColumns is the column order of the flat file and the sink
var CanonicalColumns = []string{
	"agency_code", "code",
	"depDate", "depDay", "depTime", "depCity", "depDesc",
	"arrDate", "arrDay", "arrTime", "arrCity", "arrDesc",
	"carCode", "carDesc", "opCarCode", "opCarDesc",
	"mainFlt", "classCode", "classDesc", "seat",
	"total_price", "fare", "fareOrigin", "fuelChg", "airTax", "tasf",
	"scraped_date", "source_file",
}

// Row renders the record in CanonicalColumns order
func (r FlightRecord) Row() []string {
	return []string{
		r.AgencyCode, r.FlightCode,
		formatDate(&r.DepartureDate), r.DepartureWeekday, formatClock(r.DepartureTime), r.OriginCode, r.OriginName,
		formatDate(r.ArrivalDate), r.ArrivalWeekday, formatClock(r.ArrivalTime), r.DestinationCode, r.DestinationName,
		r.MarketingCarrierCode, r.MarketingCarrierName, r.OperatingCarrierCode, r.OperatingCarrierName,
		r.FlightNumber, r.SeatClassCode, r.SeatClassDescription, fmt.Sprint(r.Seats),
		fmt.Sprint(r.TotalPrice), fmt.Sprint(r.Fare), fmt.Sprint(r.FareOrigin),
		fmt.Sprint(r.FuelSurcharge), fmt.Sprint(r.AirportTax), fmt.Sprint(r.IssuanceFee),
		formatDate(&r.ScrapeDate), r.SourceRef,
	}
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(ISODateLayout)
}

func formatClock(c *Clock) string {
	if c == nil {
		return ""
	}
	return c.String()
}
