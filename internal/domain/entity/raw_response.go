package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Provenance records where a raw response came from
type Provenance struct {
	ScrapeDate time.Time
	Key        RequestKey
	SourceRef  string
}

// RawResponse is a portal body exactly as received
type RawResponse struct {
	Provenance
	Body []byte
}

// PortalEnvelope is the outer shape of a portal search response
type PortalEnvelope struct {
	Data *PortalData `json:"data"`
}

// PortalData holds the header and the offer list. Data stays raw so a
// non-list payload can be detected and skipped.
type PortalData struct {
	Header *PortalHeader   `json:"header"`
	Data   json.RawMessage `json:"data"`
}

// PortalHeader is the response header returned by the portal
type PortalHeader struct {
	ErrorCode FlexString `json:"errorCode"`
	ErrorDesc FlexString `json:"errorDesc"`
	Count     FlexString `json:"cnt"`
	AgentCode FlexString `json:"agentCode"`
	Dep       FlexString `json:"dep"`
	Arr       FlexString `json:"arr"`
	DepDate   FlexString `json:"depDate"`
	Adults    FlexString `json:"adt"`
	Children  FlexString `json:"chd"`
	Infants   FlexString `json:"inf"`
}

// FlexString accepts a JSON string, number, bool or null.
// Objects and arrays are treated as absent.
type FlexString struct {
	Value string
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = FlexString{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString{Value: s, Valid: true}
	case '{', '[':
		return nil
	case 't', 'f':
		v, err := strconv.ParseBool(string(b))
		if err != nil {
			return err
		}
		*f = FlexString{Value: strconv.FormatBool(v), Valid: true}
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*f = FlexString{Value: n.String(), Valid: true}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (f FlexString) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// String returns the value, empty when absent
func (f FlexString) String() string {
	return f.Value
}

// FlightOffer is one fare offer as returned by the portal
type FlightOffer struct {
	Code       FlexString `json:"code"`
	MainFlt    FlexString `json:"mainFlt"`
	DepCity    FlexString `json:"depCity"`
	DepDesc    FlexString `json:"depDesc"`
	ArrCity    FlexString `json:"arrCity"`
	ArrDesc    FlexString `json:"arrDesc"`
	DepDate    FlexString `json:"depDate"`
	ArrDate    FlexString `json:"arrDate"`
	DepTime    FlexString `json:"depTime"`
	ArrTime    FlexString `json:"arrTime"`
	DepDay     FlexString `json:"depDay"`
	ArrDay     FlexString `json:"arrDay"`
	CarCode    FlexString `json:"carCode"`
	CarDesc    FlexString `json:"carDesc"`
	OpCarCode  FlexString `json:"opCarCode"`
	OpCarDesc  FlexString `json:"opCarDesc"`
	ClassCode  FlexString `json:"classCode"`
	ClassDesc  FlexString `json:"classDesc"`
	Seat       FlexString `json:"seat"`
	Fare       FlexString `json:"fare"`
	FareOrigin FlexString `json:"fareOrigin"`
	AirTax     FlexString `json:"airTax"`
	FuelChg    FlexString `json:"fuelChg"`
	Tasf       FlexString `json:"tasf"`
}

// FlightRow is an offer with the provenance of the response it came from
type FlightRow struct {
	Offer      FlightOffer
	AgencyCode string
	Provenance Provenance
}

// RawFilter selects stored raw responses by scrape date, both bounds inclusive.
// Zero bounds are open.
type RawFilter struct {
	ScrapedFrom time.Time
	ScrapedTo   time.Time
}

// Match reports whether a scrape date falls inside the filter
func (f RawFilter) Match(scrapeDate time.Time) bool {
	if !f.ScrapedFrom.IsZero() && scrapeDate.Before(f.ScrapedFrom) {
		return false
	}
	if !f.ScrapedTo.IsZero() && scrapeDate.After(f.ScrapedTo) {
		return false
	}
	return true
}
