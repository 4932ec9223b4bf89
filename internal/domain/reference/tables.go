// Package reference holds the fixed code tables of the booking portal.
// Tables are plain values built by Default and injected where needed.
package reference

import (
	"time"

	"airfare-collector/internal/domain/entity"
)

// SpecialCarrier describes the one carrier whose operating fields are unreliable upstream
type SpecialCarrier struct {
	Code  string
	Alias string
}

// Tables is the reference data of the request space and the normalizer
type Tables struct {
	AirportOrder []string
	Airports     map[string]string

	AgencyOrder []string
	Agencies    map[string]string

	SeatClasses      map[string]string
	DefaultSeatClass string
	Passengers       entity.Passengers

	// PlaceNames maps variant spellings and airport codes to one display name
	PlaceNames map[string]string

	Airlines           map[string]string
	CodeshareOperators map[string]string
	CarrierAliases     map[string]string
	SpecialCarrier     SpecialCarrier
}

// Default returns the built-in tables
func Default() Tables {
	return Tables{
		AirportOrder: []string{
			"GMP", "PUS", "CJU", "CJJ", "TAE", "MWX", "YNY",
			"KWJ", "USN", "RSU", "KPO", "HIN", "KUV", "WJU",
		},
		Airports: map[string]string{
			"GMP": "서울/김포",
			"PUS": "부산/김해",
			"CJU": "제주",
			"CJJ": "청주",
			"TAE": "대구",
			"MWX": "무안",
			"YNY": "양양",
			"KWJ": "광주",
			"USN": "울산",
			"RSU": "여수",
			"KPO": "포항경주",
			"HIN": "사천",
			"KUV": "군산",
			"WJU": "횡성/원주",
		},
		AgencyOrder: []string{"LT", "IP", "JD", "SM", "WT", "YB2", "OT", "JC"},
		Agencies: map[string]string{
			"LT":  "롯데투어",
			"IP":  "인터파크",
			"JD":  "하나투어",
			"SM":  "선민투어",
			"WT":  "웹투어",
			"YB2": "노랑풍선",
			"OT":  "온라인투어",
			"JC":  "제주도닷컴",
		},
		SeatClasses: map[string]string{
			"A": "전체",
			"Y": "일반석",
			"C": "비즈니스석",
			"S": "할인석",
			"T": "특가석",
		},
		DefaultSeatClass: "A",
		Passengers:       entity.Passengers{Adults: 1},
		PlaceNames: map[string]string{
			"부산/김해":  "부산",
			"부산(김해)": "부산",
			"서울/김포":  "김포",
			"서울(김포)": "김포",
			"진주/사천":  "사천",
			"진주(사천)": "사천",
			"진주":     "사천",
			"포항경주":   "포항",
			"포항/경주":  "포항",
			"여수/순천":  "여수",
			"횡성/원주":  "원주",
			"GMP":    "김포",
			"PUS":    "부산",
			"CJU":    "제주",
			"KWJ":    "광주",
			"CJJ":    "청주",
			"TAE":    "대구",
			"USN":    "울산",
			"KUV":    "군산",
			"WJU":    "원주",
			"YNY":    "양양",
			"MWX":    "무안",
			"HIN":    "사천",
			"KPO":    "포항",
			"RSU":    "여수",
		},
		Airlines: map[string]string{
			"OZ": "아시아나",
			"KE": "대한항공",
			"BX": "에어부산",
			"LJ": "진에어",
			"TW": "티웨이항공",
			"7C": "제주항공",
			"ZE": "이스타항공",
			"RS": "에어서울",
			"WE": "파라타항공",
		},
		CodeshareOperators: map[string]string{
			"OZ": "BX",
			"KE": "LJ",
		},
		CarrierAliases: map[string]string{
			"아시아나항공": "아시아나",
		},
		SpecialCarrier: SpecialCarrier{Code: "WE", Alias: "파라타항공"},
	}
}

// RequestKeys builds the full request space for the given dates.
// Same origin and destination pairs are excluded.
func (t Tables) RequestKeys(days []time.Time) []entity.RequestKey {
	keys := make([]entity.RequestKey, 0, len(t.AirportOrder)*len(t.AirportOrder)*len(days)*len(t.AgencyOrder))
	for _, origin := range t.AirportOrder {
		for _, destination := range t.AirportOrder {
			if origin == destination {
				continue
			}
			for _, day := range days {
				for _, agency := range t.AgencyOrder {
					keys = append(keys, entity.RequestKey{
						Origin:        origin,
						Destination:   destination,
						DepartureDate: day,
						AgencyCode:    agency,
						SeatClass:     t.DefaultSeatClass,
						Passengers:    t.Passengers,
					})
				}
			}
		}
	}
	return keys
}

// WithAirlines returns a copy of the tables with extra airlines merged in.
// Entries in extra win over the built-in ones.
func (t Tables) WithAirlines(extra []entity.Airline) Tables {
	airlines := copyMap(t.Airlines)
	operators := copyMap(t.CodeshareOperators)
	for _, a := range extra {
		if a.Code == "" {
			continue
		}
		if a.Name != "" {
			airlines[a.Code] = a.Name
		}
		if a.CodeshareOperator != "" {
			operators[a.Code] = a.CodeshareOperator
		}
	}
	t.Airlines = airlines
	t.CodeshareOperators = operators
	return t
}

// WithAirports returns a copy of the tables with extra airport names merged in
func (t Tables) WithAirports(extra []entity.Airport) Tables {
	places := copyMap(t.PlaceNames)
	for _, a := range extra {
		if a.DisplayName == "" {
			continue
		}
		if a.Code != "" {
			places[a.Code] = a.DisplayName
		}
		for _, alias := range a.Aliases {
			if alias != "" {
				places[alias] = a.DisplayName
			}
		}
	}
	t.PlaceNames = places
	return t
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
