package usecase

import (
	"testing"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/reference"
	"airfare-collector/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offerRow(t *testing.T, overrides map[string]any) entity.FlightRow {
	t.Helper()
	rows, summary := NewResponseLoader(nil, logger.NewNop()).Load([]entity.RawResponse{
		rawResponse("2025-05-01", "2025-05-01/20250510/GMP_CJU_20250510_LT.json", "LT", portalBody("0", offer(overrides))),
	})
	require.Equal(t, 1, summary.Rows)
	return rows[0]
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(reference.Default(), nil, logger.NewNop())
}

func normalizeOne(t *testing.T, overrides map[string]any) entity.FlightRecord {
	t.Helper()
	records, summary := newTestNormalizer().Normalize([]entity.FlightRow{offerRow(t, overrides)})
	require.Equal(t, 1, summary.Output)
	return records[0]
}

func TestNormalizerCodeshare(t *testing.T) {
	rec := normalizeOne(t, map[string]any{
		"carCode":   "OZ",
		"carDesc":   "에어부산",
		"opCarCode": "",
		"opCarDesc": "",
		"fare":      "70,000",
		"fuelChg":   "1000",
		"airTax":    "4000",
		"tasf":      "2000",
	})

	assert.Equal(t, "OZ", rec.MarketingCarrierCode)
	assert.Equal(t, "아시아나", rec.MarketingCarrierName)
	assert.Equal(t, "BX", rec.OperatingCarrierCode)
	assert.Equal(t, "에어부산", rec.OperatingCarrierName)
	assert.Equal(t, 70000, rec.Fare)
	assert.Equal(t, 77000, rec.TotalPrice)
}

func TestNormalizerFields(t *testing.T) {
	rec := normalizeOne(t, map[string]any{
		"depDesc": "서울/김포",
		"arrCity": "wju",
		"arrDesc": "",
		"depTime": "930",
		"arrTime": "1040.0",
		"seat":    "nan",
	})

	assert.Equal(t, "LT", rec.AgencyCode)
	assert.Equal(t, day("2025-05-10"), rec.DepartureDate)
	assert.Equal(t, "SAT", rec.DepartureWeekday)
	require.NotNil(t, rec.ArrivalDate)
	assert.Equal(t, "SAT", rec.ArrivalWeekday)
	assert.Equal(t, &entity.Clock{Hour: 9, Minute: 30}, rec.DepartureTime)
	assert.Equal(t, &entity.Clock{Hour: 10, Minute: 40}, rec.ArrivalTime)
	assert.Equal(t, "김포", rec.OriginName)
	assert.Equal(t, "WJU", rec.DestinationCode)
	assert.Equal(t, "원주", rec.DestinationName)
	assert.Equal(t, 0, rec.Seats)
	assert.Equal(t, day("2025-05-01"), rec.ScrapeDate)
	assert.Equal(t, "2025-05-01/20250510/GMP_CJU_20250510_LT.json", rec.SourceRef)
}

func TestNormalizerCarrierRules(t *testing.T) {
	tests := []struct {
		name    string
		offer   map[string]any
		carName string
		opCode  string
		opName  string
	}{
		{
			name:    "alias is folded before comparison",
			offer:   map[string]any{"carCode": "OZ", "carDesc": "아시아나항공"},
			carName: "아시아나",
		},
		{
			name:    "blank name takes the official name",
			offer:   map[string]any{"carCode": "KE", "carDesc": ""},
			carName: "대한항공",
		},
		{
			name:    "codeshare without a mapping keeps the upstream operating code",
			offer:   map[string]any{"carCode": "7C", "carDesc": "티웨이항공", "opCarCode": "TW"},
			carName: "제주항공",
			opCode:  "TW",
			opName:  "티웨이항공",
		},
		{
			name:    "operating name is filled from the operating code",
			offer:   map[string]any{"carCode": "KE", "carDesc": "대한항공", "opCarCode": "lj"},
			carName: "대한항공",
			opCode:  "LJ",
			opName:  "진에어",
		},
		{
			name:    "unknown carrier is kept as is",
			offer:   map[string]any{"carCode": "XX", "carDesc": "New Air"},
			carName: "New Air",
		},
		{
			name:    "special carrier adopts its alias from the operating name",
			offer:   map[string]any{"carCode": "WE", "carDesc": "", "opCarCode": "WE", "opCarDesc": "파라타항공"},
			carName: "파라타항공",
		},
		{
			name:    "special carrier keeps a given name",
			offer:   map[string]any{"carCode": "WE", "carDesc": "Parata", "opCarCode": "OZ", "opCarDesc": "아시아나"},
			carName: "Parata",
		},
		{
			name:    "special carrier falls back to the official name",
			offer:   map[string]any{"carCode": "WE", "carDesc": "None", "opCarDesc": "기타"},
			carName: "파라타항공",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := normalizeOne(t, tt.offer)
			assert.Equal(t, tt.carName, rec.MarketingCarrierName)
			assert.Equal(t, tt.opCode, rec.OperatingCarrierCode)
			assert.Equal(t, tt.opName, rec.OperatingCarrierName)
		})
	}
}

func TestNormalizerSkipsRowsWithoutDepartureDate(t *testing.T) {
	n := newTestNormalizer()
	rows := []entity.FlightRow{
		offerRow(t, map[string]any{"depDate": ""}),
		offerRow(t, map[string]any{"depDate": "2025-05-10"}),
		offerRow(t, map[string]any{"depDate": "20251301"}),
		offerRow(t, map[string]any{"depDate": "20250510.0"}),
		offerRow(t, map[string]any{"depDate": 20250511}),
	}

	records, summary := n.Normalize(rows)

	assert.Equal(t, entity.NormalizeSummary{Input: 5, Output: 2, Skipped: 3}, summary)
	require.Len(t, records, 2)
	assert.Equal(t, day("2025-05-10"), records[0].DepartureDate)
	assert.Equal(t, day("2025-05-11"), records[1].DepartureDate)
}

func TestNormalizerToleratesBadOptionalFields(t *testing.T) {
	rec := normalizeOne(t, map[string]any{
		"arrDate": "unknown",
		"depTime": "25:00",
		"arrTime": "",
		"fare":    "-500",
		"airTax":  "abc",
		"tasf":    nil,
	})

	assert.Nil(t, rec.ArrivalDate)
	assert.Empty(t, rec.ArrivalWeekday)
	assert.Nil(t, rec.DepartureTime)
	assert.Nil(t, rec.ArrivalTime)
	assert.Equal(t, 0, rec.Fare)
	assert.Equal(t, 0, rec.AirportTax)
	assert.Equal(t, 0, rec.IssuanceFee)
	assert.Equal(t, 1000, rec.TotalPrice)
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	n := newTestNormalizer()
	rows := []entity.FlightRow{
		offerRow(t, map[string]any{"carCode": "OZ", "carDesc": "에어부산"}),
		offerRow(t, map[string]any{"carCode": "WE", "carDesc": "", "opCarDesc": "파라타항공"}),
		offerRow(t, map[string]any{"carCode": "OZ", "carDesc": "아시아나항공", "depDesc": "부산(김해)"}),
		offerRow(t, map[string]any{"carCode": "KE", "carDesc": "", "opCarCode": "LJ"}),
	}

	records, _ := n.Normalize(rows)
	require.Len(t, records, len(rows))
	for _, rec := range records {
		assert.Equal(t, rec, n.Canonicalize(rec))
	}
}

func TestNormalizerUsesInjectedTables(t *testing.T) {
	tables := reference.Default().WithAirlines([]entity.Airline{
		{Code: "ZZ", Name: "Zed Air", CodeshareOperator: "RS"},
	})
	n := NewNormalizer(tables, nil, logger.NewNop())

	records, _ := n.Normalize([]entity.FlightRow{offerRow(t, map[string]any{"carCode": "ZZ", "carDesc": "에어서울"})})
	require.Len(t, records, 1)
	assert.Equal(t, "Zed Air", records[0].MarketingCarrierName)
	assert.Equal(t, "RS", records[0].OperatingCarrierCode)
	assert.Equal(t, "에어서울", records[0].OperatingCarrierName)
}
