package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlightRecordKeyAndRow(t *testing.T) {
	dep := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	rec := FlightRecord{
		AgencyCode:           "LT",
		FlightCode:           "LT",
		DepartureDate:        dep,
		DepartureWeekday:     "SAT",
		DepartureTime:        &Clock{Hour: 7, Minute: 5},
		OriginCode:           "GMP",
		OriginName:           "김포",
		DestinationCode:      "CJU",
		MarketingCarrierCode: "OZ",
		FlightNumber:         "OZ8901",
		SeatClassCode:        "Y",
		SeatClassDescription: "일반석",
		Fare:                 70000,
		FuelSurcharge:        1000,
		AirportTax:           4000,
		IssuanceFee:          2000,
		ScrapeDate:           time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	rec.TotalPrice = rec.ComputeTotal()

	assert.Equal(t, 77000, rec.TotalPrice)
	assert.Equal(t, NaturalKey{
		"LT", "LT", "2025-05-10", "07:05:00", "GMP", "", "", "CJU", "OZ", "", "OZ8901", "Y", "일반석",
	}, rec.Key())

	row := rec.Row()
	require.Len(t, row, len(CanonicalColumns))
	assert.Equal(t, "2025-05-10", row[2])
	assert.Equal(t, "07:05:00", row[4])
	assert.Equal(t, "", row[7])
	assert.Equal(t, "77000", row[20])
	assert.Equal(t, "2025-05-01", row[26])

	other := rec
	other.Fare = 1
	other.ScrapeDate = time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
	other.SourceRef = "x.json"
	assert.Equal(t, rec.Key(), other.Key())
}

func TestComputeTotal(t *testing.T) {
	rec := FlightRecord{Fare: 50000, FuelSurcharge: 20000, AirportTax: 4000, IssuanceFee: 3000, FareOrigin: 99000}
	assert.Equal(t, 77000, rec.ComputeTotal())
}

func TestClockString(t *testing.T) {
	assert.Equal(t, "23:59:00", Clock{Hour: 23, Minute: 59}.String())
	assert.Equal(t, "00:00:07", Clock{Second: 7}.String())
}
