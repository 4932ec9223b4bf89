package repository

import (
	"testing"

	"airfare-collector/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestToAirport(t *testing.T) {
	airport := toAirport(Airports{
		AirportCode: " hin ",
		DisplayName: "사천",
		Aliases:     "진주/사천, 진주(사천),,진주 ",
	})

	assert.Equal(t, entity.Airport{
		Code:        "HIN",
		DisplayName: "사천",
		Aliases:     []string{"진주/사천", "진주(사천)", "진주"},
	}, airport)
	assert.Nil(t, toAirport(Airports{AirportCode: "GMP"}).Aliases)
}

func TestToAirline(t *testing.T) {
	airline := toAirline(Airlines{Code: "OZ", Name: "아시아나", CodeshareOperator: "BX"})
	assert.Equal(t, entity.Airline{Code: "OZ", Name: "아시아나", CodeshareOperator: "BX"}, airline)
}

func TestReferenceTableNames(t *testing.T) {
	assert.Equal(t, "m_airlines", Airlines{}.TableName())
	assert.Equal(t, "m_airports", Airports{}.TableName())
	assert.Equal(t, "flight_info", FlightInfo{}.TableName())
}
