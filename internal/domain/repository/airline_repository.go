package repository

import (
	"context"

	"airfare-collector/internal/domain/entity"
)

// AirlineRepository defines the interface for airline reference data
type AirlineRepository interface {
	GetByCode(ctx context.Context, code string) (*entity.Airline, error)
	ListAll(ctx context.Context) ([]entity.Airline, error)
}

// AirportRepository defines the interface for airport reference data
type AirportRepository interface {
	ListAll(ctx context.Context) ([]entity.Airport, error)
}
