package repository

import (
	"context"

	"airfare-collector/internal/domain/entity"
)

// FlightFareRepository is the relational sink for canonical fare records
type FlightFareRepository interface {
	BulkUpsert(ctx context.Context, records []entity.FlightRecord) (entity.UpsertResult, error)
}

// FlatFileRepository reads and writes the canonical dataset as a flat file
type FlatFileRepository interface {
	Load(ctx context.Context) ([]entity.FlightRecord, error)
	Save(ctx context.Context, records []entity.FlightRecord) error
}
