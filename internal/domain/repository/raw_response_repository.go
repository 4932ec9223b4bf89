package repository

import (
	"context"

	"airfare-collector/internal/domain/entity"
)

// RawResponseRepository stores portal bodies together with their provenance
type RawResponseRepository interface {
	// Save persists one response and returns its source reference.
	// Saving the same request key on the same scrape date replaces the earlier body.
	Save(ctx context.Context, raw entity.RawResponse) (string, error)
	List(ctx context.Context, filter entity.RawFilter) ([]entity.RawResponse, error)
}
