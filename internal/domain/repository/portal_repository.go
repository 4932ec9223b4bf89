package repository

import (
	"context"

	"airfare-collector/internal/domain/entity"
)

// CredentialProvider yields a session cookie set for the portal
type CredentialProvider interface {
	Acquire(ctx context.Context, targetURL string) (entity.CookieSet, error)
}

// PortalClient performs one fare search and returns the body as received
type PortalClient interface {
	Search(ctx context.Context, cookies entity.CookieSet, key entity.RequestKey) ([]byte, error)
}

// RunReporter publishes the summary of a finished run
type RunReporter interface {
	Report(ctx context.Context, summary entity.RunSummary) error
}
