package portal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const cookieCachePrefix = "airfare:cookies:"

// CachedCredentialProvider keeps acquired cookies in redis so consecutive
// runs reuse one portal session until the TTL expires
type CachedCredentialProvider struct {
	next   repository.CredentialProvider
	rc     redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

// NewCachedCredentialProvider wraps next with a redis cache
func NewCachedCredentialProvider(next repository.CredentialProvider, rc redis.Cmdable, ttl time.Duration, logger logger.Logger) repository.CredentialProvider {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &CachedCredentialProvider{
		next:   next,
		rc:     rc,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire returns cached cookies when present, otherwise asks next and caches the result.
// Cache failures fall through to next.
func (p *CachedCredentialProvider) Acquire(ctx context.Context, targetURL string) (entity.CookieSet, error) {
	cacheKey := cookieCachePrefix + targetURL

	bs, err := p.rc.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil && len(bs) > 0:
		var cookies entity.CookieSet
		if err := json.Unmarshal(bs, &cookies); err == nil && len(cookies) > 0 {
			p.logger.Info("Using cached portal cookies", "count", len(cookies))
			return cookies, nil
		}
	case err != nil && !errors.Is(err, redis.Nil):
		p.logger.Warn("Cookie cache unavailable", "error", err)
	}

	cookies, err := p.next.Acquire(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	if bs, err := json.Marshal(cookies); err == nil {
		if err := p.rc.Set(ctx, cacheKey, bs, p.ttl).Err(); err != nil {
			p.logger.Warn("Failed to cache portal cookies", "error", err)
		}
	}
	return cookies, nil
}

