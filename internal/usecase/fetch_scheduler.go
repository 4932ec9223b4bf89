package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
)

// DefaultFetchConcurrency caps in-flight portal searches
const DefaultFetchConcurrency = 50

// FetchOptions tunes the scheduler
type FetchOptions struct {
	Concurrency int
	Retry       RetryPolicy
}

// FetchResult is what a fetch run produced
type FetchResult struct {
	Summary   entity.FetchSummary
	Responses []entity.RawResponse
}

// FetchScheduler dispatches portal searches under a concurrency cap and
// stores every successful body
type FetchScheduler struct {
	client      repository.PortalClient
	store       repository.RawResponseRepository
	metrics     *metrics.Metrics
	logger      logger.Logger
	policy      RetryPolicy
	concurrency int
	now         func() time.Time
}

// NewFetchScheduler creates a new fetch scheduler
func NewFetchScheduler(
	client repository.PortalClient,
	store repository.RawResponseRepository,
	metrics *metrics.Metrics,
	logger logger.Logger,
	opts FetchOptions,
) *FetchScheduler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultFetchConcurrency
	}
	if opts.Retry.MaxAttempts == 0 && opts.Retry.BaseDelay == 0 {
		opts.Retry = DefaultRetryPolicy()
	}

	return &FetchScheduler{
		client:      client,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		policy:      opts.Retry,
		concurrency: opts.Concurrency,
		now:         time.Now,
	}
}

// Run fetches every key and returns the stored responses in key order.
// Failed keys are logged and left out; Run itself only fails through ctx.
func (s *FetchScheduler) Run(ctx context.Context, cookies entity.CookieSet, keys []entity.RequestKey) (FetchResult, error) {
	scrapeDate := dateOnly(s.now())
	results := make([]*entity.RawResponse, len(keys))
	var succeeded, failed atomic.Int64

	s.logger.Info("Starting fetch", "requests", len(keys), "concurrency", s.concurrency, "scrapeDate", scrapeDate.Format(entity.ISODateLayout))
	started := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for i, key := range keys {
		if ctx.Err() != nil {
			failed.Add(int64(len(keys) - i))
			break
		}
		g.Go(func() error {
			raw, err := s.fetchOne(ctx, cookies, key, scrapeDate)
			if err != nil {
				failed.Add(1)
				s.metrics.ObserveRequest("failed")
				s.logger.Error("Request failed", "key", key.String(), "error", err)
				return nil
			}
			succeeded.Add(1)
			s.metrics.ObserveRequest("succeeded")
			results[i] = raw
			return nil
		})
	}
	_ = g.Wait()

	out := FetchResult{
		Summary: entity.FetchSummary{
			Requested: len(keys),
			Succeeded: int(succeeded.Load()),
			Failed:    int(failed.Load()),
		},
		Responses: make([]entity.RawResponse, 0, succeeded.Load()),
	}
	for _, raw := range results {
		if raw != nil {
			out.Responses = append(out.Responses, *raw)
		}
	}

	s.metrics.ObserveStage("fetch", time.Since(started))
	s.logger.Info("Fetch finished",
		"requested", out.Summary.Requested,
		"succeeded", out.Summary.Succeeded,
		"failed", out.Summary.Failed,
		"took", time.Since(started).String(),
	)

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("fetch interrupted: %w", err)
	}
	return out, nil
}

// fetchOne runs the retry loop for one key and persists the body on success
func (s *FetchScheduler) fetchOne(ctx context.Context, cookies entity.CookieSet, key entity.RequestKey, scrapeDate time.Time) (*entity.RawResponse, error) {
	attempts := s.policy.attempts()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		started := time.Now()
		body, err := s.client.Search(ctx, cookies, key)
		if err == nil && !json.Valid(body) {
			err = fmt.Errorf("%w: %d bytes", entity.ErrMalformedResponse, len(body))
		}
		outcome := attemptOutcome(err)
		s.metrics.ObserveAttempt(outcome, time.Since(started))

		if err == nil {
			raw := entity.RawResponse{
				Provenance: entity.Provenance{ScrapeDate: scrapeDate, Key: key},
				Body:       body,
			}
			ref, err := s.store.Save(ctx, raw)
			if err != nil {
				s.metrics.IncError("raw_store")
				return nil, fmt.Errorf("failed to store response: %w", err)
			}
			raw.SourceRef = ref
			return &raw, nil
		}

		lastErr = err
		if !retryable(err) || ctx.Err() != nil || attempt == attempts-1 {
			break
		}

		delay := s.policy.Delay(attempt)
		s.logger.Warn("Retrying request",
			"key", key.String(),
			"attempt", attempt+1,
			"outcome", outcome,
			"delay", delay.String(),
			"error", err,
		)
		if err := sleepContext(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}
