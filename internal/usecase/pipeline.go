package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/reference"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
)

// PipelineDeps wires the pipeline stages. FlatFile, Sink and Reporter are optional.
type PipelineDeps struct {
	Tables      reference.Tables
	Credentials repository.CredentialProvider
	TargetURL   string
	Scheduler   *FetchScheduler
	RawStore    repository.RawResponseRepository
	Loader      *ResponseLoader
	Normalizer  *Normalizer
	Merger      *Merger
	FlatFile    repository.FlatFileRepository
	Sink        repository.FlightFareRepository
	Reporter    repository.RunReporter
	Metrics     *metrics.Metrics
	Logger      logger.Logger
}

// FarePipeline runs fetch, load, normalize, merge and sink as sequential stages
type FarePipeline struct {
	deps PipelineDeps
	now  func() time.Time
}

// NewFarePipeline creates a new fare pipeline
func NewFarePipeline(deps PipelineDeps) *FarePipeline {
	return &FarePipeline{
		deps: deps,
		now:  time.Now,
	}
}

// Collect fetches and stores raw responses for the date range without processing them
func (p *FarePipeline) Collect(ctx context.Context, dr entity.DateRange) (entity.RunSummary, error) {
	summary := p.begin("collect")
	summary.Range = &dr

	_, err := p.fetch(ctx, dr, &summary)
	return p.finish(ctx, summary, err)
}

// Run fetches the date range and pushes the results through every stage
func (p *FarePipeline) Run(ctx context.Context, dr entity.DateRange) (entity.RunSummary, error) {
	summary := p.begin("run")
	summary.Range = &dr

	result, err := p.fetch(ctx, dr, &summary)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return p.finish(ctx, summary, err)
	}
	if err != nil {
		// Interrupted fetch: process what was stored, then report the interruption
		_ = p.process(context.WithoutCancel(ctx), result.Responses, &summary)
		return p.finish(ctx, summary, err)
	}

	err = p.process(ctx, result.Responses, &summary)
	return p.finish(ctx, summary, err)
}

// Ingest reprocesses stored raw responses selected by scrape date
func (p *FarePipeline) Ingest(ctx context.Context, filter entity.RawFilter) (entity.RunSummary, error) {
	summary := p.begin("ingest")

	responses, err := p.deps.RawStore.List(ctx, filter)
	if err != nil {
		return p.finish(ctx, summary, fmt.Errorf("failed to list raw responses: %w", err))
	}
	p.deps.Logger.Info("Loaded stored responses", "count", len(responses))

	err = p.process(ctx, responses, &summary)
	return p.finish(ctx, summary, err)
}

func (p *FarePipeline) fetch(ctx context.Context, dr entity.DateRange, summary *entity.RunSummary) (FetchResult, error) {
	cookies, err := p.deps.Credentials.Acquire(ctx, p.deps.TargetURL)
	if err != nil {
		p.deps.Metrics.IncError("credentials")
		if !errors.Is(err, entity.ErrNoCredentials) {
			err = fmt.Errorf("%w: %v", entity.ErrNoCredentials, err)
		}
		return FetchResult{}, err
	}
	if len(cookies) == 0 {
		p.deps.Metrics.IncError("credentials")
		return FetchResult{}, fmt.Errorf("%w: empty cookie set", entity.ErrNoCredentials)
	}
	p.deps.Logger.Info("Acquired session cookies", "count", len(cookies))

	keys := p.deps.Tables.RequestKeys(dr.Days())
	result, err := p.deps.Scheduler.Run(ctx, cookies, keys)
	summary.Fetch = &result.Summary
	return result, err
}

func (p *FarePipeline) process(ctx context.Context, responses []entity.RawResponse, summary *entity.RunSummary) error {
	started := time.Now()
	rows, loadSummary := p.deps.Loader.Load(responses)
	summary.Load = loadSummary
	p.deps.Metrics.ObserveStage("load", time.Since(started))

	started = time.Now()
	records, normSummary := p.deps.Normalizer.Normalize(rows)
	summary.Normalize = normSummary
	p.deps.Metrics.ObserveStage("normalize", time.Since(started))

	started = time.Now()
	var fresh []entity.FlightRecord
	if p.deps.FlatFile != nil {
		prior, err := p.deps.FlatFile.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load flat file: %w", err)
		}
		merged, mergeSummary := p.deps.Merger.Merge(prior, records)
		summary.Merge = mergeSummary
		if err := p.deps.FlatFile.Save(ctx, merged); err != nil {
			return fmt.Errorf("failed to save flat file: %w", err)
		}
		fresh = p.deps.Merger.Dedup(records)
	} else {
		fresh, summary.Merge = p.deps.Merger.Merge(nil, records)
	}
	p.deps.Metrics.ObserveStage("merge", time.Since(started))

	if p.deps.Sink == nil {
		p.deps.Logger.Warn("No sink configured, skipping upload", "records", len(fresh))
		return nil
	}
	if len(fresh) == 0 {
		p.deps.Logger.Info("Nothing to upload")
		return nil
	}

	started = time.Now()
	result, err := p.deps.Sink.BulkUpsert(ctx, fresh)
	summary.Sink = result
	p.deps.Metrics.AddUpserted(result.Written)
	p.deps.Metrics.ObserveStage("sink", time.Since(started))
	if err != nil {
		p.deps.Metrics.IncError("sink")
		return fmt.Errorf("failed to upsert records: %w", err)
	}
	return nil
}

func (p *FarePipeline) begin(command string) entity.RunSummary {
	p.deps.Logger.Info("Starting pipeline", "command", command)
	return entity.RunSummary{
		Command:   command,
		StartedAt: p.now(),
	}
}

func (p *FarePipeline) finish(ctx context.Context, summary entity.RunSummary, err error) (entity.RunSummary, error) {
	summary.Duration = p.now().Sub(summary.StartedAt)
	summary.Err = err

	if err != nil {
		p.deps.Logger.Error("Pipeline failed", "command", summary.Command, "error", err)
	} else {
		p.deps.Logger.Info("Pipeline finished",
			"command", summary.Command,
			"took", summary.Duration.String(),
			"rows", summary.Load.Rows,
			"records", summary.Merge.After,
			"written", summary.Sink.Written,
		)
	}

	if p.deps.Reporter != nil {
		if rerr := p.deps.Reporter.Report(context.WithoutCancel(ctx), summary); rerr != nil {
			p.deps.Logger.Warn("Failed to send run report", "error", rerr)
		}
	}
	return summary, err
}
