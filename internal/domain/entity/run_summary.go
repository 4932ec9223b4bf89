package entity

import "time"

// FetchSummary counts fetch outcomes for one run
type FetchSummary struct {
	Requested int
	Succeeded int
	Failed    int
}

// LoadSummary counts what the response loader accepted and skipped
type LoadSummary struct {
	Responses     int
	Accepted      int
	Skipped       int
	Rows          int
	OffersSkipped int
}

// NormalizeSummary counts normalizer input and output rows
type NormalizeSummary struct {
	Input   int
	Output  int
	Skipped int
}

// MergeSummary reports the effect of a merge
type MergeSummary struct {
	Before          int
	After           int
	Removed         int
	Inserted        int
	Replaced        int
	Retained        int
	FreshDuplicates int
}

// UpsertResult is what the sink reports after a bulk upsert
type UpsertResult struct {
	Written int
	Skipped int
	Batches int
}

// RunSummary collects the per-stage summaries of one pipeline run
type RunSummary struct {
	Command   string
	StartedAt time.Time
	Duration  time.Duration
	Range     *DateRange
	Fetch     *FetchSummary
	Load      LoadSummary
	Normalize NormalizeSummary
	Merge     MergeSummary
	Sink      UpsertResult
	Err       error
}
