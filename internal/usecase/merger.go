package usecase

import (
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
	"airfare-collector/pkg/utils"
)

// Merger deduplicates fare records on their natural key. The last record
// seen for a key wins, so fresh records supersede existing ones.
type Merger struct {
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewMerger creates a new merger
func NewMerger(metrics *metrics.Metrics, logger logger.Logger) *Merger {
	return &Merger{
		metrics: metrics,
		logger:  logger,
	}
}

// Merge concatenates existing then fresh and keeps the last record per key.
// Survivors keep the position of their last occurrence.
func (m *Merger) Merge(existing, fresh []entity.FlightRecord) ([]entity.FlightRecord, entity.MergeSummary) {
	merged, summary := merge(existing, fresh)

	if summary.FreshDuplicates > 0 {
		m.logger.Warn("Fresh records contain duplicate keys, keeping the last of each", "duplicates", summary.FreshDuplicates)
	}
	m.metrics.AddRows("merge", "removed", summary.Removed)
	m.logger.Info("Merged records",
		"before", summary.Before,
		"after", summary.After,
		"removed", summary.Removed,
		"inserted", summary.Inserted,
		"replaced", summary.Replaced,
		"retained", summary.Retained,
	)
	return merged, summary
}

// Dedup keeps the last record per key without logging
func (m *Merger) Dedup(records []entity.FlightRecord) []entity.FlightRecord {
	merged, _ := merge(nil, records)
	return merged
}

func merge(existing, fresh []entity.FlightRecord) ([]entity.FlightRecord, entity.MergeSummary) {
	combined := make([]entity.FlightRecord, 0, len(existing)+len(fresh))
	keys := make([]entity.NaturalKey, 0, len(existing)+len(fresh))
	for _, rec := range existing {
		rec = CanonicalizeKey(rec)
		combined = append(combined, rec)
		keys = append(keys, rec.Key())
	}
	for _, rec := range fresh {
		rec = CanonicalizeKey(rec)
		combined = append(combined, rec)
		keys = append(keys, rec.Key())
	}

	last := make(map[entity.NaturalKey]int, len(combined))
	for i, key := range keys {
		last[key] = i
	}

	existingKeys := make(map[entity.NaturalKey]struct{}, len(existing))
	for _, key := range keys[:len(existing)] {
		existingKeys[key] = struct{}{}
	}
	freshKeys := make(map[entity.NaturalKey]struct{}, len(fresh))
	for _, key := range keys[len(existing):] {
		freshKeys[key] = struct{}{}
	}

	summary := entity.MergeSummary{
		Before:          len(combined),
		FreshDuplicates: len(fresh) - len(freshKeys),
	}
	for key := range freshKeys {
		if _, ok := existingKeys[key]; ok {
			summary.Replaced++
		} else {
			summary.Inserted++
		}
	}
	for key := range existingKeys {
		if _, ok := freshKeys[key]; !ok {
			summary.Retained++
		}
	}

	merged := make([]entity.FlightRecord, 0, len(last))
	for i, rec := range combined {
		if last[keys[i]] == i {
			merged = append(merged, rec)
		}
	}
	summary.After = len(merged)
	summary.Removed = summary.Before - summary.After
	return merged, summary
}

// CanonicalizeKey puts the key fields of a record into comparable form
func CanonicalizeKey(rec entity.FlightRecord) entity.FlightRecord {
	upper := func(s string) string { return strings.ToUpper(utils.CleanString(s)) }

	rec.AgencyCode = upper(rec.AgencyCode)
	rec.FlightCode = upper(rec.FlightCode)
	rec.OriginCode = upper(rec.OriginCode)
	rec.DestinationCode = upper(rec.DestinationCode)
	rec.MarketingCarrierCode = upper(rec.MarketingCarrierCode)
	rec.OperatingCarrierCode = upper(rec.OperatingCarrierCode)
	rec.FlightNumber = upper(rec.FlightNumber)
	rec.SeatClassCode = upper(rec.SeatClassCode)
	rec.SeatClassDescription = utils.CleanString(rec.SeatClassDescription)

	rec.DepartureDate = dateOnly(rec.DepartureDate)
	if rec.ArrivalDate != nil {
		if rec.ArrivalDate.IsZero() {
			rec.ArrivalDate = nil
		} else {
			d := dateOnly(*rec.ArrivalDate)
			rec.ArrivalDate = &d
		}
	}
	rec.ScrapeDate = dateOnly(rec.ScrapeDate)
	return rec
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
