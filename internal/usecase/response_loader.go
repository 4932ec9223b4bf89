package usecase

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/pkg/logger"
	"airfare-collector/pkg/metrics"
)

// successCodes are the header error codes that carry usable offers
var successCodes = map[string]struct{}{
	"0":    {},
	"0000": {},
	"9999": {},
}

// ResponseLoader flattens raw portal responses into offer rows
type ResponseLoader struct {
	metrics *metrics.Metrics
	logger  logger.Logger
}

// NewResponseLoader creates a new response loader
func NewResponseLoader(metrics *metrics.Metrics, logger logger.Logger) *ResponseLoader {
	return &ResponseLoader{
		metrics: metrics,
		logger:  logger,
	}
}

// Load returns the offers of every usable response. Rows come out ordered by
// scrape date, then source reference, so later scrapes sit later.
// Unusable responses and offers are skipped and counted.
func (l *ResponseLoader) Load(responses []entity.RawResponse) ([]entity.FlightRow, entity.LoadSummary) {
	ordered := make([]entity.RawResponse, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Provenance, ordered[j].Provenance
		if !a.ScrapeDate.Equal(b.ScrapeDate) {
			return a.ScrapeDate.Before(b.ScrapeDate)
		}
		return a.SourceRef < b.SourceRef
	})

	summary := entity.LoadSummary{Responses: len(ordered)}
	var rows []entity.FlightRow

	for _, raw := range ordered {
		offers, agency, reason := l.extract(raw)
		if reason != "" {
			summary.Skipped++
			l.logger.Warn("Skipping response", "source", raw.SourceRef, "reason", reason)
			continue
		}
		summary.Accepted++

		for i, item := range offers {
			var offer entity.FlightOffer
			if err := json.Unmarshal(item, &offer); err != nil {
				summary.OffersSkipped++
				l.logger.Warn("Skipping offer", "source", raw.SourceRef, "index", i, "error", err)
				continue
			}
			rows = append(rows, entity.FlightRow{
				Offer:      offer,
				AgencyCode: agency,
				Provenance: raw.Provenance,
			})
		}
	}
	summary.Rows = len(rows)

	l.metrics.AddRows("load", "accepted", summary.Accepted)
	l.metrics.AddRows("load", "skipped", summary.Skipped)
	l.metrics.AddRows("load", "offers_skipped", summary.OffersSkipped)
	l.logger.Info("Loaded responses",
		"responses", summary.Responses,
		"accepted", summary.Accepted,
		"skipped", summary.Skipped,
		"rows", summary.Rows,
	)
	return rows, summary
}

// extract returns the offer list and agency code of one response, or the reason it is unusable
func (l *ResponseLoader) extract(raw entity.RawResponse) ([]json.RawMessage, string, string) {
	var envelope entity.PortalEnvelope
	if err := json.Unmarshal(raw.Body, &envelope); err != nil {
		return nil, "", "malformed body: " + err.Error()
	}
	if envelope.Data == nil {
		return nil, "", "missing data"
	}
	header := envelope.Data.Header
	if header == nil {
		return nil, "", "missing header"
	}
	code := strings.TrimSpace(header.ErrorCode.Value)
	if !header.ErrorCode.Valid || code == "" {
		return nil, "", "missing error code"
	}
	if _, ok := successCodes[code]; !ok {
		return nil, "", "error code " + code + ": " + header.ErrorDesc.Value
	}

	list := bytes.TrimSpace(envelope.Data.Data)
	if len(list) == 0 || bytes.Equal(list, []byte("null")) {
		return nil, "", "missing offer list"
	}
	var offers []json.RawMessage
	if err := json.Unmarshal(list, &offers); err != nil {
		return nil, "", "offer list is not an array"
	}

	agency := raw.Key.AgencyCode
	if agency == "" {
		agency = strings.TrimSpace(header.AgentCode.Value)
	}
	return offers, agency, ""
}
