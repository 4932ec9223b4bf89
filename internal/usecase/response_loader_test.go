package usecase

import (
	"testing"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawResponse(scrapeDate, ref, agency string, body []byte) entity.RawResponse {
	return entity.RawResponse{
		Provenance: entity.Provenance{
			ScrapeDate: day(scrapeDate),
			Key:        entity.RequestKey{Origin: "GMP", Destination: "CJU", DepartureDate: day("2025-05-10"), AgencyCode: agency},
			SourceRef:  ref,
		},
		Body: body,
	}
}

func TestResponseLoaderSkipsUnusableResponses(t *testing.T) {
	responses := []entity.RawResponse{
		rawResponse("2025-05-01", "a", "LT", portalBody("0", offer(nil), offer(map[string]any{"mainFlt": "OZ8903"}))),
		rawResponse("2025-05-01", "b", "LT", portalBody("E100")),
		rawResponse("2025-05-01", "c", "LT", []byte(`{"data":{"header":{"errorCode":"0000"},"data":{"flights":[]}}}`)),
		rawResponse("2025-05-01", "d", "LT", []byte(`{"data":{"data":[]}}`)),
		rawResponse("2025-05-01", "e", "LT", []byte(`{"data":{"header":{"errorCode":null},"data":[]}}`)),
		rawResponse("2025-05-01", "f", "LT", []byte(`{"data":{"header":{"errorCode":"0"}}}`)),
		rawResponse("2025-05-01", "g", "LT", []byte(`not json`)),
		rawResponse("2025-05-01", "h", "LT", []byte(`{"result":"ok"}`)),
	}

	rows, summary := NewResponseLoader(nil, logger.NewNop()).Load(responses)

	assert.Equal(t, entity.LoadSummary{Responses: 8, Accepted: 1, Skipped: 7, Rows: 2}, summary)
	require.Len(t, rows, 2)
	assert.Equal(t, "OZ8901", rows[0].Offer.MainFlt.Value)
	assert.Equal(t, "OZ8903", rows[1].Offer.MainFlt.Value)
	assert.Equal(t, "LT", rows[0].AgencyCode)
	assert.Equal(t, "a", rows[0].Provenance.SourceRef)
}

func TestResponseLoaderAcceptsAllSuccessCodes(t *testing.T) {
	responses := []entity.RawResponse{
		rawResponse("2025-05-01", "a", "LT", portalBody("0", offer(nil))),
		rawResponse("2025-05-01", "b", "LT", portalBody("0000", offer(nil))),
		rawResponse("2025-05-01", "c", "LT", []byte(`{"data":{"header":{"errorCode":9999},"data":[{"code":"LT","depDate":20250510}]}}`)),
	}

	rows, summary := NewResponseLoader(nil, logger.NewNop()).Load(responses)

	assert.Equal(t, 3, summary.Accepted)
	require.Len(t, rows, 3)
	assert.Equal(t, "20250510", rows[2].Offer.DepDate.Value)
}

func TestResponseLoaderSkipsBadOffersOnly(t *testing.T) {
	body := []byte(`{"data":{"header":{"errorCode":"0"},"data":[
		{"code":"LT","depDate":"20250510","fare":{"amount":1}},
		"not an offer",
		{"code":"LT","depDate":"20250511"}
	]}}`)

	rows, summary := NewResponseLoader(nil, logger.NewNop()).Load([]entity.RawResponse{
		rawResponse("2025-05-01", "a", "LT", body),
	})

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, 1, summary.OffersSkipped)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].Offer.Fare.Valid)
	assert.Equal(t, "20250511", rows[1].Offer.DepDate.Value)
}

func TestResponseLoaderOrdersByScrapeDate(t *testing.T) {
	responses := []entity.RawResponse{
		rawResponse("2025-05-02", "2025-05-02/x", "LT", portalBody("0", offer(map[string]any{"fare": "80000"}))),
		rawResponse("2025-05-01", "2025-05-01/x", "LT", portalBody("0", offer(map[string]any{"fare": "70000"}))),
	}

	rows, _ := NewResponseLoader(nil, logger.NewNop()).Load(responses)

	require.Len(t, rows, 2)
	assert.Equal(t, "70000", rows[0].Offer.Fare.Value)
	assert.Equal(t, "80000", rows[1].Offer.Fare.Value)
	assert.Equal(t, "2025-05-02/x", responses[0].SourceRef, "input must not be reordered")
}

func TestResponseLoaderFallsBackToHeaderAgency(t *testing.T) {
	body := []byte(`{"data":{"header":{"errorCode":"0","agentCode":"YB2"},"data":[{"code":"YB2","depDate":"20250510"}]}}`)

	rows, _ := NewResponseLoader(nil, logger.NewNop()).Load([]entity.RawResponse{
		rawResponse("2025-05-01", "a", "", body),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "YB2", rows[0].AgencyCode)
}
