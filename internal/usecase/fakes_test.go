package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"airfare-collector/internal/domain/entity"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(entity.ISODateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// portalBody renders a portal response with the given header code and offers
func portalBody(code string, offers ...map[string]any) []byte {
	list := make([]any, len(offers))
	for i, o := range offers {
		list[i] = o
	}
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{
			"header": map[string]any{"errorCode": code, "errorDesc": "", "cnt": len(offers)},
			"data":   list,
		},
	})
	if err != nil {
		panic(err)
	}
	return body
}

func offer(overrides map[string]any) map[string]any {
	o := map[string]any{
		"code":       "LT",
		"mainFlt":    "OZ8901",
		"depCity":    "GMP",
		"depDesc":    "서울/김포",
		"arrCity":    "CJU",
		"arrDesc":    "제주",
		"depDate":    "20250510",
		"arrDate":    "20250510",
		"depTime":    "0930",
		"arrTime":    "1040",
		"carCode":    "OZ",
		"carDesc":    "아시아나",
		"opCarCode":  "",
		"opCarDesc":  "",
		"classCode":  "Y",
		"classDesc":  "일반석",
		"seat":       "9",
		"fare":       "70000",
		"fareOrigin": "85000",
		"fuelChg":    "1000",
		"airTax":     "4000",
		"tasf":       "2000",
	}
	for k, v := range overrides {
		o[k] = v
	}
	return o
}

type searchFunc func(call int, key entity.RequestKey) ([]byte, error)

type fakePortalClient struct {
	mu       sync.Mutex
	calls    map[string]int
	total    int
	inFlight int
	maxSeen  int
	delay    time.Duration
	search   searchFunc
}

func newFakePortalClient(search searchFunc) *fakePortalClient {
	return &fakePortalClient{calls: make(map[string]int), search: search}
}

func (c *fakePortalClient) Search(ctx context.Context, cookies entity.CookieSet, key entity.RequestKey) ([]byte, error) {
	c.mu.Lock()
	c.calls[key.String()]++
	c.total++
	call := c.calls[key.String()]
	c.inFlight++
	if c.inFlight > c.maxSeen {
		c.maxSeen = c.inFlight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.search(call, key)
}

func (c *fakePortalClient) Calls(key entity.RequestKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[key.String()]
}

func (c *fakePortalClient) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

type memRawStore struct {
	mu    sync.Mutex
	items []entity.RawResponse
}

func (s *memRawStore) Save(ctx context.Context, raw entity.RawResponse) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := raw.ScrapeDate.Format(entity.ISODateLayout) + "/" + raw.Key.String()
	raw.SourceRef = ref
	for i, item := range s.items {
		if item.SourceRef == ref {
			s.items[i] = raw
			return ref, nil
		}
	}
	s.items = append(s.items, raw)
	return ref, nil
}

func (s *memRawStore) List(ctx context.Context, filter entity.RawFilter) ([]entity.RawResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.RawResponse
	for _, item := range s.items {
		if filter.Match(item.ScrapeDate) {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeCredentials struct {
	cookies entity.CookieSet
	err     error
	calls   int
}

func (c *fakeCredentials) Acquire(ctx context.Context, targetURL string) (entity.CookieSet, error) {
	c.calls++
	return c.cookies, c.err
}

type memFlatFile struct {
	records []entity.FlightRecord
	saves   int
}

func (f *memFlatFile) Load(ctx context.Context) ([]entity.FlightRecord, error) {
	return f.records, nil
}

func (f *memFlatFile) Save(ctx context.Context, records []entity.FlightRecord) error {
	f.saves++
	f.records = records
	return nil
}

type memSink struct {
	batches [][]entity.FlightRecord
	err     error
}

func (s *memSink) BulkUpsert(ctx context.Context, records []entity.FlightRecord) (entity.UpsertResult, error) {
	if s.err != nil {
		return entity.UpsertResult{Batches: 1, Skipped: len(records)}, s.err
	}
	s.batches = append(s.batches, records)
	return entity.UpsertResult{Written: len(records), Batches: 1}, nil
}

type fakeReporter struct {
	summaries []entity.RunSummary
}

func (r *fakeReporter) Report(ctx context.Context, summary entity.RunSummary) error {
	r.summaries = append(r.summaries, summary)
	return nil
}
