package portal

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
)

// DefaultUserAgent is the browser identity sent to the portal
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/136.0.0.0 Safari/537.36"

// maxBodyBytes bounds a single search response
const maxBodyBytes = 16 << 20

// ClientOptions configures the portal client
type ClientOptions struct {
	BaseURL   string
	APIURL    string
	TargetURL string
	UserAgent string
	Timeout   time.Duration

	MaxConns        int
	MaxConnsPerHost int
}

// Client performs fare searches against the booking portal
type Client struct {
	httpClient *http.Client
	opts       ClientOptions
	logger     logger.Logger
}

// NewTransport builds the pooled transport shared by all searches
func NewTransport(maxConns, maxConnsPerHost int) *http.Transport {
	if maxConns <= 0 {
		maxConns = 100
	}
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 50
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          maxConns,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewClient creates a new portal client
func NewClient(opts ClientOptions, logger logger.Logger) repository.PortalClient {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.BaseURL == "" {
		if u, err := url.Parse(opts.APIURL); err == nil {
			opts.BaseURL = u.Scheme + "://" + u.Host
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: NewTransport(opts.MaxConns, opts.MaxConnsPerHost),
		},
		opts:   opts,
		logger: logger,
	}
}

// Search posts one fare search and returns the body of a 200 response
func (c *Client) Search(ctx context.Context, cookies entity.CookieSet, key entity.RequestKey) ([]byte, error) {
	form := SearchForm(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Referer", c.opts.TargetURL)
	req.Header.Set("Origin", c.opts.BaseURL)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	for _, cookie := range cookies.HTTPCookies() {
		req.AddCookie(cookie)
	}

	c.logger.Debug("Searching fares", "key", key.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", entity.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// SearchForm is the form body the portal expects for one search
func SearchForm(key entity.RequestKey) url.Values {
	return url.Values{
		"pDep":     {key.Origin},
		"pArr":     {key.Destination},
		"pDepDate": {key.CompactDate()},
		"pArrDate": {""},
		"pAdt":     {strconv.Itoa(key.Passengers.Adults)},
		"pChd":     {strconv.Itoa(key.Passengers.Children)},
		"pInf":     {strconv.Itoa(key.Passengers.Infants)},
		"pSeat":    {key.SeatClass},
		"comp":     {key.AgencyCode},
		"carCode":  {"ALL"},
	}
}
