package portal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"airfare-collector/internal/domain/entity"
	"airfare-collector/internal/domain/repository"
	"airfare-collector/pkg/logger"
)

// HTTPCredentialProvider loads the portal landing page and keeps the session cookies it sets
type HTTPCredentialProvider struct {
	userAgent string
	timeout   time.Duration
	transport http.RoundTripper
	logger    logger.Logger
}

// NewHTTPCredentialProvider creates a new cookie provider that visits the landing page
func NewHTTPCredentialProvider(userAgent string, timeout time.Duration, transport http.RoundTripper, logger logger.Logger) repository.CredentialProvider {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPCredentialProvider{
		userAgent: userAgent,
		timeout:   timeout,
		transport: transport,
		logger:    logger,
	}
}

// Acquire visits targetURL and returns the cookies stored for it
func (p *HTTPCredentialProvider) Acquire(ctx context.Context, targetURL string) (entity.CookieSet, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid target url: %v", entity.ErrNoCredentials, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	client := &http.Client{Jar: jar, Timeout: p.timeout, Transport: p.transport}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrNoCredentials, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: landing page returned %d", entity.ErrNoCredentials, resp.StatusCode)
	}

	cookies := entity.CookieSet{}
	for _, c := range jar.Cookies(target) {
		cookies[c.Name] = c.Value
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w: landing page set no cookies", entity.ErrNoCredentials)
	}

	p.logger.Info("Acquired portal cookies", "count", len(cookies))
	return cookies, nil
}

// StaticCredentialProvider returns a cookie header supplied by the operator
type StaticCredentialProvider struct {
	cookies entity.CookieSet
}

// NewStaticCredentialProvider parses a Cookie header value such as "JSESSIONID=abc; WMONID=def"
func NewStaticCredentialProvider(header string) (repository.CredentialProvider, error) {
	parsed, err := http.ParseCookie(strings.TrimSpace(header))
	if err != nil {
		return nil, fmt.Errorf("invalid cookie header: %w", err)
	}
	cookies := entity.CookieSet{}
	for _, c := range parsed {
		cookies[c.Name] = c.Value
	}
	return &StaticCredentialProvider{cookies: cookies}, nil
}

// Acquire returns a copy of the configured cookies
func (p *StaticCredentialProvider) Acquire(ctx context.Context, targetURL string) (entity.CookieSet, error) {
	if len(p.cookies) == 0 {
		return nil, entity.ErrNoCredentials
	}
	out := make(entity.CookieSet, len(p.cookies))
	for k, v := range p.cookies {
		out[k] = v
	}
	return out, nil
}
