package catalog

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Session owns the synthetic browsing state the catalog host expects:
// a cookie jar primed with region, locale and age-gate cookies so search
// requests return region-correct prices without interactive confirmation.
type Session struct {
	client  *http.Client
	baseURL string

	boot  singleflight.Group
	mu    sync.Mutex
	ready map[string]bool // region -> bootstrapped
}

// NewSession creates a session against the catalog host. Every request made
// through Client is bounded by timeout so a hung host fails fast.
func NewSession(baseURL string, timeout time.Duration) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Session{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		baseURL: baseURL,
		ready:   make(map[string]bool),
	}, nil
}

// Client returns the HTTP client carrying the session cookies.
func (s *Session) Client() *http.Client {
	return s.client
}

// EnsureSession primes the cookie jar for a region. Idempotent: once a region
// is bootstrapped further calls return immediately, and concurrent first
// callers share a single bootstrap flight instead of racing each other.
func (s *Session) EnsureSession(ctx context.Context, region string) error {
	s.mu.Lock()
	if s.ready[region] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, err, _ := s.boot.Do(region, func() (interface{}, error) {
		if err := s.bootstrap(ctx, region); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.ready[region] = true
		s.mu.Unlock()
		return nil, nil
	})
	return err
}

// Invalidate forgets a region's bootstrap state so the next EnsureSession
// call rebuilds it. Called when a fetch comes back access-denied.
func (s *Session) Invalidate(region string) {
	s.mu.Lock()
	delete(s.ready, region)
	s.mu.Unlock()
}

// bootstrap visits the regional landing page so the host assigns its session
// cookies, then pins the cookies the host would normally set after the
// interactive region/age prompts.
func (s *Session) bootstrap(ctx context.Context, region string) error {
	landing := s.baseURL + "/?region=" + url.QueryEscape(region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landing, nil)
	if err != nil {
		return fmt.Errorf("failed to build bootstrap request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("bootstrap request failed for region %s: %w", region, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: bootstrap returned status %d", ErrAccessDenied, resp.StatusCode)
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("invalid catalog base URL %s: %w", s.baseURL, err)
	}
	s.client.Jar.SetCookies(base, []*http.Cookie{
		{Name: "region", Value: region, Path: "/"},
		{Name: "age_verified", Value: "1", Path: "/"},
	})

	log.Printf("Catalog session established for region %s", region)
	return nil
}
