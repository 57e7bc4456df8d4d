package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"

	"dealboard-bot/models"
)

// searchResponse is the JSON envelope of the paged results endpoint. The
// host reports success as an integer flag.
type searchResponse struct {
	Success     int    `json:"success"`
	TotalCount  int    `json:"total_count"`
	ResultsHTML string `json:"results_html"`
}

// Fetcher pulls one page of discounted items from the storefront. The JSON
// endpoint is primary; the plain HTML listing serves as fallback when the
// primary repeats another page's items, which the endpoint is known to do
// when its offset handling glitches.
type Fetcher struct {
	session  *Session
	baseURL  string
	pageSize int
	sort     string

	mu   sync.Mutex
	last map[string]lastListing
}

// lastListing is the per-region memory drift detection compares against:
// the most recently fetched page index and the ids it carried.
type lastListing struct {
	pageIndex int
	ids       []int64
}

// NewFetcher builds a fetcher over an established session. pageSize is the
// item count requested per page and the divisor for total page math.
func NewFetcher(session *Session, baseURL string, pageSize int) *Fetcher {
	return &Fetcher{
		session:  session,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		sort:     "discount",
		last:     make(map[string]lastListing),
	}
}

// FetchPage retrieves page pageIndex (zero-based) for a region. An auth
// rejection invalidates the session and retries once on a fresh one. When
// the primary returns the same items as the previous page, the HTML fallback
// is consulted; a failing fallback is logged and the primary result stands.
func (f *Fetcher) FetchPage(ctx context.Context, region string, pageIndex int) (*models.Page, error) {
	if err := f.session.EnsureSession(ctx, region); err != nil {
		return nil, fmt.Errorf("session bootstrap for %s: %w", region, err)
	}

	resp, err := f.fetchPrimary(ctx, region, pageIndex)
	if errors.Is(err, ErrAccessDenied) {
		log.Printf("fetcher: access denied for %s page %d, rebuilding session", region, pageIndex)
		f.session.Invalidate(region)
		if err = f.session.EnsureSession(ctx, region); err != nil {
			return nil, fmt.Errorf("session rebuild for %s: %w", region, err)
		}
		resp, err = f.fetchPrimary(ctx, region, pageIndex)
	}
	if err != nil {
		return nil, err
	}

	items := ParseItems(resp.ResultsHTML)
	page := &models.Page{
		Items:      items,
		TotalPages: totalPages(resp.TotalCount, f.pageSize, pageIndex, len(items)),
	}

	if f.driftDetected(region, pageIndex, items) {
		log.Printf("fetcher: page %d for %s repeats the last listing, using fallback", pageIndex, region)
		fallback, ferr := f.fetchFallback(ctx, region, pageIndex)
		if ferr != nil {
			log.Printf("fetcher: fallback for %s page %d failed, keeping primary: %v", region, pageIndex, ferr)
		} else {
			page.Items = fallback
			if len(fallback) < f.pageSize {
				page.TotalPages = pageIndex + 1
			}
		}
	}

	f.rememberIDs(region, pageIndex, page.Items)
	return page, nil
}

// fetchPrimary hits the JSON results endpoint for one page.
func (f *Fetcher) fetchPrimary(ctx context.Context, region string, pageIndex int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("json", "1")
	q.Set("region", region)
	q.Set("start", strconv.Itoa(pageIndex*f.pageSize))
	q.Set("count", strconv.Itoa(f.pageSize))
	q.Set("sort", f.sort)

	body, err := f.get(ctx, f.baseURL+"/search/results?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if resp.Success != 1 {
		return nil, fmt.Errorf("%w: success=%d", ErrBadResponse, resp.Success)
	}
	return &resp, nil
}

// fetchFallback scrapes the plain HTML listing, whose page parameter is
// one-based. An empty result set counts as a bad response so callers never
// swap a populated page for nothing.
func (f *Fetcher) fetchFallback(ctx context.Context, region string, pageIndex int) ([]models.SaleItem, error) {
	q := url.Values{}
	q.Set("region", region)
	q.Set("page", strconv.Itoa(pageIndex+1))
	q.Set("sort", f.sort)

	body, err := f.get(ctx, f.baseURL+"/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	items := ParseItems(string(body))
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty fallback listing", ErrBadResponse)
	}
	return items, nil
}

// get performs one GET through the session's client. Auth rejections, both
// explicit status codes and silent redirects into the age gate, surface as
// ErrAccessDenied so FetchPage can rebuild the session.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.session.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAccessDenied
	}
	if strings.Contains(resp.Request.URL.Path, "/agecheck") {
		return nil, ErrAccessDenied
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	return io.ReadAll(resp.Body)
}

// totalPages derives the page count from the reported total when present,
// otherwise estimates from the shape of the current page: a full page means
// at least one more exists, a short page means this is the last.
func totalPages(totalCount, pageSize, pageIndex, got int) int {
	if totalCount > 0 {
		return (totalCount + pageSize - 1) / pageSize
	}
	if got >= pageSize {
		return pageIndex + 2
	}
	return max(1, pageIndex+1)
}

// driftDetected reports whether this page's items exactly repeat the most
// recently fetched listing of a different page, the signature of the
// endpoint ignoring its offset. A refetch of the same index legitimately
// returns the same items, and page zero has no predecessor; neither counts
// as drift.
func (f *Fetcher) driftDetected(region string, pageIndex int, items []models.SaleItem) bool {
	if pageIndex == 0 || len(items) == 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.last[region]
	if !ok || prev.pageIndex == pageIndex {
		return false
	}
	return slices.Equal(itemIDs(items), prev.ids)
}

func (f *Fetcher) rememberIDs(region string, pageIndex int, items []models.SaleItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last[region] = lastListing{pageIndex: pageIndex, ids: itemIDs(items)}
}

func itemIDs(items []models.SaleItem) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
