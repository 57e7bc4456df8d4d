package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"dealboard-bot/catalog"
)

const testPageSize = 10

func newTestFetcher(t *testing.T, baseURL string) *catalog.Fetcher {
	t.Helper()

	session, err := catalog.NewSession(baseURL, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error creating session: %v", err)
	}
	return catalog.NewFetcher(session, baseURL, testPageSize)
}

// rowsFor renders one result row per id, all discounted 50%.
func rowsFor(ids ...int64) string {
	var fragment string
	for _, id := range ids {
		fragment += priceRow(id, "19,99€", "9,99€", "")
	}
	return fragment
}

// sequence returns ids first, first+1, ... first+n-1.
func sequence(first int64, n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return ids
}

func writeResults(t *testing.T, w http.ResponseWriter, totalCount int, ids ...int64) {
	t.Helper()

	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success":      1,
		"total_count":  totalCount,
		"results_html": rowsFor(ids...),
	})
	if err != nil {
		t.Errorf("encoding results payload: %v", err)
	}
}

func TestFetchPage_TotalPagesFromTotalCount(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(t, w, 95, sequence(1, testPageSize)...)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	page, err := fetcher.FetchPage(context.Background(), "us", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalPages != 10 {
		t.Errorf("expected ceil(95/10)=10 total pages, got %d", page.TotalPages)
	}
	if len(page.Items) != testPageSize {
		t.Errorf("expected %d items, got %d", testPageSize, len(page.Items))
	}
}

func TestFetchPage_HeuristicFullPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(t, w, 0, sequence(1, testPageSize)...)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	page, err := fetcher.FetchPage(context.Background(), "us", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A full page without a reported total implies at least one more page.
	if page.TotalPages != 2 {
		t.Errorf("expected 2 total pages, got %d", page.TotalPages)
	}
}

func TestFetchPage_HeuristicShortPage(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") != "20" {
			t.Errorf("expected start=20 for page 2, got %q", q.Get("start"))
		}
		if q.Get("count") != "10" {
			t.Errorf("expected count=10, got %q", q.Get("count"))
		}
		if q.Get("region") != "us" {
			t.Errorf("expected region=us, got %q", q.Get("region"))
		}
		writeResults(t, w, 0, sequence(21, 3)...)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	page, err := fetcher.FetchPage(context.Background(), "us", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A short page is the last one.
	if page.TotalPages != 3 {
		t.Errorf("expected 3 total pages, got %d", page.TotalPages)
	}
}

// TestFetchPage_DriftFallback simulates the endpoint ignoring its offset:
// page 1 repeats page 0's ids, so the fetcher consults the HTML listing and
// tightens the page count to the short fallback.
func TestFetchPage_DriftFallback(t *testing.T) {
	t.Parallel()

	var fallbackHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		// The same ids regardless of the requested offset.
		writeResults(t, w, 30, sequence(1, testPageSize)...)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("expected one-based page=2, got %q", r.URL.Query().Get("page"))
		}
		_, _ = w.Write([]byte("<html><body>" + rowsFor(sequence(101, 4)...) + "</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	if _, err := fetcher.FetchPage(context.Background(), "us", 0); err != nil {
		t.Fatalf("unexpected error on page 0: %v", err)
	}

	page, err := fetcher.FetchPage(context.Background(), "us", 1)
	if err != nil {
		t.Fatalf("unexpected error on page 1: %v", err)
	}

	if fallbackHits.Load() != 1 {
		t.Errorf("expected exactly 1 fallback fetch, got %d", fallbackHits.Load())
	}
	if len(page.Items) != 4 {
		t.Fatalf("expected the 4 fallback items, got %d", len(page.Items))
	}
	if page.Items[0].ID != 101 {
		t.Errorf("expected fallback items, got leading id %d", page.Items[0].ID)
	}
	// The short fallback proves page 1 is the last page.
	if page.TotalPages != 2 {
		t.Errorf("expected total pages tightened to 2, got %d", page.TotalPages)
	}
}

// TestFetchPage_DriftFallbackFailureKeepsPrimary verifies a failing fallback
// never turns into a caller-visible error: the stale primary page stands.
func TestFetchPage_DriftFallbackFailureKeepsPrimary(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(t, w, 30, sequence(1, testPageSize)...)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	if _, err := fetcher.FetchPage(context.Background(), "us", 0); err != nil {
		t.Fatalf("unexpected error on page 0: %v", err)
	}

	page, err := fetcher.FetchPage(context.Background(), "us", 1)
	if err != nil {
		t.Fatalf("expected the stale primary result, got error: %v", err)
	}
	if len(page.Items) != testPageSize || page.Items[0].ID != 1 {
		t.Errorf("expected the primary items to stand, got %d items leading with %d",
			len(page.Items), page.Items[0].ID)
	}
	if page.TotalPages != 3 {
		t.Errorf("expected total pages untouched at 3, got %d", page.TotalPages)
	}
}

// TestFetchPage_RefetchSamePageIsNotDrift re-fetches one page, as a cache
// refresh does after TTL expiry, and verifies its identical ids are not
// mistaken for pagination drift, while the same ids on a different page
// still are.
func TestFetchPage_RefetchSamePageIsNotDrift(t *testing.T) {
	t.Parallel()

	var fallbackHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		writeResults(t, w, 30, sequence(11, testPageSize)...)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		fallbackHits.Add(1)
		_, _ = w.Write([]byte("<html><body>" + rowsFor(sequence(201, 4)...) + "</body></html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	if _, err := fetcher.FetchPage(context.Background(), "us", 1); err != nil {
		t.Fatalf("unexpected error on page 1: %v", err)
	}
	page, err := fetcher.FetchPage(context.Background(), "us", 1)
	if err != nil {
		t.Fatalf("unexpected error refetching page 1: %v", err)
	}
	if fallbackHits.Load() != 0 {
		t.Fatalf("expected no fallback for a same-page refetch, got %d", fallbackHits.Load())
	}
	if len(page.Items) != testPageSize || page.Items[0].ID != 11 {
		t.Errorf("expected the primary items, got %d items leading with %d",
			len(page.Items), page.Items[0].ID)
	}

	// The same ids under another page index are still drift.
	if _, err := fetcher.FetchPage(context.Background(), "us", 2); err != nil {
		t.Fatalf("unexpected error on page 2: %v", err)
	}
	if fallbackHits.Load() != 1 {
		t.Errorf("expected the cross-page repeat to hit the fallback once, got %d", fallbackHits.Load())
	}
}

// TestFetchPage_AuthRetryOnce verifies an access rejection rebuilds the
// session and retries the fetch exactly once.
func TestFetchPage_AuthRetryOnce(t *testing.T) {
	t.Parallel()

	var landingHits, resultHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		landingHits.Add(1)
	})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		if resultHits.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		writeResults(t, w, 20, sequence(1, testPageSize)...)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	page, err := fetcher.FetchPage(context.Background(), "us", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != testPageSize {
		t.Errorf("expected a full page after the retry, got %d items", len(page.Items))
	}
	if landingHits.Load() != 2 {
		t.Errorf("expected 2 bootstraps (initial + rebuild), got %d", landingHits.Load())
	}
	if resultHits.Load() != 2 {
		t.Errorf("expected 2 result fetches (denied + retry), got %d", resultHits.Load())
	}
}

func TestFetchPage_AuthFailurePropagates(t *testing.T) {
	t.Parallel()

	var resultHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		resultHits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	_, err := fetcher.FetchPage(context.Background(), "us", 0)
	if !errors.Is(err, catalog.ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if resultHits.Load() != 2 {
		t.Errorf("expected exactly one retry before giving up, got %d fetches", resultHits.Load())
	}
}

func TestFetchPage_AgeGateRedirectIsAccessDenied(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/agecheck", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>confirm your age</body></html>"))
	})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/agecheck", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	_, err := fetcher.FetchPage(context.Background(), "us", 0)
	if !errors.Is(err, catalog.ErrAccessDenied) {
		t.Fatalf("expected the silent age-gate redirect to read as ErrAccessDenied, got %v", err)
	}
}

func TestFetchPage_BadJSON(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>definitely not json</html>"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	_, err := fetcher.FetchPage(context.Background(), "us", 0)
	if !errors.Is(err, catalog.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse, got %v", err)
	}
}

func TestFetchPage_SuccessFlagZero(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {})
	mux.HandleFunc("/search/results", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":0,"total_count":0,"results_html":""}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL)

	_, err := fetcher.FetchPage(context.Background(), "us", 0)
	if !errors.Is(err, catalog.ErrBadResponse) {
		t.Fatalf("expected ErrBadResponse for success=0, got %v", err)
	}
}
