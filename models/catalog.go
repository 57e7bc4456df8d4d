package models

import "time"

// SaleItem represents a single discounted catalog entry on a search results page.
type SaleItem struct {
	ID                int64  `json:"id"`                  // Stable numeric catalog ID
	Name              string `json:"name"`                // Display name, falls back to "Item <id>"
	DiscountPercent   int    `json:"discount_percent"`    // In (0, 100]
	FinalPriceText    string `json:"final_price_text"`    // Discounted price as shown by the host
	OriginalPriceText string `json:"original_price_text"` // Pre-discount price, empty if the host omitted it
	URL               string `json:"url"`                 // Link to the item's page
}

// Page is one cached page of search results.
// It is owned by the page cache: created by the fetcher, mutated only through
// cache Set and touch, evicted by TTL expiry or LRU capacity pressure.
type Page struct {
	Items      []SaleItem `json:"items"`
	TotalPages int        `json:"total_pages"` // Always >= 1
	ExpiresAt  time.Time  `json:"expires_at"`
}

// Expired reports whether the page is past its TTL.
func (p *Page) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
