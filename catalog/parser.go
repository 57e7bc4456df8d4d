package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"dealboard-bot/models"

	"github.com/PuerkitoBio/goquery"
)

// ParseItems extracts normalized sale items from a raw search results
// fragment. Pure and deterministic: the same fragment always yields the same
// items, in document order. Rows that are not genuinely discounted are
// dropped, as are rows without a numeric catalog ID (bundles, editorial
// tiles and similar composites).
func ParseItems(fragment string) []models.SaleItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}

	var items []models.SaleItem
	doc.Find("a.search-result").Each(func(_ int, row *goquery.Selection) {
		if item, ok := parseRow(row); ok {
			items = append(items, item)
		}
	})
	return items
}

// parseRow normalizes a single result row. The bool is false for rows that
// must be skipped: no numeric ID, or no evidence of a discount.
func parseRow(row *goquery.Selection) (models.SaleItem, bool) {
	rawID, _ := row.Attr("data-item-id")
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || id <= 0 {
		return models.SaleItem{}, false
	}

	name := strings.TrimSpace(row.Find(".title").First().Text())
	if name == "" {
		name = fmt.Sprintf("Item %d", id)
	}

	href, _ := row.Attr("href")

	percent := parsePercent(row.Find(".discount-pct").First().Text())
	finalText, originalText := priceTexts(row)

	finalPrice, finalOK := ParsePrice(finalText)
	originalPrice, originalOK := ParsePrice(originalText)
	cheaper := finalOK && originalOK && finalPrice < originalPrice

	if percent == 0 && cheaper {
		percent = computeDiscount(finalPrice, originalPrice)
	}
	if percent <= 0 && !cheaper {
		return models.SaleItem{}, false
	}

	return models.SaleItem{
		ID:                id,
		Name:              name,
		DiscountPercent:   percent,
		FinalPriceText:    finalText,
		OriginalPriceText: originalText,
		URL:               strings.TrimSpace(href),
	}, true
}

// priceTexts pulls the final and original price strings from the structured
// price block when the row has one, otherwise splits the freeform price text
// on whitespace and takes the first/last numeric-looking tokens as
// original/final. A single numeric token is the final price alone.
func priceTexts(row *goquery.Selection) (finalText, originalText string) {
	block := row.Find(".price-block").First()
	if block.Length() > 0 {
		finalText = strings.TrimSpace(block.Find(".final-price").First().Text())
		originalText = strings.TrimSpace(block.Find(".original-price").First().Text())
		if finalText != "" || originalText != "" {
			return finalText, originalText
		}
	}

	var numeric []string
	for _, token := range strings.Fields(row.Find(".price").First().Text()) {
		if _, ok := ParsePrice(token); ok {
			numeric = append(numeric, token)
		}
	}
	switch len(numeric) {
	case 0:
	case 1:
		finalText = numeric[0]
	default:
		originalText = numeric[0]
		finalText = numeric[len(numeric)-1]
	}
	return finalText, originalText
}

// parsePercent reads an explicit discount badge like "-50%". Values outside
// (0, 100] are treated as absent so broken badges fall through to the
// computed discount.
func parsePercent(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimSuffix(s, "%")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 || n > 100 {
		return 0
	}
	return n
}

// ParsePrice normalizes a locale-variant price string ("9.99", "9,99",
// "1.234,56", "$1,234.56") to a float. The last separator encountered is the
// decimal point; every earlier separator is thousands grouping. The bool is
// false for strings without any digits.
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, false
	}

	if last := strings.LastIndexAny(cleaned, ".,"); last >= 0 {
		intPart := strings.Map(stripSeparators, cleaned[:last])
		cleaned = intPart + "." + cleaned[last+1:]
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stripSeparators(r rune) rune {
	if r == '.' || r == ',' {
		return -1
	}
	return r
}

// computeDiscount derives a percentage from two resolved prices, clamped to
// at least 1 so a small but real discount never rounds away to nothing.
func computeDiscount(finalPrice, originalPrice float64) int {
	pct := int(math.Round((1 - finalPrice/originalPrice) * 100))
	if pct < 1 {
		pct = 1
	}
	return pct
}
