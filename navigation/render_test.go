package navigation_test

import (
	"fmt"
	"testing"

	"dealboard-bot/models"
	"dealboard-bot/navigation"
)

func pageOfItems(totalPages int, items ...models.SaleItem) *models.Page {
	return &models.Page{Items: items, TotalPages: totalPages}
}

func sampleItem(id int64) models.SaleItem {
	return models.SaleItem{
		ID:                id,
		Name:              fmt.Sprintf("Deal %d", id),
		DiscountPercent:   50,
		FinalPriceText:    "9,99€",
		OriginalPriceText: "19,99€",
		URL:               fmt.Sprintf("https://store.example.com/item/%d", id),
	}
}

func TestRender_FirstPage(t *testing.T) {
	t.Parallel()

	content := navigation.Render("us", 0, pageOfItems(10, sampleItem(1)), 42)

	prev, next := navButtons(t, content)
	if !prev.Disabled {
		t.Error("expected prev disabled on the first page")
	}
	if next.Disabled {
		t.Error("expected next enabled with 10 pages")
	}

	region, page, epoch, ok := navigation.ParseCustomID(next.CustomID)
	if !ok {
		t.Fatalf("next button id %q does not parse", next.CustomID)
	}
	if region != "us" || page != 1 || epoch != 42 {
		t.Errorf("expected next to target us page 1 at epoch 42, got %s/%d/%d", region, page, epoch)
	}

	if content.Embed.Title != "🔥 Deals (US) · Page 1/10" {
		t.Errorf("unexpected title %q", content.Embed.Title)
	}
}

func TestRender_LastPage(t *testing.T) {
	t.Parallel()

	content := navigation.Render("us", 9, pageOfItems(10, sampleItem(1)), 7)

	prev, next := navButtons(t, content)
	if prev.Disabled {
		t.Error("expected prev enabled on the last page")
	}
	if !next.Disabled {
		t.Error("expected next disabled on the last page")
	}

	_, page, _, ok := navigation.ParseCustomID(prev.CustomID)
	if !ok || page != 8 {
		t.Errorf("expected prev to target page 8, got %d (ok=%v)", page, ok)
	}
}

// TestRender_SinglePage: both buttons disabled, and their ids must still
// differ so the component rows stay well-formed.
func TestRender_SinglePage(t *testing.T) {
	t.Parallel()

	content := navigation.Render("us", 0, pageOfItems(1, sampleItem(1)), 3)

	prev, next := navButtons(t, content)
	if !prev.Disabled || !next.Disabled {
		t.Error("expected both buttons disabled on a single-page board")
	}
	if prev.CustomID == next.CustomID {
		t.Errorf("button ids must not collide, both are %q", prev.CustomID)
	}
}

func TestRender_ClampsPastEnd(t *testing.T) {
	t.Parallel()

	// A stale page index beyond a shrunken result set renders the last page.
	content := navigation.Render("eu", 42, pageOfItems(3, sampleItem(1)), 5)

	if content.Embed.Title != "🔥 Deals (EU) · Page 3/3" {
		t.Errorf("expected the render clamped to the last page, got title %q", content.Embed.Title)
	}
	prev, next := navButtons(t, content)
	if !next.Disabled {
		t.Error("expected next disabled after clamping to the last page")
	}
	_, page, _, ok := navigation.ParseCustomID(prev.CustomID)
	if !ok || page != 1 {
		t.Errorf("expected prev to target page 1, got %d (ok=%v)", page, ok)
	}
}

func TestRender_ItemFields(t *testing.T) {
	t.Parallel()

	full := sampleItem(7)
	bare := models.SaleItem{ID: 8, Name: "Mystery Bundle", DiscountPercent: 30}
	finalOnly := models.SaleItem{ID: 9, Name: "New Deal", DiscountPercent: 25, FinalPriceText: "4,99€"}

	content := navigation.Render("us", 0, pageOfItems(1, full, bare, finalOnly), 1)

	fields := content.Embed.Fields
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	if fields[0].Name != "Deal 7 · -50%" {
		t.Errorf("unexpected field name %q", fields[0].Name)
	}
	expectedValue := "**9,99€** ~~19,99€~~ · [View](https://store.example.com/item/7)"
	if fields[0].Value != expectedValue {
		t.Errorf("expected value %q, got %q", expectedValue, fields[0].Value)
	}

	if fields[1].Value != "On sale now" {
		t.Errorf("expected a placeholder for the priceless row, got %q", fields[1].Value)
	}
	if fields[2].Value != "**4,99€**" {
		t.Errorf("expected the bare final price, got %q", fields[2].Value)
	}
}

func TestRender_EmptyPage(t *testing.T) {
	t.Parallel()

	content := navigation.Render("us", 0, pageOfItems(1), 1)

	if len(content.Embed.Fields) != 0 {
		t.Errorf("expected no fields on an empty page, got %d", len(content.Embed.Fields))
	}
	if content.Embed.Description == "" {
		t.Error("expected a placeholder description on an empty page")
	}
}

func TestRender_CapsEmbedFields(t *testing.T) {
	t.Parallel()

	items := make([]models.SaleItem, 30)
	for i := range items {
		items[i] = sampleItem(int64(i + 1))
	}
	content := navigation.Render("us", 0, pageOfItems(1, items...), 1)

	if len(content.Embed.Fields) != 25 {
		t.Errorf("expected the embed capped at 25 fields, got %d", len(content.Embed.Fields))
	}
}
