package catalog_test

import (
	"fmt"
	"strings"
	"testing"

	"dealboard-bot/catalog"
)

// fullRowHTML is a complete result row: numeric id, title, explicit discount
// badge, structured price block and an item link.
const fullRowHTML = `
<a class="search-result" data-item-id="730" href="https://store.example.com/item/730">
  <div class="title">Tactical Shooter</div>
  <div class="discount-pct">-50%</div>
  <div class="price-block">
    <span class="original-price">19,99€</span>
    <span class="final-price">9,99€</span>
  </div>
</a>`

// noPercentRowHTML has no discount badge; the percent must be computed from
// the two prices.
const noPercentRowHTML = `
<a class="search-result" data-item-id="440" href="https://store.example.com/item/440">
  <div class="title">Team Game</div>
  <div class="price-block">
    <span class="original-price">€19,99</span>
    <span class="final-price">€9,99</span>
  </div>
</a>`

// bundleRowHTML is an editorial tile without a numeric catalog id.
const bundleRowHTML = `
<a class="search-result" href="https://store.example.com/bundle/55">
  <div class="title">Publisher Bundle</div>
  <div class="discount-pct">-80%</div>
  <div class="price-block"><span class="final-price">4,99€</span></div>
</a>`

// noTitleRowHTML is missing its title element.
const noTitleRowHTML = `
<a class="search-result" data-item-id="42" href="https://store.example.com/item/42">
  <div class="discount-pct">-25%</div>
  <div class="price-block">
    <span class="original-price">20,00€</span>
    <span class="final-price">15,00€</span>
  </div>
</a>`

// freeformRowHTML carries both prices in one unstructured text node.
const freeformRowHTML = `
<a class="search-result" data-item-id="570" href="https://store.example.com/item/570">
  <div class="title">Arena Game</div>
  <div class="price">$19.99 $9.99</div>
</a>`

// fullPriceRowHTML is not discounted at all and must be dropped.
const fullPriceRowHTML = `
<a class="search-result" data-item-id="10" href="https://store.example.com/item/10">
  <div class="title">Full Price Game</div>
  <div class="price-block">
    <span class="original-price">29,99€</span>
    <span class="final-price">29,99€</span>
  </div>
</a>`

// brokenBadgeRowHTML has an out-of-range badge; the computed percent from the
// prices must win.
const brokenBadgeRowHTML = `
<a class="search-result" data-item-id="88" href="https://store.example.com/item/88">
  <div class="title">Glitchy Listing</div>
  <div class="discount-pct">-150%</div>
  <div class="price-block">
    <span class="original-price">10,00€</span>
    <span class="final-price">5,00€</span>
  </div>
</a>`

func TestParseItems_FullRow(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(fullRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.ID != 730 {
		t.Errorf("ID: expected 730, got %d", item.ID)
	}
	if item.Name != "Tactical Shooter" {
		t.Errorf("Name: expected %q, got %q", "Tactical Shooter", item.Name)
	}
	if item.DiscountPercent != 50 {
		t.Errorf("DiscountPercent: expected 50, got %d", item.DiscountPercent)
	}
	if item.FinalPriceText != "9,99€" {
		t.Errorf("FinalPriceText: expected %q, got %q", "9,99€", item.FinalPriceText)
	}
	if item.OriginalPriceText != "19,99€" {
		t.Errorf("OriginalPriceText: expected %q, got %q", "19,99€", item.OriginalPriceText)
	}
	if item.URL != "https://store.example.com/item/730" {
		t.Errorf("URL: expected item link, got %q", item.URL)
	}
}

func TestParseItems_ComputedDiscount(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(noPercentRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].DiscountPercent != 50 {
		t.Errorf("expected computed discount 50 for €19,99 -> €9,99, got %d", items[0].DiscountPercent)
	}
}

func TestParseItems_SkipsRowsWithoutID(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(bundleRowHTML + fullRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected bundle row to be skipped, got %d items", len(items))
	}
	if items[0].ID != 730 {
		t.Errorf("expected the id-bearing row to survive, got id %d", items[0].ID)
	}
}

func TestParseItems_NameFallback(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(noTitleRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Name != "Item 42" {
		t.Errorf("expected fallback name %q, got %q", "Item 42", items[0].Name)
	}
}

func TestParseItems_FreeformPriceSplit(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(freeformRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	item := items[0]
	if item.OriginalPriceText != "$19.99" {
		t.Errorf("OriginalPriceText: expected first token, got %q", item.OriginalPriceText)
	}
	if item.FinalPriceText != "$9.99" {
		t.Errorf("FinalPriceText: expected last token, got %q", item.FinalPriceText)
	}
	if item.DiscountPercent != 50 {
		t.Errorf("DiscountPercent: expected computed 50, got %d", item.DiscountPercent)
	}
}

func TestParseItems_DropsUndiscountedRows(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(fullPriceRowHTML)
	if len(items) != 0 {
		t.Fatalf("expected full-price row to be dropped, got %d items", len(items))
	}
}

func TestParseItems_BrokenBadgeFallsBackToComputed(t *testing.T) {
	t.Parallel()

	items := catalog.ParseItems(brokenBadgeRowHTML)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].DiscountPercent != 50 {
		t.Errorf("expected computed 50 to replace the -150%% badge, got %d", items[0].DiscountPercent)
	}
}

func TestParseItems_ExplicitBadgeWinsOverComputed(t *testing.T) {
	t.Parallel()

	// Prices imply 50% but the host says 30%; the host's badge wins.
	row := priceRow(1, "10,00€", "5,00€", "-30%")

	items := catalog.ParseItems(row)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].DiscountPercent != 30 {
		t.Errorf("expected badge percent 30, got %d", items[0].DiscountPercent)
	}
}

func TestParseItems_DocumentOrder(t *testing.T) {
	t.Parallel()

	fragment := priceRow(3, "10,00€", "5,00€", "") +
		priceRow(1, "10,00€", "5,00€", "") +
		priceRow(2, "10,00€", "5,00€", "")

	items := catalog.ParseItems(fragment)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []int64{3, 1, 2} {
		if items[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, items[i].ID)
		}
	}
}

// TestParseItems_DiscountMath pins the computed-percent formula:
// max(1, round((1 - final/original) * 100)).
func TestParseItems_DiscountMath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		final    string
		original string
		expected int
	}{
		{"9,99", "19,99", 50},
		{"7,49", "9,99", 25},
		{"6,67", "20,00", 67},
		{"0,50", "1,00", 50},
		{"99,99", "100,00", 1}, // rounds to 0, clamped up to 1
	}

	for _, tt := range tests {
		t.Run(tt.final+" of "+tt.original, func(t *testing.T) {
			t.Parallel()

			items := catalog.ParseItems(priceRow(7, tt.original, tt.final, ""))
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}
			if items[0].DiscountPercent != tt.expected {
				t.Errorf("final %s of %s: expected %d%%, got %d%%",
					tt.final, tt.original, tt.expected, items[0].DiscountPercent)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"9.99", 9.99, true},
		{"9,99", 9.99, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"$1,234.56", 1234.56, true},
		{"€ 19,99", 19.99, true},
		{"1.234.567,89", 1234567.89, true},
		{"123", 123, true},
		// The last separator is always the decimal point, even where a
		// human would read thousands grouping.
		{"12,345", 12.345, true},
		{"Free", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		name := tt.input
		if name == "" {
			name = "empty"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := catalog.ParsePrice(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParsePrice(%q): expected ok=%v, got %v", tt.input, tt.ok, ok)
			}
			if ok && !almostEqual(got, tt.expected) {
				t.Errorf("ParsePrice(%q): expected %v, got %v", tt.input, tt.expected, got)
			}
		})
	}
}

// --- test helpers ---

// priceRow builds one result row with a structured price block. badge is the
// literal badge text ("-30%"), empty for none.
func priceRow(id int64, original, final, badge string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<a class="search-result" data-item-id="%d" href="https://store.example.com/item/%d">`, id, id)
	fmt.Fprintf(&b, `<div class="title">Item %d Title</div>`, id)
	if badge != "" {
		fmt.Fprintf(&b, `<div class="discount-pct">%s</div>`, badge)
	}
	fmt.Fprintf(&b, `<div class="price-block"><span class="original-price">%s</span><span class="final-price">%s</span></div></a>`, original, final)
	return b.String()
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
