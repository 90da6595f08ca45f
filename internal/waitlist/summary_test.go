package waitlist

import (
	"strings"
	"testing"
)

func diffOf(t *testing.T, current, proposed map[string]any) Diff {
	t.Helper()
	return ComputeDiff(current, proposed)
}

func TestSummarize_Buckets(t *testing.T) {
	d := diffOf(t,
		map[string]any{"price": 100.0, "name": "Old", "status": "active"},
		map[string]any{"price": 90.0, "name": "New", "status": "passive"},
	)
	s := Summarize(d)

	if s.TotalChanges != 3 {
		t.Fatalf("TotalChanges = %d, want 3", s.TotalChanges)
	}
	if len(s.PriceChanges) != 1 || s.PriceChanges[0].Field != "price" {
		t.Fatalf("PriceChanges = %+v", s.PriceChanges)
	}
	if len(s.ContentChanges) != 1 || s.ContentChanges[0].Field != "name" {
		t.Fatalf("ContentChanges = %+v", s.ContentChanges)
	}
	if len(s.StatusChanges) != 1 || s.StatusChanges[0].Field != "status" {
		t.Fatalf("StatusChanges = %+v", s.StatusChanges)
	}
	// A 10% drop is not significant.
	if len(s.SignificantChanges) != 0 {
		t.Fatalf("SignificantChanges = %+v, want none", s.SignificantChanges)
	}
}

func TestSummarize_MajorPriceChange(t *testing.T) {
	d := diffOf(t,
		map[string]any{"price": 100.0},
		map[string]any{"price": 70.0},
	)
	s := Summarize(d)
	if len(s.SignificantChanges) != 1 {
		t.Fatalf("want 1 significant change, got %+v", s.SignificantChanges)
	}
	if s.SignificantChanges[0].Significance != SignificanceMajorPriceChange {
		t.Fatalf("significance = %s", s.SignificantChanges[0].Significance)
	}
}

func TestSummarize_StockSwings(t *testing.T) {
	drop := Summarize(diffOf(t,
		map[string]any{"stock": 100.0},
		map[string]any{"stock": 10.0},
	))
	if len(drop.SignificantChanges) != 1 || drop.SignificantChanges[0].Significance != SignificanceMajorStockDecrease {
		t.Fatalf("stock drop: %+v", drop.SignificantChanges)
	}

	spike := Summarize(diffOf(t,
		map[string]any{"stock": 10.0},
		map[string]any{"stock": 100.0},
	))
	if len(spike.SignificantChanges) != 1 || spike.SignificantChanges[0].Significance != SignificanceMajorStockIncrease {
		t.Fatalf("stock spike: %+v", spike.SignificantChanges)
	}

	soldOut := Summarize(diffOf(t,
		map[string]any{"stock": 100.0},
		map[string]any{"stock": 0.0},
	))
	if len(soldOut.SignificantChanges) != 1 || soldOut.SignificantChanges[0].Significance != SignificanceMajorStockDecrease {
		t.Fatalf("stock drop to zero: %+v", soldOut.SignificantChanges)
	}

	mild := Summarize(diffOf(t,
		map[string]any{"stock": 100.0},
		map[string]any{"stock": 60.0},
	))
	if len(mild.SignificantChanges) != 0 {
		t.Fatalf("mild stock change flagged: %+v", mild.SignificantChanges)
	}
}

func TestSummarize_BrandOrCategoryAlwaysSignificant(t *testing.T) {
	s := Summarize(diffOf(t,
		map[string]any{"brand_id": "b1"},
		map[string]any{"brand_id": "b2"},
	))
	if len(s.SignificantChanges) != 1 || s.SignificantChanges[0].Significance != SignificanceCategoryOrBrandChange {
		t.Fatalf("brand change: %+v", s.SignificantChanges)
	}
}

func TestSummarize_SignificantSubsetOfDiff(t *testing.T) {
	d := diffOf(t,
		map[string]any{"price": 10.0, "stock": 1000.0, "category_id": "c1", "name": "A"},
		map[string]any{"price": 30.0, "stock": 10.0, "category_id": "c2", "name": "B"},
	)
	s := Summarize(d)
	for _, sig := range s.SignificantChanges {
		if _, ok := d[sig.Field]; !ok {
			t.Fatalf("significant change %q not present in diff", sig.Field)
		}
	}
}

func TestDescribe_NoChanges(t *testing.T) {
	if got := Describe(Diff{}); got != "No changes detected" {
		t.Fatalf("Describe = %q", got)
	}
}

func TestDescribe_SinglePriceChange(t *testing.T) {
	d := diffOf(t,
		map[string]any{"price": 100.0},
		map[string]any{"price": 125.0},
	)
	got := Describe(d)
	want := "Price changed from 100 to 125 (+25%)"
	if got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
}

func TestDescribe_SingleOtherChange(t *testing.T) {
	d := diffOf(t,
		map[string]any{"name": "Old name"},
		map[string]any{"name": "New name"},
	)
	got := Describe(d)
	want := `Name changed from "Old name" to "New name"`
	if got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
}

func TestDescribe_MultipleWithPrice(t *testing.T) {
	d := diffOf(t,
		map[string]any{"price": 100.0, "discount_price": 90.0, "name": "A", "stock": 1.0},
		map[string]any{"price": 110.0, "discount_price": 95.0, "name": "B", "stock": 2.0},
	)
	got := Describe(d)
	if !strings.HasPrefix(got, "4 changes: price updates (price, discount_price)") {
		t.Fatalf("Describe = %q", got)
	}
	if !strings.HasSuffix(got, "and 2 other fields") {
		t.Fatalf("Describe = %q", got)
	}
}

func TestDescribe_MultipleNonPrice(t *testing.T) {
	d := diffOf(t,
		map[string]any{"name": "A", "status": "active"},
		map[string]any{"name": "B", "status": "passive"},
	)
	got := Describe(d)
	want := "2 changes: Name, Status"
	if got != want {
		t.Fatalf("Describe = %q, want %q", got, want)
	}
}

func TestFormatFieldName(t *testing.T) {
	if got := FormatFieldName("brand_id"); got != "Brand" {
		t.Fatalf("brand_id => %q", got)
	}
	if got := FormatFieldName("custom_attr"); got != "Custom Attr" {
		t.Fatalf("custom_attr => %q", got)
	}
}
