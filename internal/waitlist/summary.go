package waitlist

import (
	"fmt"
	"strconv"
	"strings"
)

// Significance labels attached to entries of Summary.SignificantChanges.
const (
	SignificanceMajorPriceChange      = "major_price_change"
	SignificanceMajorStockDecrease    = "major_stock_decrease"
	SignificanceMajorStockIncrease    = "major_stock_increase"
	SignificanceCategoryOrBrandChange = "category_or_brand_change"
)

// ChangeDescription is one categorized change within a Summary.
type ChangeDescription struct {
	Field            string     `json:"field"`
	From             any        `json:"from"`
	To               any        `json:"to"`
	Type             ChangeType `json:"type"`
	PercentageChange *float64   `json:"percentage_change,omitempty"`
	Significance     string     `json:"significance,omitempty"`
}

// Summary buckets a diff into price, content, and status changes plus a
// cross-cutting list of changes significant enough to warrant attention.
type Summary struct {
	TotalChanges       int                 `json:"total_changes"`
	PriceChanges       []ChangeDescription `json:"price_changes"`
	ContentChanges     []ChangeDescription `json:"content_changes"`
	StatusChanges      []ChangeDescription `json:"status_changes"`
	SignificantChanges []ChangeDescription `json:"significant_changes"`
}

// Summarize categorizes every entry of a diff. Price fields with a swing
// beyond ±20%, stock collapsing by more than 80% or spiking by more than
// 500%, and any brand/category change are flagged as significant.
func Summarize(diff Diff) Summary {
	s := Summary{
		TotalChanges:       len(diff),
		PriceChanges:       []ChangeDescription{},
		ContentChanges:     []ChangeDescription{},
		StatusChanges:      []ChangeDescription{},
		SignificantChanges: []ChangeDescription{},
	}

	for _, field := range trackedFields {
		change, ok := diff[field]
		if !ok {
			continue
		}
		desc := ChangeDescription{
			Field:            field,
			From:             change.Current,
			To:               change.Proposed,
			Type:             change.Type,
			PercentageChange: change.PercentageChange,
		}

		switch field {
		case "price", "discount_price":
			s.PriceChanges = append(s.PriceChanges, desc)
			if pct := change.PercentageChange; pct != nil && abs(*pct) > 20 {
				sig := desc
				sig.Significance = SignificanceMajorPriceChange
				s.SignificantChanges = append(s.SignificantChanges, sig)
			}
		case "name", "description":
			s.ContentChanges = append(s.ContentChanges, desc)
		case "status", "is_changeable":
			s.StatusChanges = append(s.StatusChanges, desc)
		}

		if field == "stock" && change.Type == ChangeNumeric {
			if pct := change.PercentageChange; pct != nil {
				sig := desc
				switch {
				case *pct < -80:
					sig.Significance = SignificanceMajorStockDecrease
					s.SignificantChanges = append(s.SignificantChanges, sig)
				case *pct > 500:
					sig.Significance = SignificanceMajorStockIncrease
					s.SignificantChanges = append(s.SignificantChanges, sig)
				}
			}
		}

		if field == "category_id" || field == "brand_id" {
			sig := desc
			sig.Significance = SignificanceCategoryOrBrandChange
			s.SignificantChanges = append(s.SignificantChanges, sig)
		}
	}
	return s
}

// Describe renders a diff as a single human-readable sentence for the
// moderation queue listing.
func Describe(diff Diff) string {
	fields := changedFields(diff)

	if len(fields) == 0 {
		return "No changes detected"
	}

	if len(fields) == 1 {
		field := fields[0]
		change := diff[field]
		if field == "price" {
			pct := ""
			if p := change.PercentageChange; p != nil && *p != 0 {
				sign := ""
				if *p > 0 {
					sign = "+"
				}
				pct = fmt.Sprintf(" (%s%s%%)", sign, formatNumber(*p))
			}
			return fmt.Sprintf("Price changed from %v to %v%s", change.Current, change.Proposed, pct)
		}
		return fmt.Sprintf("%s changed from \"%v\" to \"%v\"", FormatFieldName(field), change.Current, change.Proposed)
	}

	var priceFields, otherFields []string
	for _, f := range fields {
		if f == "price" || f == "discount_price" {
			priceFields = append(priceFields, f)
		} else {
			otherFields = append(otherFields, f)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d changes: ", len(fields))
	if len(priceFields) > 0 {
		fmt.Fprintf(&b, "price updates (%s)", strings.Join(priceFields, ", "))
		if len(otherFields) > 0 {
			plural := ""
			if len(otherFields) > 1 {
				plural = "s"
			}
			fmt.Fprintf(&b, " and %d other field%s", len(otherFields), plural)
		}
	} else {
		names := make([]string, len(otherFields))
		for i, f := range otherFields {
			names[i] = FormatFieldName(f)
		}
		b.WriteString(strings.Join(names, ", "))
	}
	return b.String()
}

// changedFields returns the diff's keys in tracked-field order.
func changedFields(diff Diff) []string {
	out := make([]string, 0, len(diff))
	for _, f := range trackedFields {
		if _, ok := diff[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// displayNames overrides the default underscore-to-title formatting.
var displayNames = map[string]string{
	"name":           "Name",
	"price":          "Price",
	"discount_price": "Discount Price",
	"stock":          "Stock",
	"description":    "Description",
	"stock_code":     "Stock Code",
	"image_url":      "Image URL",
	"brand_id":       "Brand",
	"category_id":    "Category",
	"status":         "Status",
	"is_changeable":  "Changeability",
}

// FormatFieldName renders a payload field name for display.
func FormatFieldName(field string) string {
	if n, ok := displayNames[field]; ok {
		return n
	}
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// formatNumber prints a float without a trailing zero fraction.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
