package waitlist

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Price-swing thresholds. The asymmetry follows the Swiss price-display
// rules the scraper operates under; changing them needs domain sign-off.
const (
	// maxPriceDropPct is the largest tolerated price drop before an entry
	// is forced into manual review.
	maxPriceDropPct = 30.0
	// maxPriceRisePct mirrors the drop metric: a drop below -50% means the
	// price more than 1.5× its prior value.
	maxPriceRisePct = -50.0

	// maxDescriptionLen caps the description field length.
	maxDescriptionLen = 5000

	// manualReviewErrorLimit forces manual review once the error count
	// exceeds it, independent of which rules fired.
	manualReviewErrorLimit = 5
)

// Verdict is the outcome of validating a proposed product payload. It is
// produced fresh per call and never mutated afterwards.
type Verdict struct {
	IsValid              bool     `json:"is_valid"`
	Errors               []string `json:"validation_errors"`
	RequiresManualReview bool     `json:"requires_manual_review"`
	PriceDropPercentage  *float64 `json:"price_drop_percentage"`
	HasInvalidDiscount   bool     `json:"has_invalid_discount"`
}

// Validate runs every rule against the proposed payload, comparing against
// the current record when one exists. Rules do not short-circuit: all errors
// are accumulated so the moderator sees the complete picture.
func Validate(proposed, current map[string]any) Verdict {
	v := Verdict{Errors: []string{}}

	name, nameIsString := proposed["name"].(string)
	if !nameIsString || strings.TrimSpace(name) == "" {
		v.Errors = append(v.Errors, "Product name is required and must be a non-empty string")
	}

	price, priceIsNumber := asNumber(proposed["price"])
	if !priceIsNumber || price <= 0 {
		v.Errors = append(v.Errors, "Price is required and must be a positive number")
	}

	slug, slugIsString := proposed["slug"].(string)
	if !slugIsString || strings.TrimSpace(slug) == "" {
		v.Errors = append(v.Errors, "Product slug is required and must be a non-empty string")
	}

	if raw, ok := present(proposed, "discount_price"); ok {
		discount, isNumber := asNumber(raw)
		switch {
		case !isNumber:
			v.Errors = append(v.Errors, "Discount price must be a number")
		case priceIsNumber && discount >= price:
			v.Errors = append(v.Errors, "Discount price must be less than regular price")
			v.HasInvalidDiscount = true
			v.RequiresManualReview = true
		case discount < 0:
			v.Errors = append(v.Errors, "Discount price cannot be negative")
			v.HasInvalidDiscount = true
			v.RequiresManualReview = true
		}
	}

	if raw, ok := present(proposed, "stock"); ok {
		if stock, isNumber := asNumber(raw); !isNumber || stock < 0 {
			v.Errors = append(v.Errors, "Stock must be a non-negative number")
		}
	}

	if current != nil {
		if oldPrice, ok := asNumber(current["price"]); ok && oldPrice != 0 && priceIsNumber && price != 0 {
			drop := (oldPrice - price) / oldPrice * 100
			v.PriceDropPercentage = &drop
			if drop > maxPriceDropPct {
				v.RequiresManualReview = true
				v.Errors = append(v.Errors, fmt.Sprintf("Significant price drop detected: %.1f%%", drop))
			}
			if drop < maxPriceRisePct {
				v.RequiresManualReview = true
				v.Errors = append(v.Errors, fmt.Sprintf("Significant price increase detected: %.1f%%", -drop))
			}
		}
	}

	if raw, ok := present(proposed, "category_id"); ok {
		if _, isString := raw.(string); !isString {
			v.Errors = append(v.Errors, "Category ID must be a string")
		}
	}

	if raw, ok := present(proposed, "stock_code"); ok {
		code, isString := raw.(string)
		if !isString || strings.TrimSpace(code) == "" {
			v.Errors = append(v.Errors, "Stock code must be a non-empty string if provided")
		}
	}

	if raw, ok := present(proposed, "description"); ok {
		desc, isString := raw.(string)
		switch {
		case !isString:
			v.Errors = append(v.Errors, "Description must be a string")
		case len(desc) > maxDescriptionLen:
			v.Errors = append(v.Errors, "Description is too long (maximum 5000 characters)")
		}
	}

	if raw, ok := present(proposed, "image_url"); ok {
		imageURL, isString := raw.(string)
		switch {
		case !isString:
			v.Errors = append(v.Errors, "Image URL must be a string")
		case !isAbsoluteURL(imageURL):
			v.Errors = append(v.Errors, "Image URL must be a valid URL")
		}
	}

	if variants, ok := proposed["variants"].([]any); ok {
		if len(variants) == 0 {
			v.RequiresManualReview = true
			v.Errors = append(v.Errors, "Product has empty variants array - manual review required")
		}
		for i, raw := range variants {
			variant, _ := raw.(map[string]any)
			if sku, ok := variant["sku"].(string); !ok || sku == "" {
				v.Errors = append(v.Errors, fmt.Sprintf("Variant %d: SKU is required and must be a string", i+1))
			}
			if price, ok := asNumber(variant["price"]); !ok || price <= 0 {
				v.Errors = append(v.Errors, fmt.Sprintf("Variant %d: Price is required and must be positive", i+1))
			}
			if raw, ok := present(variant, "stock_quantity"); ok {
				if qty, isNumber := asNumber(raw); !isNumber || qty < 0 {
					v.Errors = append(v.Errors, fmt.Sprintf("Variant %d: Stock quantity must be non-negative", i+1))
				}
			}
		}
	}

	if len(v.Errors) > manualReviewErrorLimit {
		v.RequiresManualReview = true
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// SanitizePayload trims the string fields the validator inspects and coerces
// numeric strings in price/stock fields to numbers. The input map is not
// modified.
func SanitizePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	for _, field := range []string{"name", "description", "stock_code"} {
		if s, ok := out[field].(string); ok {
			out[field] = strings.TrimSpace(s)
		}
	}
	if s, ok := out["slug"].(string); ok {
		out["slug"] = strings.ToLower(strings.TrimSpace(s))
	}
	for _, field := range []string{"price", "discount_price", "stock"} {
		if s, ok := out[field].(string); ok {
			if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				out[field] = n
			}
		}
	}
	return out
}

// present reports whether a key exists with a non-null value.
func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
