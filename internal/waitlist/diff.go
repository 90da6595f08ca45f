// Package waitlist implements the moderation engine for proposed product
// changes: a field-level diff between the stored and the proposed payload, a
// categorized change summary, and the rule-based validator that gates
// automatic approval.
//
// Product payloads arrive from heterogeneous scraping sources and are
// handled as untyped string-keyed maps; the engine never assumes a fixed
// schema beyond the fields it explicitly inspects. Everything in this
// package is pure and safe for concurrent use.
package waitlist

import (
	"math"
	"strconv"
	"strings"
)

// ChangeType classifies the runtime shape of a changed field.
type ChangeType string

const (
	ChangeNumeric ChangeType = "numeric"
	ChangeText    ChangeType = "text"
	ChangeBoolean ChangeType = "boolean"
	ChangeObject  ChangeType = "object"
)

// FieldDiff records one changed field of a product payload.
type FieldDiff struct {
	Current          any        `json:"current"`
	Proposed         any        `json:"proposed"`
	Type             ChangeType `json:"type"`
	PercentageChange *float64   `json:"percentage_change,omitempty"`
}

// Diff maps a field name to its change. A field appears iff the current and
// proposed values are unequal under the engine's equality rule.
type Diff map[string]FieldDiff

// trackedFields is the fixed allow-list of payload fields the diff engine
// inspects, in presentation order.
var trackedFields = []string{
	"name",
	"price",
	"discount_price",
	"stock",
	"description",
	"stock_code",
	"image_url",
	"brand_id",
	"category_id",
	"status",
	"is_changeable",
}

// ComputeDiff compares the stored product record against a proposed payload
// and returns the field-level diff. A nil current record describes a new
// product: every tracked field present in the proposal diffs against nil.
func ComputeDiff(current, proposed map[string]any) Diff {
	diff := Diff{}
	for _, field := range trackedFields {
		var cur any
		if current != nil {
			cur = current[field]
		}
		prop := proposed[field]
		if valuesEqual(cur, prop) {
			continue
		}

		entry := FieldDiff{
			Current:  cur,
			Proposed: prop,
			Type:     changeTypeOf(cur, prop),
		}
		if entry.Type == ChangeNumeric {
			c, cok := asNumber(cur)
			p, pok := asNumber(prop)
			if cok && pok && c != 0 {
				pct := round2((p - c) / c * 100)
				entry.PercentageChange = &pct
			}
		}
		diff[field] = entry
	}
	return diff
}

// valuesEqual implements the engine's equality rule: nil (absent or null)
// values are interchangeable, arrays compare element-wise, objects compare
// key sets and values recursively, and a number equals its own string
// representation.
func valuesEqual(a, b any) bool {
	if a == nil {
		return b == nil
	}
	if b == nil {
		return false
	}

	// Composite values first: comparing two interfaces holding the same
	// non-comparable type would panic on ==.
	if as, ok := a.([]any); ok {
		bs, ok := b.([]any)
		if !ok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}

	if am, ok := a.(map[string]any); ok {
		bm, ok := b.(map[string]any)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !valuesEqual(av, bv) {
				return false
			}
		}
		return true
	}

	if a == b {
		return true
	}

	// Numeric/string coercion: "12.5" equals 12.5 in either direction.
	if sa, ok := a.(string); ok {
		if nb, ok := asNumber(b); ok {
			na, err := strconv.ParseFloat(strings.TrimSpace(sa), 64)
			return err == nil && na == nb
		}
		return false
	}
	if na, ok := asNumber(a); ok {
		if sb, ok := b.(string); ok {
			nb, err := strconv.ParseFloat(strings.TrimSpace(sb), 64)
			return err == nil && na == nb
		}
		// Cross-width numerics (e.g. int vs float64 from different decoders).
		if nb, ok := asNumber(b); ok {
			return na == nb
		}
	}
	return false
}

// changeTypeOf derives the change classification from the runtime shapes of
// both sides: numeric and boolean require agreement, any composite value on
// either side makes the change an object, everything else is text.
func changeTypeOf(current, proposed any) ChangeType {
	if _, ok := asNumber(current); ok {
		if _, ok := asNumber(proposed); ok {
			return ChangeNumeric
		}
	}
	if _, ok := current.(bool); ok {
		if _, ok := proposed.(bool); ok {
			return ChangeBoolean
		}
	}
	if isComposite(current) || isComposite(proposed) {
		return ChangeObject
	}
	return ChangeText
}

func isComposite(v any) bool {
	switch v.(type) {
	case []any, map[string]any:
		return true
	}
	return false
}

// asNumber normalizes the numeric types produced by JSON decoding and Go
// callers into float64. Strings never count as numbers here; coercion is the
// job of valuesEqual alone.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
