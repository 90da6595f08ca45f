package waitlist

// Reasons a waitlist entry can be queued for. Stored verbatim on the entry
// and used for queue filtering and reporting.
const (
	ReasonNewProduct      = "new_product"
	ReasonPriceChange     = "price_change"
	ReasonVariantChange   = "variant_change"
	ReasonNameChange      = "name_change"
	ReasonImageChange     = "image_change"
	ReasonSKUChange       = "sku_change"
	ReasonMultipleChanges = "multiple_changes"
)

// ValidReasons lists every accepted reason value.
var ValidReasons = []string{
	ReasonNewProduct,
	ReasonPriceChange,
	ReasonVariantChange,
	ReasonNameChange,
	ReasonImageChange,
	ReasonSKUChange,
	ReasonMultipleChanges,
}

// ValidReason reports whether r is an accepted reason value.
func ValidReason(r string) bool {
	for _, v := range ValidReasons {
		if v == r {
			return true
		}
	}
	return false
}

// ClassifyReason derives the queue reason from a computed diff. A new
// product always classifies as new_product; otherwise the changed fields
// are bucketed and a single bucket yields its specific reason while mixed
// changes collapse to multiple_changes.
func ClassifyReason(diff Diff, isNew bool) string {
	if isNew {
		return ReasonNewProduct
	}

	buckets := map[string]bool{}
	for field := range diff {
		switch field {
		case "price", "discount_price":
			buckets[ReasonPriceChange] = true
		case "name", "description":
			buckets[ReasonNameChange] = true
		case "image_url":
			buckets[ReasonImageChange] = true
		case "stock", "stock_code":
			buckets[ReasonSKUChange] = true
		default:
			buckets[ReasonMultipleChanges] = true
		}
	}

	if len(buckets) == 1 {
		for r := range buckets {
			return r
		}
	}
	return ReasonMultipleChanges
}
