package provider

import (
	"errors"
	"fmt"
	"math"
)

// ErrMissingRef reports a raw stock record without a product reference.
// Such a record is a caller bug: the normalizer never skips malformed
// entries silently.
var ErrMissingRef = errors.New("raw stock record has no ref")

// StockDetail is the canonical, transient form of one provider stock
// record.  It is created per sync batch and discarded after upsert;
// nothing persists it.
type StockDetail struct {
	ProductsProviderReference string // product reference, e.g. the ISBN
	OffersProviderReference   string // "{ref}@{siret}"
	StocksProviderReference   string // "{ref}@{siret}"
	AvailableQuantity         int    // quantity as seen by the provider
	PriceCents                *int64 // unit price in cents, nil when the feed has none
}

// Normalize converts one page of raw provider records into canonical
// stock details.  Records are deduplicated by product reference with
// last-wins semantics: when the same ref appears twice in one call, the
// later occurrence's quantity and price overwrite the earlier one.
// Zero-available entries are not filtered here; that decision belongs to
// the reconciliation engine.  Output order follows first appearance of
// each reference in the page.
func Normalize(raws []RawStock, siret string) ([]StockDetail, error) {
	details := make([]StockDetail, 0, len(raws))
	byRef := make(map[string]int, len(raws))
	for i, raw := range raws {
		if raw.Ref == "" {
			return nil, fmt.Errorf("record %d: %w", i, ErrMissingRef)
		}
		d := StockDetail{
			ProductsProviderReference: raw.Ref,
			OffersProviderReference:   raw.Ref + "@" + siret,
			StocksProviderReference:   raw.Ref + "@" + siret,
			AvailableQuantity:         raw.Available,
			PriceCents:                eurosToCents(raw.Price),
		}
		if at, seen := byRef[raw.Ref]; seen {
			details[at] = d // later entry wins for the same reference
			continue
		}
		byRef[raw.Ref] = len(details)
		details = append(details, d)
	}
	return details, nil
}

// eurosToCents converts an optional decimal euro amount into cents,
// rounding to the nearest cent.
func eurosToCents(euros *float64) *int64 {
	if euros == nil {
		return nil
	}
	cents := int64(math.Round(*euros * 100))
	return &cents
}
