package sync

import (
	"context"
	"fmt"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/provider"
)

// SynchronizeStocks reconciles one batch of canonical stock details
// against the catalog for a single venue+provider pair, inside the given
// transaction.  It upserts stocks, creates missing offers, and returns
// the ids of every offer whose searchable state changed (new offers
// always, existing offers only on a material price or quantity change).
//
// Rules applied, in order:
//   - a record with zero available quantity that maps to no existing
//     stock is dropped entirely: sold-out references never create offers;
//   - a record whose product is unknown or not GCU compatible is skipped
//     silently, stable across repeated runs;
//   - the written quantity is the provider quantity plus the committed
//     (non-cancelled) booking quantity on that stock, read inside this
//     same transaction, so bookings made through other paths are never
//     overwritten;
//   - the price comes from the record, then from the product's fallback
//     price, and may end up NULL: bookability is enforced at booking
//     time, not here.
//
// Writes are batched in dependency order: new offers first (their ids
// are needed by the stocks), then new stocks, then stock updates.
func SynchronizeStocks(ctx context.Context, tx CatalogTx, details []provider.StockDetail, venue model.Venue, providerID int64) (map[int64]struct{}, error) {
	touched := make(map[int64]struct{})
	if len(details) == 0 {
		return touched, nil
	}

	stockRefs := make([]string, 0, len(details))
	for _, d := range details {
		stockRefs = append(stockRefs, d.StocksProviderReference)
	}
	existingStocks, err := tx.StocksByReference(ctx, stockRefs)
	if err != nil {
		return nil, fmt.Errorf("load existing stocks: %w", err)
	}

	// Drop sold-out records for references we do not carry yet.
	kept := make([]provider.StockDetail, 0, len(details))
	for _, d := range details {
		if d.AvailableQuantity == 0 {
			if _, ok := existingStocks[d.StocksProviderReference]; !ok {
				continue
			}
		}
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		return touched, nil
	}

	offerRefs := make([]string, 0, len(kept))
	productRefs := make([]string, 0, len(kept))
	for _, d := range kept {
		offerRefs = append(offerRefs, d.OffersProviderReference)
		productRefs = append(productRefs, d.ProductsProviderReference)
	}
	offerIDs, err := tx.OfferIDsByReference(ctx, venue.ID, offerRefs)
	if err != nil {
		return nil, fmt.Errorf("load existing offers: %w", err)
	}
	products, err := tx.ProductsByReference(ctx, productRefs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	// Build the offers missing from the catalog.  References whose
	// product is unknown or moderated away are remembered so their stock
	// is not created either.
	var newOffers []*model.Offer
	newOfferByRef := make(map[string]*model.Offer)
	skipped := make(map[string]bool)
	for _, d := range kept {
		if _, ok := offerIDs[d.OffersProviderReference]; ok {
			continue
		}
		if _, ok := existingStocks[d.StocksProviderReference]; ok {
			// Stock exists but its offer could not be resolved for this
			// venue; the update path below still applies.
			continue
		}
		p, ok := products[d.ProductsProviderReference]
		if !ok || !p.IsGcuCompatible {
			skipped[d.OffersProviderReference] = true
			continue
		}
		pid := providerID
		offer := &model.Offer{
			ProductID:      p.ID,
			VenueID:        venue.ID,
			IDAtProviders:  d.OffersProviderReference,
			LastProviderID: &pid,
			Name:           p.Name,
			Description:    p.Description,
			ProductType:    p.ProductType,
			BookingEmail:   venue.BookingEmail,
			ExtraData:      p.ExtraData,
			IsActive:       true,
		}
		newOffers = append(newOffers, offer)
		newOfferByRef[d.OffersProviderReference] = offer
	}

	// Committed booking quantities for every stock about to be updated,
	// read inside this transaction.
	existingIDs := make([]int64, 0, len(existingStocks))
	for _, s := range existingStocks {
		existingIDs = append(existingIDs, s.ID)
	}
	bookedQuantities := map[int64]int{}
	if len(existingIDs) > 0 {
		bookedQuantities, err = tx.NotCancelledBookingQuantities(ctx, existingIDs)
		if err != nil {
			return nil, fmt.Errorf("load booking quantities: %w", err)
		}
	}

	if err := tx.InsertOffers(ctx, newOffers); err != nil {
		return nil, fmt.Errorf("insert offers: %w", err)
	}
	for _, offer := range newOffers {
		touched[offer.ID] = struct{}{}
	}

	var newStocks []*model.Stock
	var updates []StockUpdate
	for _, d := range kept {
		price := resolvePrice(d, products)
		if stock, ok := existingStocks[d.StocksProviderReference]; ok {
			quantity := d.AvailableQuantity + bookedQuantities[stock.ID]
			raw := d.AvailableQuantity
			updates = append(updates, StockUpdate{
				StockID:             stock.ID,
				OfferID:             stock.OfferID,
				PriceCents:          price,
				Quantity:            &quantity,
				RawProviderQuantity: &raw,
			})
			if shouldReindexOffer(stock, price, quantity) {
				touched[stock.OfferID] = struct{}{}
			}
			continue
		}
		if skipped[d.OffersProviderReference] {
			continue
		}
		var offerID int64
		if id, ok := offerIDs[d.OffersProviderReference]; ok {
			offerID = id
		} else if offer, ok := newOfferByRef[d.OffersProviderReference]; ok {
			offerID = offer.ID
		} else {
			continue
		}
		quantity := d.AvailableQuantity
		raw := d.AvailableQuantity
		pid := providerID
		newStocks = append(newStocks, &model.Stock{
			OfferID:             offerID,
			IDAtProviders:       d.StocksProviderReference,
			PriceCents:          price,
			Quantity:            &quantity,
			RawProviderQuantity: &raw,
			LastProviderID:      &pid,
		})
		touched[offerID] = struct{}{}
	}

	if err := tx.InsertStocks(ctx, newStocks); err != nil {
		return nil, fmt.Errorf("insert stocks: %w", err)
	}
	if err := tx.UpdateStocks(ctx, updates); err != nil {
		return nil, fmt.Errorf("update stocks: %w", err)
	}
	return touched, nil
}

// resolvePrice prefers the record's own price and falls back to the
// product's catalog price.  Both may be absent; a nil result is accepted
// at upsert time.
func resolvePrice(d provider.StockDetail, products map[string]model.Product) *int64 {
	if d.PriceCents != nil {
		return d.PriceCents
	}
	if p, ok := products[d.ProductsProviderReference]; ok {
		return p.FallbackPriceCents()
	}
	return nil
}

// shouldReindexOffer reports whether this pass materially changes the
// stock's searchable state.  Unchanged rows must not churn the search
// index.
func shouldReindexOffer(current model.Stock, newPrice *int64, newQuantity int) bool {
	if current.Quantity == nil || *current.Quantity != newQuantity {
		return true
	}
	return !equalPrice(current.PriceCents, newPrice)
}

func equalPrice(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
