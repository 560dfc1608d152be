// Package sync holds the stock-synchronization core: the reconciliation
// engine that upserts offers and stocks from provider records, the
// venue-provider orchestrator that walks paginated feeds, and the SIRET
// migration repair tool.  The package depends only on narrow store
// interfaces so the engine can be exercised against the MySQL catalog in
// production and in-memory fakes in tests.
package sync

import (
	"context"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// StockUpdate is one pending mutation of an existing stock row.  Quantity
// is already adjusted for committed bookings; RawProviderQuantity keeps
// the provider's own view.
type StockUpdate struct {
	StockID             int64
	OfferID             int64
	PriceCents          *int64
	Quantity            *int
	RawProviderQuantity *int
}

// CatalogTx is a transactional read/write view over offers, stocks,
// products and booking counts.  All methods of one CatalogTx run inside
// the same database transaction, so booking counts read here are
// consistent with the quantities written here: a booking committed
// concurrently either lands before the count is read (and is reflected
// now) or after (and is reflected on the next sync pass).
type CatalogTx interface {
	// StocksByReference returns existing stocks keyed by id_at_providers.
	StocksByReference(ctx context.Context, refs []string) (map[string]model.Stock, error)
	// OfferIDsByReference returns offer ids keyed by id_at_providers,
	// scoped to one venue.
	OfferIDsByReference(ctx context.Context, venueID int64, refs []string) (map[string]int64, error)
	// ProductsByReference returns products keyed by their provider
	// reference.  The product table is read-only for the sync core.
	ProductsByReference(ctx context.Context, refs []string) (map[string]model.Product, error)
	// NotCancelledBookingQuantities sums non-cancelled booking quantities
	// per stock id.  Stocks without bookings are absent from the map.
	NotCancelledBookingQuantities(ctx context.Context, stockIDs []int64) (map[int64]int, error)
	// InsertOffers persists new offers and fills in their generated ids.
	InsertOffers(ctx context.Context, offers []*model.Offer) error
	// InsertStocks persists new stocks.  OfferID must already be set.
	InsertStocks(ctx context.Context, stocks []*model.Stock) error
	// UpdateStocks applies quantity/price updates to existing stocks.
	UpdateStocks(ctx context.Context, updates []StockUpdate) error
}

// Catalog opens transactional views.  Either every write of fn lands or
// none does.
type Catalog interface {
	Transact(ctx context.Context, fn func(tx CatalogTx) error) error
}
