package sync

import (
	"context"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// fakeCatalog is an in-memory catalog for engine and orchestrator tests.
// It implements both Catalog and CatalogTx; Transact applies writes
// directly since these tests never exercise rollbacks.
type fakeCatalog struct {
	stocks      map[string]*model.Stock // by id_at_providers
	offers      map[string]*model.Offer // by id_at_providers
	products    map[string]model.Product
	bookings    map[int64]int // stock id -> non-cancelled quantity
	nextOfferID int64
	nextStockID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		stocks:   map[string]*model.Stock{},
		offers:   map[string]*model.Offer{},
		products: map[string]model.Product{},
		bookings: map[int64]int{},
	}
}

func (f *fakeCatalog) addProduct(p model.Product) {
	f.products[p.IDAtProviders] = p
}

func (f *fakeCatalog) addOffer(o model.Offer) *model.Offer {
	f.nextOfferID++
	o.ID = f.nextOfferID
	f.offers[o.IDAtProviders] = &o
	return &o
}

func (f *fakeCatalog) addStock(s model.Stock) *model.Stock {
	f.nextStockID++
	s.ID = f.nextStockID
	f.stocks[s.IDAtProviders] = &s
	return &s
}

func (f *fakeCatalog) Transact(ctx context.Context, fn func(tx CatalogTx) error) error {
	return fn(f)
}

func (f *fakeCatalog) StocksByReference(_ context.Context, refs []string) (map[string]model.Stock, error) {
	out := map[string]model.Stock{}
	for _, ref := range refs {
		if s, ok := f.stocks[ref]; ok {
			out[ref] = *s
		}
	}
	return out, nil
}

func (f *fakeCatalog) OfferIDsByReference(_ context.Context, venueID int64, refs []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, ref := range refs {
		if o, ok := f.offers[ref]; ok && o.VenueID == venueID {
			out[ref] = o.ID
		}
	}
	return out, nil
}

func (f *fakeCatalog) ProductsByReference(_ context.Context, refs []string) (map[string]model.Product, error) {
	out := map[string]model.Product{}
	for _, ref := range refs {
		if p, ok := f.products[ref]; ok {
			out[ref] = p
		}
	}
	return out, nil
}

func (f *fakeCatalog) NotCancelledBookingQuantities(_ context.Context, stockIDs []int64) (map[int64]int, error) {
	out := map[int64]int{}
	for _, id := range stockIDs {
		if q, ok := f.bookings[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeCatalog) InsertOffers(_ context.Context, offers []*model.Offer) error {
	for _, o := range offers {
		f.nextOfferID++
		o.ID = f.nextOfferID
		clone := *o
		f.offers[o.IDAtProviders] = &clone
	}
	return nil
}

func (f *fakeCatalog) InsertStocks(_ context.Context, stocks []*model.Stock) error {
	for _, s := range stocks {
		f.nextStockID++
		s.ID = f.nextStockID
		clone := *s
		f.stocks[s.IDAtProviders] = &clone
	}
	return nil
}

func (f *fakeCatalog) UpdateStocks(_ context.Context, updates []StockUpdate) error {
	for _, u := range updates {
		for _, s := range f.stocks {
			if s.ID == u.StockID {
				s.PriceCents = u.PriceCents
				s.Quantity = u.Quantity
				s.RawProviderQuantity = u.RawProviderQuantity
			}
		}
	}
	return nil
}
