package model

import "time"

// Stock is a priced, quantified sellable unit under an Offer.  Quantity
// is nullable: nil means unlimited.  When quantity is set it always
// satisfies quantity >= sum of non-cancelled booking quantities, because
// the reconciliation engine re-adds committed bookings on top of what the
// provider reports: quantity = raw_provider_quantity + committed bookings.
// Stocks superseded during a SIRET migration are soft-deleted, never
// removed.
//
// Fields:
//  ID                   – primary key identifier.
//  OfferID              – owning offer.
//  IDAtProviders        – "{productRef}@{siret}" identifier, unique.
//  PriceCents           – unit price in cents (nullable; bookability is enforced
//                         at booking time, not at sync time).
//  Quantity             – bookable quantity (nullable = unlimited).
//  RawProviderQuantity  – quantity last reported by the provider, before the
//                         committed-bookings adjustment (nullable).
//  BookingLimitDatetime – deadline after which the stock is no longer bookable
//                         (nullable).
//  IsSoftDeleted        – whether the stock has been retired.
//  LastProviderID       – provider that last touched this stock (nullable).
type Stock struct {
	ID                   int64      // stocks.id
	OfferID              int64      // stocks.offer_id
	IDAtProviders        string     // stocks.id_at_providers (unique)
	PriceCents           *int64     // stocks.price_cents (nullable)
	Quantity             *int       // stocks.quantity (nullable = unlimited)
	RawProviderQuantity  *int       // stocks.raw_provider_quantity (nullable)
	BookingLimitDatetime *time.Time // stocks.booking_limit_datetime (nullable)
	IsSoftDeleted        bool       // stocks.is_soft_deleted
	LastProviderID       *int64     // stocks.last_provider_id (nullable)
	CreatedAt            time.Time  // stocks.created_at
	UpdatedAt            time.Time  // stocks.updated_at
}

// RemainingQuantity returns how many units can still be booked given the
// quantity of non-cancelled bookings already committed against the stock.
// It returns nil for unlimited stocks.
func (s Stock) RemainingQuantity(bookedQuantity int) *int {
	if s.Quantity == nil {
		return nil
	}
	remaining := *s.Quantity - bookedQuantity
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
