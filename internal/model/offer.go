package model

import (
	"encoding/json"
	"time"
)

// Offer is a venue-specific sellable instance of a Product.  Offers
// created by the synchronization core are identified within a
// provider+venue scope by IDAtProviders, formatted "{productRef}@{siret}".
// At most one active offer exists per (product reference, venue) pair
// under normal operation; duplicates arising from SIRET changes are
// reconciled by the repair tool.  Offers are never hard-deleted, only
// deactivated.
//
// Fields:
//  ID             – primary key identifier.
//  ProductID      – canonical product this offer sells.
//  VenueID        – venue publishing the offer.
//  IDAtProviders  – "{productRef}@{siret}" identifier, unique.
//  LastProviderID – provider that last touched this offer (nullable for manual offers).
//  Name           – offer title, copied from the product.
//  Description    – copied from the product.
//  ProductType    – copied from the product.
//  BookingEmail   – copied from the venue at creation time.
//  ExtraData      – copied from the product.
//  IsActive       – whether the offer is visible and bookable.
type Offer struct {
	ID             int64           // offers.id
	ProductID      int64           // offers.product_id
	VenueID        int64           // offers.venue_id
	IDAtProviders  string          // offers.id_at_providers (unique)
	LastProviderID *int64          // offers.last_provider_id (nullable)
	Name           string          // offers.name
	Description    string          // offers.description
	ProductType    string          // offers.product_type
	BookingEmail   string          // offers.booking_email
	ExtraData      json.RawMessage // offers.extra_data (JSON, nullable)
	IsActive       bool            // offers.is_active
	CreatedAt      time.Time       // offers.created_at
	UpdatedAt      time.Time       // offers.updated_at
}
