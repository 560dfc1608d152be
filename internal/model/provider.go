package model

import "time"

// Provider identifies an external catalog source whose stock feed can be
// synchronized into the marketplace.  Providers that are not active, or
// not enabled for pro actors, are never synchronized.
//
// Fields:
//  ID            – primary key identifier.
//  Name          – human readable provider name, reported in API errors.
//  APIURL        – base URL of the provider stock feed.
//  AuthToken     – bearer token for the feed (nullable when the feed is open).
//  EnabledForPro – whether pro actors may subscribe venues to this provider.
//  IsActive      – master switch for the provider.
type Provider struct {
	ID            int64     // providers.id
	Name          string    // providers.name
	APIURL        string    // providers.api_url
	AuthToken     *string   // providers.auth_token (nullable)
	EnabledForPro bool      // providers.enabled_for_pro
	IsActive      bool      // providers.is_active
	CreatedAt     time.Time // providers.created_at
	UpdatedAt     time.Time // providers.updated_at
}

// VenueProvider is the join entity between one venue and one provider.
// It carries the incremental synchronization cursor (LastSyncDate) and
// the identifier under which the provider knows the venue, which is
// usually the venue SIRET.
//
// Fields:
//  ID                     – primary key identifier.
//  VenueID                – subscribed venue.
//  ProviderID             – provider the venue is subscribed to.
//  VenueIDAtOfferProvider – pivot identifier at the provider, usually the SIRET.
//  LastSyncDate           – UTC instant of the last successful sync (nullable before
//                           the first run; passed as modified_since on later runs).
//  IsActive               – whether this subscription is synchronized.
type VenueProvider struct {
	ID                     int64      // venue_providers.id
	VenueID                int64      // venue_providers.venue_id
	ProviderID             int64      // venue_providers.provider_id
	VenueIDAtOfferProvider string     // venue_providers.venue_id_at_offer_provider
	LastSyncDate           *time.Time // venue_providers.last_sync_date (nullable)
	IsActive               bool       // venue_providers.is_active
	CreatedAt              time.Time  // venue_providers.created_at
	UpdatedAt              time.Time  // venue_providers.updated_at
}
