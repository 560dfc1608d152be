// Package search holds the offer search index: an AMQP-backed indexer
// that enqueues reindex requests and a redis-backed document store the
// query surface reads from.
package search

// Document is the denormalized offer view stored in redis under
// search:offer:{id}.  It carries everything the search endpoint returns
// so queries never touch MySQL.
//
// Fields:
//  OfferID       – indexed offer identifier.
//  Name          – offer display name.
//  Description   – offer description.
//  ProductType   – product category of the offer.
//  VenueID       – owning venue identifier.
//  VenueName     – owning venue display name.
//  MinPriceCents – cheapest bookable stock price, nil when none is priced.
//  IsBookable    – whether at least one live stock can still be booked.
type Document struct {
	OfferID       int64  `json:"offer_id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	ProductType   string `json:"product_type"`
	VenueID       int64  `json:"venue_id"`
	VenueName     string `json:"venue_name"`
	MinPriceCents *int64 `json:"min_price_cents"`
	IsBookable    bool   `json:"is_bookable"`
}
