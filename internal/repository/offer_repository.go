package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/culture-marketplace/internal/search"
)

// OfferRepo serves the search indexing pipeline with denormalized offer
// documents.
type OfferRepo struct{ DB *sql.DB }

func NewOfferRepo(db *sql.DB) *OfferRepo { return &OfferRepo{DB: db} }

// SearchDocumentsByIDs builds one search document per active offer in ids
// and returns, alongside, the ids that must leave the index because the
// offer is inactive or gone.
func (r *OfferRepo) SearchDocumentsByIDs(ctx context.Context, ids []int64) ([]search.Document, []int64, error) {
	if len(ids) == 0 {
		return nil, nil, nil
	}
	query := `SELECT o.id, o.name, o.description, o.product_type, o.venue_id, v.name,
	                 MIN(s.price_cents),
	                 COALESCE(MAX(s.id IS NOT NULL
	                              AND s.price_cents IS NOT NULL
	                              AND (s.booking_limit_datetime IS NULL OR s.booking_limit_datetime > UTC_TIMESTAMP())), 0)
	          FROM offers o
	          JOIN venues v ON v.id = o.venue_id
	          LEFT JOIN stocks s ON s.offer_id = o.id AND s.is_soft_deleted = 0
	          WHERE o.is_active = 1 AND o.id IN (` + placeholders(len(ids)) + `)
	          GROUP BY o.id, o.name, o.description, o.product_type, o.venue_id, v.name`
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	docs := make([]search.Document, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for rows.Next() {
		var (
			doc      search.Document
			minPrice sql.NullInt64
			bookable int
		)
		if err := rows.Scan(&doc.OfferID, &doc.Name, &doc.Description, &doc.ProductType,
			&doc.VenueID, &doc.VenueName, &minPrice, &bookable); err != nil {
			return nil, nil, err
		}
		if minPrice.Valid {
			v := minPrice.Int64
			doc.MinPriceCents = &v
		}
		doc.IsBookable = bookable == 1
		seen[doc.OfferID] = true
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var removed []int64
	for _, id := range ids {
		if !seen[id] {
			removed = append(removed, id)
		}
	}
	return docs, removed, nil
}
