package model

import (
	"encoding/json"
	"math"
	"time"
)

// Product is a canonical catalog entry, for instance a book identified
// by its ISBN.  Products are venue agnostic and read-only from the
// synchronization core's point of view: the sync never mutates them.
//
// Fields:
//  ID              – primary key identifier.
//  IDAtProviders   – provider reference of the product (e.g. the ISBN).
//  Name            – product title.
//  Description     – long description copied onto offers.
//  ProductType     – offer type (e.g. LIVRE_EDITION, ACTIVATION).
//  IsGcuCompatible – terms-of-use gate; incompatible products never yield offers.
//  ExtraData       – free-form JSON metadata; may carry a fallback price.
type Product struct {
	ID              int64           // products.id
	IDAtProviders   string          // products.id_at_providers
	Name            string          // products.name
	Description     string          // products.description
	ProductType     string          // products.product_type
	IsGcuCompatible bool            // products.is_gcu_compatible
	ExtraData       json.RawMessage // products.extra_data (JSON, nullable)
	CreatedAt       time.Time       // products.created_at
	UpdatedAt       time.Time       // products.updated_at
}

// FallbackPriceCents returns the per-product fallback price carried in
// ExtraData under the "prix_livre" key, converted from euros to cents.
// It returns nil when ExtraData is absent, malformed, or has no usable
// price.  The reconciliation engine uses this value when a provider
// record carries no price of its own.
func (p Product) FallbackPriceCents() *int64 {
	if len(p.ExtraData) == 0 {
		return nil
	}
	var extra struct {
		PrixLivre *float64 `json:"prix_livre"`
	}
	if err := json.Unmarshal(p.ExtraData, &extra); err != nil || extra.PrixLivre == nil {
		return nil
	}
	cents := int64(math.Round(*extra.PrixLivre * 100))
	return &cents
}
