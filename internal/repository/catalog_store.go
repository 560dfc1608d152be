package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/sync"
)

// CatalogStore is the MySQL implementation of the stores the sync core
// depends on: the transactional catalog view used by the reconciliation
// engine and the read/write surface of the SIRET repair tool.
type CatalogStore struct{ DB *sql.DB }

func NewCatalogStore(db *sql.DB) *CatalogStore { return &CatalogStore{DB: db} }

// Transact runs fn inside one database transaction.  Either every write
// of the reconciliation pass lands or none does.
func (s *CatalogStore) Transact(ctx context.Context, fn func(tx sync.CatalogTx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&catalogTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// catalogTx implements sync.CatalogTx over one *sql.Tx.
type catalogTx struct{ tx *sql.Tx }

// StocksByReference returns existing stocks keyed by id_at_providers.
func (c *catalogTx) StocksByReference(ctx context.Context, refs []string) (map[string]model.Stock, error) {
	out := make(map[string]model.Stock, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	query := `SELECT id, offer_id, id_at_providers, price_cents, quantity, raw_provider_quantity,
	                 booking_limit_datetime, is_soft_deleted, last_provider_id
	          FROM stocks WHERE id_at_providers IN (` + placeholders(len(refs)) + `)`
	rows, err := c.tx.QueryContext(ctx, query, asArgs(refs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			st       model.Stock
			price    sql.NullInt64
			quantity sql.NullInt64
			raw      sql.NullInt64
			limit    sql.NullTime
			provider sql.NullInt64
		)
		if err := rows.Scan(&st.ID, &st.OfferID, &st.IDAtProviders, &price, &quantity, &raw,
			&limit, &st.IsSoftDeleted, &provider); err != nil {
			return nil, err
		}
		if price.Valid {
			v := price.Int64
			st.PriceCents = &v
		}
		if quantity.Valid {
			v := int(quantity.Int64)
			st.Quantity = &v
		}
		if raw.Valid {
			v := int(raw.Int64)
			st.RawProviderQuantity = &v
		}
		if limit.Valid {
			t := limit.Time.UTC()
			st.BookingLimitDatetime = &t
		}
		if provider.Valid {
			v := provider.Int64
			st.LastProviderID = &v
		}
		out[st.IDAtProviders] = st
	}
	return out, rows.Err()
}

// OfferIDsByReference returns offer ids keyed by id_at_providers, scoped
// to one venue.
func (c *catalogTx) OfferIDsByReference(ctx context.Context, venueID int64, refs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	query := `SELECT id, id_at_providers FROM offers
	          WHERE venue_id=? AND id_at_providers IN (` + placeholders(len(refs)) + `)`
	args := append([]interface{}{venueID}, asArgs(refs)...)
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id  int64
			ref string
		)
		if err := rows.Scan(&id, &ref); err != nil {
			return nil, err
		}
		out[ref] = id
	}
	return out, rows.Err()
}

// ProductsByReference returns products keyed by their provider reference.
func (c *catalogTx) ProductsByReference(ctx context.Context, refs []string) (map[string]model.Product, error) {
	out := make(map[string]model.Product, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	query := `SELECT id, id_at_providers, name, description, product_type, is_gcu_compatible, extra_data
	          FROM products WHERE id_at_providers IN (` + placeholders(len(refs)) + `)`
	rows, err := c.tx.QueryContext(ctx, query, asArgs(refs)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p     model.Product
			extra sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.IDAtProviders, &p.Name, &p.Description, &p.ProductType,
			&p.IsGcuCompatible, &extra); err != nil {
			return nil, err
		}
		if extra.Valid {
			p.ExtraData = []byte(extra.String)
		}
		out[p.IDAtProviders] = p
	}
	return out, rows.Err()
}

// NotCancelledBookingQuantities sums non-cancelled booking quantities per
// stock, inside the same transaction that will write quantities.
func (c *catalogTx) NotCancelledBookingQuantities(ctx context.Context, stockIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(stockIDs))
	if len(stockIDs) == 0 {
		return out, nil
	}
	query := `SELECT stock_id, COALESCE(SUM(quantity),0) FROM bookings
	          WHERE is_cancelled=0 AND stock_id IN (` + placeholders(len(stockIDs)) + `)
	          GROUP BY stock_id`
	args := make([]interface{}, len(stockIDs))
	for i, id := range stockIDs {
		args[i] = id
	}
	rows, err := c.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			stockID int64
			total   int
		)
		if err := rows.Scan(&stockID, &total); err != nil {
			return nil, err
		}
		out[stockID] = total
	}
	return out, rows.Err()
}

// InsertOffers persists new offers one by one to collect their generated
// ids, which the stocks inserted next depend on.
func (c *catalogTx) InsertOffers(ctx context.Context, offers []*model.Offer) error {
	const q = `INSERT INTO offers (product_id, venue_id, id_at_providers, last_provider_id, name,
	                               description, product_type, booking_email, extra_data, is_active)
	           VALUES (?,?,?,?,?,?,?,?,?,?)`
	for _, o := range offers {
		var extra interface{}
		if len(o.ExtraData) > 0 {
			extra = string(o.ExtraData)
		}
		res, err := c.tx.ExecContext(ctx, q, o.ProductID, o.VenueID, o.IDAtProviders, o.LastProviderID,
			o.Name, o.Description, o.ProductType, o.BookingEmail, extra, o.IsActive)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		o.ID = id
	}
	return nil
}

// InsertStocks persists new stocks in one statement.
func (c *catalogTx) InsertStocks(ctx context.Context, stocks []*model.Stock) error {
	if len(stocks) == 0 {
		return nil
	}
	query := `INSERT INTO stocks (offer_id, id_at_providers, price_cents, quantity, raw_provider_quantity, last_provider_id) VALUES `
	args := make([]interface{}, 0, len(stocks)*6)
	for i, st := range stocks {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?)"
		args = append(args, st.OfferID, st.IDAtProviders, st.PriceCents, st.Quantity, st.RawProviderQuantity, st.LastProviderID)
	}
	_, err := c.tx.ExecContext(ctx, query, args...)
	return err
}

// UpdateStocks applies quantity/price updates to existing stocks.
func (c *catalogTx) UpdateStocks(ctx context.Context, updates []sync.StockUpdate) error {
	const q = `UPDATE stocks SET price_cents=?, quantity=?, raw_provider_quantity=? WHERE id=?`
	for _, u := range updates {
		if _, err := c.tx.ExecContext(ctx, q, u.PriceCents, u.Quantity, u.RawProviderQuantity, u.StockID); err != nil {
			return err
		}
	}
	return nil
}

// ---- SIRET repair surface ----

// VenueByID loads one venue for the repair tool.
func (s *CatalogStore) VenueByID(ctx context.Context, venueID int64) (model.Venue, error) {
	return NewVenueRepo(s.DB).GetByID(ctx, venueID)
}

// OffersWithStocksBySiretSuffix returns every offer of the venue whose
// id_at_providers ends with the given SIRET, stocks eager-loaded.
func (s *CatalogStore) OffersWithStocksBySiretSuffix(ctx context.Context, venueID int64, siret string) ([]sync.OfferWithStocks, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, product_id, venue_id, id_at_providers, is_active
		 FROM offers WHERE venue_id=? AND id_at_providers LIKE ?
		 ORDER BY id`,
		venueID, "%@"+siret)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sync.OfferWithStocks
	index := make(map[int64]int)
	var offerIDs []int64
	for rows.Next() {
		var ows sync.OfferWithStocks
		if err := rows.Scan(&ows.Offer.ID, &ows.Offer.ProductID, &ows.Offer.VenueID,
			&ows.Offer.IDAtProviders, &ows.Offer.IsActive); err != nil {
			return nil, err
		}
		index[ows.Offer.ID] = len(out)
		offerIDs = append(offerIDs, ows.Offer.ID)
		out = append(out, ows)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	query := `SELECT id, offer_id, id_at_providers, price_cents, quantity, is_soft_deleted
	          FROM stocks WHERE offer_id IN (` + placeholders(len(offerIDs)) + `) ORDER BY id`
	args := make([]interface{}, len(offerIDs))
	for i, id := range offerIDs {
		args[i] = id
	}
	srows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var (
			st       model.Stock
			price    sql.NullInt64
			quantity sql.NullInt64
		)
		if err := srows.Scan(&st.ID, &st.OfferID, &st.IDAtProviders, &price, &quantity, &st.IsSoftDeleted); err != nil {
			return nil, err
		}
		if price.Valid {
			v := price.Int64
			st.PriceCents = &v
		}
		if quantity.Valid {
			v := int(quantity.Int64)
			st.Quantity = &v
		}
		if at, ok := index[st.OfferID]; ok {
			out[at].Stocks = append(out[at].Stocks, st)
		}
	}
	return out, srows.Err()
}

// NotCancelledBookingsByStock returns the live bookings of one stock.
func (s *CatalogStore) NotCancelledBookingsByStock(ctx context.Context, stockID int64) ([]model.Booking, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, stock_id, quantity, amount_cents, is_cancelled, is_used
		 FROM bookings WHERE stock_id=? AND is_cancelled=0 ORDER BY id`, stockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.StockID, &b.Quantity, &b.AmountCents,
			&b.IsCancelled, &b.IsUsed); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// NotCancelledBookingQuantity sums the live booked quantity of one stock.
func (s *CatalogStore) NotCancelledBookingQuantity(ctx context.Context, stockID int64) (int, error) {
	var total int
	err := s.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(quantity),0) FROM bookings WHERE stock_id=? AND is_cancelled=0",
		stockID).Scan(&total)
	return total, err
}

// ApplyRepairBatch persists one batch of SIRET corrections in a single
// transaction, so an offer is never left half-migrated (bookings moved
// but the duplicate stock still live, or vice versa).
func (s *CatalogStore) ApplyRepairBatch(ctx context.Context, batch sync.RepairBatch) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, rw := range batch.ReferenceRewrites {
		if _, err := tx.ExecContext(ctx,
			"UPDATE offers SET id_at_providers=? WHERE id=?", rw.NewReference, rw.OfferID); err != nil {
			return err
		}
		for stockID, ref := range rw.StockReferences {
			if _, err := tx.ExecContext(ctx,
				"UPDATE stocks SET id_at_providers=? WHERE id=?", ref, stockID); err != nil {
				return err
			}
		}
	}
	for _, ret := range batch.Retirements {
		if _, err := tx.ExecContext(ctx,
			"UPDATE offers SET is_active=0 WHERE id=?", ret.OfferID); err != nil {
			return err
		}
		for _, mv := range ret.BookingMoves {
			if _, err := tx.ExecContext(ctx,
				"UPDATE bookings SET stock_id=? WHERE id=?", mv.ToStockID, mv.BookingID); err != nil {
				return err
			}
		}
		if len(ret.StockIDs) > 0 {
			query := `UPDATE stocks SET is_soft_deleted=1 WHERE id IN (` + placeholders(len(ret.StockIDs)) + `)`
			args := make([]interface{}, len(ret.StockIDs))
			for i, id := range ret.StockIDs {
				args[i] = id
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// placeholders builds "?,?,?" for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func asArgs(refs []string) []interface{} {
	args := make([]interface{}, len(refs))
	for i, r := range refs {
		args[i] = r
	}
	return args
}
