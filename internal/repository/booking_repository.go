package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/culture-marketplace/internal/booking"
	"github.com/iliyamo/culture-marketplace/internal/model"
)

// BookingRepo provides the booking ledger: the transactional view the
// booking service runs on and the read queries the pro surface exposes.
type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

// Transact runs fn inside one transaction, implementing booking.Ledger.
func (r *BookingRepo) Transact(ctx context.Context, fn func(tx booking.LedgerTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&ledgerTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CountNotCancelledQuantityByStock sums the live booked quantity of one
// stock, outside any transaction.
func (r *BookingRepo) CountNotCancelledQuantityByStock(ctx context.Context, stockID int64) (int, error) {
	return countNotCancelledQuantity(ctx, r.DB, stockID)
}

// CountNotCancelledQuantityByStockTx is the in-transaction variant.
func (r *BookingRepo) CountNotCancelledQuantityByStockTx(ctx context.Context, tx *sql.Tx, stockID int64) (int, error) {
	return countNotCancelledQuantity(ctx, tx, stockID)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func countNotCancelledQuantity(ctx context.Context, q rowQuerier, stockID int64) (int, error) {
	var total int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(quantity),0) FROM bookings WHERE stock_id=? AND is_cancelled=0",
		stockID).Scan(&total)
	return total, err
}

// FindEligibleForPaymentByVenue returns the bookings of a venue that can
// be reimbursed: used, not cancelled, not tied to an activation offer and
// whose event date is not in the future.
func (r *BookingRepo) FindEligibleForPaymentByVenue(ctx context.Context, venueID int64) ([]model.Booking, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.stock_id, b.quantity, b.amount_cents, b.token,
		        b.is_cancelled, b.is_used, b.created_at
		 FROM bookings b
		 JOIN stocks s ON s.id = b.stock_id
		 JOIN offers o ON o.id = s.offer_id
		 WHERE o.venue_id = ?
		   AND b.is_used = 1
		   AND b.is_cancelled = 0
		   AND o.product_type <> 'ACTIVATION'
		   AND (s.booking_limit_datetime IS NULL OR s.booking_limit_datetime <= UTC_TIMESTAMP())
		 ORDER BY b.id`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ledgerTx implements booking.LedgerTx over one *sql.Tx.
type ledgerTx struct{ tx *sql.Tx }

// StockForBooking loads a stock with its offer.  FOR UPDATE locks the
// row so two concurrent bookings cannot both pass the quantity check.
func (l *ledgerTx) StockForBooking(ctx context.Context, stockID int64) (model.Stock, model.Offer, error) {
	var (
		st       model.Stock
		of       model.Offer
		price    sql.NullInt64
		quantity sql.NullInt64
		limit    sql.NullTime
	)
	err := l.tx.QueryRowContext(ctx,
		`SELECT s.id, s.offer_id, s.id_at_providers, s.price_cents, s.quantity,
		        s.booking_limit_datetime, s.is_soft_deleted,
		        o.id, o.venue_id, o.name, o.product_type, o.is_active
		 FROM stocks s JOIN offers o ON o.id = s.offer_id
		 WHERE s.id = ? FOR UPDATE`, stockID).
		Scan(&st.ID, &st.OfferID, &st.IDAtProviders, &price, &quantity,
			&limit, &st.IsSoftDeleted,
			&of.ID, &of.VenueID, &of.Name, &of.ProductType, &of.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Stock{}, model.Offer{}, booking.ErrStockNotFound
	}
	if err != nil {
		return model.Stock{}, model.Offer{}, err
	}
	if price.Valid {
		v := price.Int64
		st.PriceCents = &v
	}
	if quantity.Valid {
		v := int(quantity.Int64)
		st.Quantity = &v
	}
	if limit.Valid {
		t := limit.Time.UTC()
		st.BookingLimitDatetime = &t
	}
	return st, of, nil
}

// UserByID loads the beneficiary FOR UPDATE so concurrent bookings by
// the same user on different stocks serialize on the wallet check.  The
// stock lock alone would let two of them read the same spent total.
func (l *ledgerTx) UserByID(ctx context.Context, userID int64) (model.User, error) {
	var u model.User
	err := l.tx.QueryRowContext(ctx,
		"SELECT id, role, is_active, deposit_cents FROM users WHERE id = ? FOR UPDATE", userID).
		Scan(&u.ID, &u.Role, &u.IsActive, &u.DepositCents)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, booking.ErrUserNotAllowed
	}
	return u, err
}

func (l *ledgerTx) NotCancelledBookingQuantity(ctx context.Context, stockID int64) (int, error) {
	return countNotCancelledQuantity(ctx, l.tx, stockID)
}

func (l *ledgerTx) SpentCents(ctx context.Context, userID int64) (int64, error) {
	var total int64
	err := l.tx.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents),0) FROM bookings WHERE user_id=? AND is_cancelled=0",
		userID).Scan(&total)
	return total, err
}

func (l *ledgerTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	res, err := l.tx.ExecContext(ctx,
		"INSERT INTO bookings (user_id, stock_id, quantity, amount_cents, token) VALUES (?,?,?,?,?)",
		b.UserID, b.StockID, b.Quantity, b.AmountCents, b.Token)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (l *ledgerTx) BookingByID(ctx context.Context, bookingID int64) (model.Booking, error) {
	row := l.tx.QueryRowContext(ctx,
		`SELECT id, user_id, stock_id, quantity, amount_cents, token, is_cancelled, is_used, created_at
		 FROM bookings WHERE id = ? FOR UPDATE`, bookingID)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, booking.ErrBookingNotFound
	}
	return b, err
}

func (l *ledgerTx) CancelBooking(ctx context.Context, bookingID int64) error {
	_, err := l.tx.ExecContext(ctx, "UPDATE bookings SET is_cancelled=1 WHERE id=?", bookingID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (model.Booking, error) {
	var (
		b       model.Booking
		created sql.NullTime
	)
	err := row.Scan(&b.ID, &b.UserID, &b.StockID, &b.Quantity, &b.AmountCents, &b.Token,
		&b.IsCancelled, &b.IsUsed, &created)
	if err != nil {
		return model.Booking{}, err
	}
	if created.Valid {
		t := created.Time.UTC()
		b.CreatedAt = t
	}
	return b, nil
}
