// Package booking implements the beneficiary booking flow: creating a
// booking against a stock under the quantity and wallet invariants, and
// cancelling one.  Both operations run inside a single database
// transaction so a booking can never overdraw a stock or a wallet.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

var (
	// ErrStockNotFound is returned when the stock does not exist.
	ErrStockNotFound = errors.New("stock not found")
	// ErrStockNotBookable covers soft-deleted stocks, inactive offers and
	// stocks whose price was never resolved.
	ErrStockNotBookable = errors.New("stock is not bookable")
	// ErrBookingLimitPassed is returned after booking_limit_datetime.
	ErrBookingLimitPassed = errors.New("booking limit datetime has passed")
	// ErrInsufficientStock is returned when the remaining quantity cannot
	// cover the request.
	ErrInsufficientStock = errors.New("insufficient stock quantity")
	// ErrInsufficientCredit is returned when the booking would overdraw
	// the beneficiary's deposit.
	ErrInsufficientCredit = errors.New("insufficient credit")
	// ErrUserNotAllowed is returned for non-beneficiary or inactive users.
	ErrUserNotAllowed = errors.New("user may not book")
	// ErrBookingNotFound is returned when the booking does not exist or
	// belongs to another user.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrBookingUsed refuses cancellation of an already used booking.
	ErrBookingUsed = errors.New("booking already used")
)

// LedgerTx is the transactional view the booking flow needs.  Reads and
// the final insert happen under the same transaction.
type LedgerTx interface {
	// StockForBooking loads a stock together with its offer.
	StockForBooking(ctx context.Context, stockID int64) (model.Stock, model.Offer, error)
	UserByID(ctx context.Context, userID int64) (model.User, error)
	// NotCancelledBookingQuantity sums the live booked quantity of a stock.
	NotCancelledBookingQuantity(ctx context.Context, stockID int64) (int, error)
	// SpentCents sums the non-cancelled booking amounts of a user.
	SpentCents(ctx context.Context, userID int64) (int64, error)
	// InsertBooking persists the booking and fills in its generated id.
	InsertBooking(ctx context.Context, b *model.Booking) error
	BookingByID(ctx context.Context, bookingID int64) (model.Booking, error)
	CancelBooking(ctx context.Context, bookingID int64) error
}

// Ledger opens booking transactions.
type Ledger interface {
	Transact(ctx context.Context, fn func(tx LedgerTx) error) error
}

// Service carries out bookings and cancellations.
type Service struct {
	Ledger Ledger
}

func NewService(ledger Ledger) *Service { return &Service{Ledger: ledger} }

// Book creates a booking of quantity units of the given stock for the
// given beneficiary.  The stock must be live (not soft-deleted, offer
// active, priced, limit datetime not passed), the remaining quantity must
// cover the request (a NULL quantity means unlimited), and the total the
// user has spent plus the booking amount must fit inside deposit_cents.
func (s *Service) Book(ctx context.Context, userID, stockID int64, quantity int) (model.Booking, error) {
	if quantity < 1 {
		return model.Booking{}, ErrInsufficientStock
	}
	var booked model.Booking
	err := s.Ledger.Transact(ctx, func(tx LedgerTx) error {
		stock, offer, err := tx.StockForBooking(ctx, stockID)
		if err != nil {
			return err
		}
		if stock.IsSoftDeleted || !offer.IsActive || stock.PriceCents == nil {
			return ErrStockNotBookable
		}
		if stock.BookingLimitDatetime != nil && stock.BookingLimitDatetime.Before(time.Now().UTC()) {
			return ErrBookingLimitPassed
		}

		user, err := tx.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role != "BENEFICIARY" || !user.IsActive {
			return ErrUserNotAllowed
		}

		alreadyBooked, err := tx.NotCancelledBookingQuantity(ctx, stockID)
		if err != nil {
			return err
		}
		if remaining := stock.RemainingQuantity(alreadyBooked); remaining != nil && *remaining < quantity {
			return ErrInsufficientStock
		}

		amount := *stock.PriceCents * int64(quantity)
		spent, err := tx.SpentCents(ctx, userID)
		if err != nil {
			return err
		}
		if spent+amount > user.DepositCents {
			return ErrInsufficientCredit
		}

		booked = model.Booking{
			UserID:      userID,
			StockID:     stockID,
			Quantity:    quantity,
			AmountCents: amount,
			Token:       uuid.NewString(),
		}
		return tx.InsertBooking(ctx, &booked)
	})
	if err != nil {
		return model.Booking{}, err
	}
	logrus.WithFields(logrus.Fields{
		"booking_id": booked.ID,
		"user_id":    userID,
		"stock_id":   stockID,
		"quantity":   quantity,
	}).Info("booking created")
	return booked, nil
}

// Cancel marks the booking as cancelled.  Only the owner may cancel, a
// used booking stays on the ledger, and cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, userID, bookingID int64) error {
	return s.Ledger.Transact(ctx, func(tx LedgerTx) error {
		b, err := tx.BookingByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrBookingNotFound
		}
		if b.IsUsed {
			return ErrBookingUsed
		}
		if b.IsCancelled {
			return nil
		}
		return tx.CancelBooking(ctx, bookingID)
	})
}
