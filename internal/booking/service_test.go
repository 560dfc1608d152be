package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// fakeLedger is an in-memory Ledger for service tests.
type fakeLedger struct {
	stock    model.Stock
	offer    model.Offer
	user     model.User
	booked   int
	spent    int64
	bookings map[int64]*model.Booking
	nextID   int64
}

func (f *fakeLedger) Transact(_ context.Context, fn func(tx LedgerTx) error) error {
	return fn(f)
}

func (f *fakeLedger) StockForBooking(_ context.Context, stockID int64) (model.Stock, model.Offer, error) {
	if stockID != f.stock.ID {
		return model.Stock{}, model.Offer{}, ErrStockNotFound
	}
	return f.stock, f.offer, nil
}

func (f *fakeLedger) UserByID(_ context.Context, _ int64) (model.User, error) {
	return f.user, nil
}

func (f *fakeLedger) NotCancelledBookingQuantity(_ context.Context, _ int64) (int, error) {
	return f.booked, nil
}

func (f *fakeLedger) SpentCents(_ context.Context, _ int64) (int64, error) {
	return f.spent, nil
}

func (f *fakeLedger) InsertBooking(_ context.Context, b *model.Booking) error {
	f.nextID++
	b.ID = f.nextID
	if f.bookings == nil {
		f.bookings = map[int64]*model.Booking{}
	}
	clone := *b
	f.bookings[b.ID] = &clone
	return nil
}

func (f *fakeLedger) BookingByID(_ context.Context, bookingID int64) (model.Booking, error) {
	b, ok := f.bookings[bookingID]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return *b, nil
}

func (f *fakeLedger) CancelBooking(_ context.Context, bookingID int64) error {
	f.bookings[bookingID].IsCancelled = true
	return nil
}

func i64p(v int64) *int64 { return &v }
func intp(v int) *int     { return &v }

func bookableLedger() *fakeLedger {
	return &fakeLedger{
		stock: model.Stock{ID: 1, OfferID: 2, PriceCents: i64p(1500), Quantity: intp(5)},
		offer: model.Offer{ID: 2, IsActive: true},
		user:  model.User{ID: 3, Role: "BENEFICIARY", IsActive: true, DepositCents: 30000},
	}
}

func TestBookCreatesBookingWithToken(t *testing.T) {
	ledger := bookableLedger()
	svc := NewService(ledger)

	b, err := svc.Book(context.Background(), 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), b.UserID)
	assert.Equal(t, int64(1), b.StockID)
	assert.Equal(t, 2, b.Quantity)
	assert.Equal(t, int64(3000), b.AmountCents, "amount frozen at quantity * unit price")
	assert.NotEmpty(t, b.Token)
	assert.Len(t, ledger.bookings, 1)
}

func TestBookRefusesUnbookableStock(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(l *fakeLedger)
		wantErr error
	}{
		{"soft deleted stock", func(l *fakeLedger) { l.stock.IsSoftDeleted = true }, ErrStockNotBookable},
		{"inactive offer", func(l *fakeLedger) { l.offer.IsActive = false }, ErrStockNotBookable},
		{"unpriced stock", func(l *fakeLedger) { l.stock.PriceCents = nil }, ErrStockNotBookable},
		{"limit passed", func(l *fakeLedger) {
			past := time.Now().UTC().Add(-time.Hour)
			l.stock.BookingLimitDatetime = &past
		}, ErrBookingLimitPassed},
		{"inactive user", func(l *fakeLedger) { l.user.IsActive = false }, ErrUserNotAllowed},
		{"pro user", func(l *fakeLedger) { l.user.Role = "PRO" }, ErrUserNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := bookableLedger()
			tc.mutate(ledger)
			_, err := NewService(ledger).Book(context.Background(), 3, 1, 1)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, ledger.bookings)
		})
	}
}

func TestBookRefusesMissingStock(t *testing.T) {
	_, err := NewService(bookableLedger()).Book(context.Background(), 3, 99, 1)
	assert.ErrorIs(t, err, ErrStockNotFound)
}

func TestBookEnforcesRemainingQuantity(t *testing.T) {
	ledger := bookableLedger()
	ledger.booked = 4 // 5 total, 1 remaining

	_, err := NewService(ledger).Book(context.Background(), 3, 1, 2)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = NewService(ledger).Book(context.Background(), 3, 1, 1)
	assert.NoError(t, err)
}

func TestBookTreatsNilQuantityAsUnlimited(t *testing.T) {
	ledger := bookableLedger()
	ledger.stock.Quantity = nil
	ledger.booked = 1000

	_, err := NewService(ledger).Book(context.Background(), 3, 1, 2)
	assert.NoError(t, err)
}

func TestBookEnforcesWalletDeposit(t *testing.T) {
	ledger := bookableLedger()
	ledger.spent = 29000 // 1000 cents left, booking costs 1500

	_, err := NewService(ledger).Book(context.Background(), 3, 1, 1)
	assert.ErrorIs(t, err, ErrInsufficientCredit)

	ledger.spent = 28500 // exactly enough
	_, err = NewService(ledger).Book(context.Background(), 3, 1, 1)
	assert.NoError(t, err)
}

// walletLedger models the repository's row locking: UserByID takes a
// per-user lock that is held until the transaction ends, and SpentCents
// only sees committed bookings.  It lets two goroutines race the wallet
// check the way two database transactions would.
type walletLedger struct {
	mu       sync.Mutex
	stocks   map[int64]model.Stock
	offers   map[int64]model.Offer
	user     model.User
	bookings []model.Booking
	nextID   int64
}

func (l *walletLedger) Transact(_ context.Context, fn func(tx LedgerTx) error) error {
	tx := &walletTx{l: l}
	err := fn(tx)
	if tx.locked {
		if err == nil {
			l.bookings = append(l.bookings, tx.pending...)
		}
		l.mu.Unlock()
	}
	return err
}

type walletTx struct {
	l       *walletLedger
	locked  bool
	pending []model.Booking
}

func (t *walletTx) StockForBooking(_ context.Context, stockID int64) (model.Stock, model.Offer, error) {
	s, ok := t.l.stocks[stockID]
	if !ok {
		return model.Stock{}, model.Offer{}, ErrStockNotFound
	}
	return s, t.l.offers[s.OfferID], nil
}

func (t *walletTx) UserByID(_ context.Context, _ int64) (model.User, error) {
	t.l.mu.Lock()
	t.locked = true
	return t.l.user, nil
}

func (t *walletTx) NotCancelledBookingQuantity(_ context.Context, stockID int64) (int, error) {
	total := 0
	for _, b := range t.l.bookings {
		if b.StockID == stockID && !b.IsCancelled {
			total += b.Quantity
		}
	}
	return total, nil
}

func (t *walletTx) SpentCents(_ context.Context, userID int64) (int64, error) {
	var total int64
	for _, b := range t.l.bookings {
		if b.UserID == userID && !b.IsCancelled {
			total += b.AmountCents
		}
	}
	return total, nil
}

func (t *walletTx) InsertBooking(_ context.Context, b *model.Booking) error {
	t.l.nextID++
	b.ID = t.l.nextID
	t.pending = append(t.pending, *b)
	return nil
}

func (t *walletTx) BookingByID(_ context.Context, _ int64) (model.Booking, error) {
	return model.Booking{}, ErrBookingNotFound
}

func (t *walletTx) CancelBooking(_ context.Context, _ int64) error { return nil }

func TestBookSerializesWalletChecksPerUser(t *testing.T) {
	ledger := &walletLedger{
		stocks: map[int64]model.Stock{
			1: {ID: 1, OfferID: 2, PriceCents: i64p(1500), Quantity: intp(5)},
			5: {ID: 5, OfferID: 6, PriceCents: i64p(1500), Quantity: intp(5)},
		},
		offers: map[int64]model.Offer{
			2: {ID: 2, IsActive: true},
			6: {ID: 6, IsActive: true},
		},
		// Room for exactly one 1500 booking.
		user: model.User{ID: 3, Role: "BENEFICIARY", IsActive: true, DepositCents: 2000},
	}
	svc := NewService(ledger)

	stockIDs := []int64{1, 5}
	errs := make([]error, len(stockIDs))
	var wg sync.WaitGroup
	for i, stockID := range stockIDs {
		wg.Add(1)
		go func(i int, stockID int64) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), 3, stockID, 1)
		}(i, stockID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientCredit)
		}
	}
	assert.Equal(t, 1, succeeded, "two concurrent bookings must not jointly overdraw the deposit")
	assert.Len(t, ledger.bookings, 1)
}

func TestBookRejectsNonPositiveQuantity(t *testing.T) {
	_, err := NewService(bookableLedger()).Book(context.Background(), 3, 1, 0)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCancel(t *testing.T) {
	ledger := bookableLedger()
	svc := NewService(ledger)
	b, err := svc.Book(context.Background(), 3, 1, 1)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), 3, b.ID))
	assert.True(t, ledger.bookings[b.ID].IsCancelled)

	// Cancelling twice is a no-op.
	assert.NoError(t, svc.Cancel(context.Background(), 3, b.ID))
}

func TestCancelRefusesForeignBooking(t *testing.T) {
	ledger := bookableLedger()
	svc := NewService(ledger)
	b, err := svc.Book(context.Background(), 3, 1, 1)
	require.NoError(t, err)

	err = svc.Cancel(context.Background(), 4, b.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.False(t, ledger.bookings[b.ID].IsCancelled)
}

func TestCancelRefusesUsedBooking(t *testing.T) {
	ledger := bookableLedger()
	svc := NewService(ledger)
	b, err := svc.Book(context.Background(), 3, 1, 1)
	require.NoError(t, err)
	ledger.bookings[b.ID].IsUsed = true

	err = svc.Cancel(context.Background(), 3, b.ID)
	assert.ErrorIs(t, err, ErrBookingUsed)
	assert.False(t, ledger.bookings[b.ID].IsCancelled)
}
