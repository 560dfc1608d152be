package model

import "time"

// Booking records a beneficiary's reservation against a Stock.  A booking
// belongs to exactly one stock; many bookings may exist per stock.  Only
// non-cancelled bookings count toward the stock quantity invariant and
// toward the beneficiary's wallet spending.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – beneficiary who booked.
//  StockID     – stock the booking consumes; rewritten by the SIRET repair
//                tool when a duplicate stock is retired.
//  Quantity    – number of units booked.
//  AmountCents – total price paid, frozen at booking time.
//  Token       – opaque countermark handed to the beneficiary.
//  IsCancelled – cancelled bookings release their quantity.
//  IsUsed      – whether the booking was redeemed at the venue.
//  UsedAt      – redemption instant (nullable).
type Booking struct {
	ID          int64      // bookings.id
	UserID      int64      // bookings.user_id
	StockID     int64      // bookings.stock_id
	Quantity    int        // bookings.quantity
	AmountCents int64      // bookings.amount_cents
	Token       string     // bookings.token
	IsCancelled bool       // bookings.is_cancelled
	IsUsed      bool       // bookings.is_used
	UsedAt      *time.Time // bookings.used_at (nullable)
	CreatedAt   time.Time  // bookings.created_at
	UpdatedAt   time.Time  // bookings.updated_at
}
