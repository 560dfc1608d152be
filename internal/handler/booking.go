package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/booking"
	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/repository"
)

// BookingHandler exposes the beneficiary booking flow and the pro-side
// payment ledger query.
type BookingHandler struct {
	Service  *booking.Service
	Bookings *repository.BookingRepo
	Venues   *repository.VenueRepo
}

type bookReq struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=2"`
}

type bookingResp struct {
	ID          int64     `json:"id"`
	StockID     int64     `json:"stock_id"`
	Quantity    int       `json:"quantity"`
	AmountCents int64     `json:"amount_cents"`
	Token       string    `json:"token"`
	IsCancelled bool      `json:"is_cancelled"`
	IsUsed      bool      `json:"is_used"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:          b.ID,
		StockID:     b.StockID,
		Quantity:    b.Quantity,
		AmountCents: b.AmountCents,
		Token:       b.Token,
		IsCancelled: b.IsCancelled,
		IsUsed:      b.IsUsed,
		CreatedAt:   b.CreatedAt,
	}
}

// Book creates a booking of the stock in the path for the authenticated
// beneficiary.
func (h *BookingHandler) Book(c echo.Context) error {
	stockID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	b, err := h.Service.Book(c.Request().Context(), currentUserID(c), stockID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrStockNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "stock not found"})
		case errors.Is(err, booking.ErrStockNotBookable),
			errors.Is(err, booking.ErrBookingLimitPassed):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
		case errors.Is(err, booking.ErrInsufficientStock),
			errors.Is(err, booking.ErrInsufficientCredit):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		case errors.Is(err, booking.ErrUserNotAllowed):
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
		}
	}
	return c.JSON(http.StatusCreated, toBookingResp(b))
}

// Cancel cancels one of the caller's bookings.
func (h *BookingHandler) Cancel(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	err = h.Service.Cancel(c.Request().Context(), currentUserID(c), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, booking.ErrBookingUsed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already used"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// PaymentEligible lists the bookings of a venue that can be reimbursed.
func (h *BookingHandler) PaymentEligible(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	managed, err := h.Venues.IsManagedBy(ctx, venueID, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ownership check failed"})
	}
	if !managed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	bookings, err := h.Bookings.FindEligibleForPaymentByVenue(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}
