// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/handler"
	"github.com/iliyamo/culture-marketplace/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the public offer search.
func RegisterRoutes(e *echo.Echo, s *handler.SearchHandler) {
	// Load balancers and monitoring probe this endpoint.
	e.GET("/healthz", handler.Health)
	// Search reads the redis index only, so it stays public.
	e.GET("/v1/search/offers", s.Offers)
}

// RegisterAuth registers the authentication endpoints.  Register, login,
// refresh and logout all operate on tokens and need no session.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterPro registers the venue-operator endpoints: triggering a sync
// run, the SIRET repair tool, the reimbursement ledger and the fraud
// review.  All of them require a PRO access token.
func RegisterPro(e *echo.Echo, jwtSecret string, s *handler.SyncHandler, r *handler.RepairHandler, b *handler.BookingHandler, f *handler.FraudHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("PRO"))
	g.POST("/venue-providers/:id/sync", s.Trigger)
	g.POST("/venues/:id/siret-repair", r.Repair)
	g.GET("/venues/:id/bookings/payment-eligible", b.PaymentEligible)
	g.POST("/users/:id/fraud-check", f.Check)
}

// RegisterBeneficiary registers the booking endpoints, restricted to
// BENEFICIARY access tokens.
func RegisterBeneficiary(e *echo.Echo, jwtSecret string, b *handler.BookingHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("BENEFICIARY"))
	g.POST("/stocks/:id/bookings", b.Book)
	g.DELETE("/bookings/:id", b.Cancel)
}
