// Package provider talks to external stock feeds and normalizes their
// payloads into the canonical records consumed by the reconciliation
// engine.  Concrete vendors differ only in base URL and credentials; the
// synchronization orchestrator depends on the StockFeed interface, never
// on the HTTP client directly.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// RawStock is one record of a provider stock page.  Price is in euros
// and may be absent; the normalizer applies fallbacks downstream.
type RawStock struct {
	Ref       string   `json:"ref"`
	Available int      `json:"available"`
	Price     *float64 `json:"price"`
}

// StockResponse is the paginated payload returned by a provider feed.
type StockResponse struct {
	Stocks []RawStock `json:"stocks"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// StockFeed is the capability the synchronization orchestrator depends
// on.  Implementations fetch one page of stock records for a SIRET.
// lastProcessedReference supports reference-based pagination and
// modifiedSince (RFC3339 UTC) supports incremental delta fetches; either
// may be empty.
type StockFeed interface {
	Stocks(ctx context.Context, siret, lastProcessedReference, modifiedSince string, limit int) (StockResponse, error)
}

// APIError reports a non-2xx answer from a provider feed.  It is fatal to
// the current sync attempt: the orchestrator propagates it unwrapped so
// the scheduler can mark the run as failed and retryable.
type APIError struct {
	Provider   string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider %s answered with status %d", e.Provider, e.StatusCode)
}

// APIClient is the resty-backed implementation of StockFeed for the
// generic provider stock API.
type APIClient struct {
	name string
	http *resty.Client
}

// NewAPIClient builds a client for one provider.  authToken may be empty
// for feeds that do not require authentication.
func NewAPIClient(name, baseURL, authToken string) *APIClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	if authToken != "" {
		c.SetAuthToken(authToken)
	}
	return &APIClient{name: name, http: c}
}

// Stocks fetches one page of stock records for the given SIRET.  Empty
// cursor arguments are omitted from the query string.
func (c *APIClient) Stocks(ctx context.Context, siret, lastProcessedReference, modifiedSince string, limit int) (StockResponse, error) {
	var out StockResponse
	req := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetQueryParam("limit", strconv.Itoa(limit))
	if lastProcessedReference != "" {
		req.SetQueryParam("after", lastProcessedReference)
	}
	if modifiedSince != "" {
		req.SetQueryParam("modifiedSince", modifiedSince)
	}
	resp, err := req.Get("/stocks/" + siret)
	if err != nil {
		return StockResponse{}, fmt.Errorf("fetch stocks for siret %s: %w", siret, err)
	}
	if resp.IsError() {
		return StockResponse{}, &APIError{Provider: c.name, StatusCode: resp.StatusCode()}
	}
	return out, nil
}

// IsSiretRegistered answers whether the provider can serve the given
// SIRET.  It is used as a pre-flight gate before attempting a sync; 404
// and 422 mean "not servable", any other non-2xx status is an APIError.
func (c *APIClient) IsSiretRegistered(ctx context.Context, siret string) (bool, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/is-siret-registered/" + siret)
	if err != nil {
		return false, fmt.Errorf("check siret %s: %w", siret, err)
	}
	switch {
	case resp.IsSuccess():
		return true, nil
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusUnprocessableEntity:
		return false, nil
	default:
		return false, &APIError{Provider: c.name, StatusCode: resp.StatusCode()}
	}
}
