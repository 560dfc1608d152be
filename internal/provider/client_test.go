package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStocksSendsPaginationParams(t *testing.T) {
	var gotPath, gotAfter, gotSince, gotLimit, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAfter = r.URL.Query().Get("after")
		gotSince = r.URL.Query().Get("modifiedSince")
		gotLimit = r.URL.Query().Get("limit")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(StockResponse{
			Stocks: []RawStock{{Ref: "978", Available: 3}},
			Total:  1,
		})
	}))
	defer srv.Close()

	client := NewAPIClient("libraires", srv.URL, "secret-token")
	resp, err := client.Stocks(context.Background(), "12345678901234", "978@last", "2026-01-02T03:04:05Z", 1000)
	require.NoError(t, err)

	assert.Equal(t, "/stocks/12345678901234", gotPath)
	assert.Equal(t, "978@last", gotAfter)
	assert.Equal(t, "2026-01-02T03:04:05Z", gotSince)
	assert.Equal(t, "1000", gotLimit)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	require.Len(t, resp.Stocks, 1)
	assert.Equal(t, "978", resp.Stocks[0].Ref)
}

func TestStocksOmitsEmptyCursorParams(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(StockResponse{})
	}))
	defer srv.Close()

	client := NewAPIClient("libraires", srv.URL, "")
	_, err := client.Stocks(context.Background(), "s", "", "", 50)
	require.NoError(t, err)
	assert.Equal(t, "limit=50", query)
}

func TestStocksReturnsAPIErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewAPIClient("libraires", srv.URL, "")
	_, err := client.Stocks(context.Background(), "s", "", "", 10)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "libraires", apiErr.Provider)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestIsSiretRegistered(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()
	client := NewAPIClient("libraires", srv.URL, "")

	ok, err := client.IsSiretRegistered(context.Background(), "s")
	require.NoError(t, err)
	assert.True(t, ok)

	for _, refused := range []int{http.StatusNotFound, http.StatusUnprocessableEntity} {
		status = refused
		ok, err = client.IsSiretRegistered(context.Background(), "s")
		require.NoError(t, err)
		assert.False(t, ok, "status %d", refused)
	}

	status = http.StatusInternalServerError
	_, err = client.IsSiretRegistered(context.Background(), "s")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
