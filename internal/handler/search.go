package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/search"
)

// SearchHandler serves offer queries out of the redis search index.
type SearchHandler struct {
	Store search.DocumentStore
}

// Offers returns the indexed offers matching the q query parameter.
func (h *SearchHandler) Offers(c echo.Context) error {
	if h.Store == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "search index unavailable"})
	}
	docs, err := h.Store.Query(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	if docs == nil {
		docs = []search.Document{}
	}
	return c.JSON(http.StatusOK, echo.Map{"offers": docs})
}
