package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/repository"
	"github.com/iliyamo/culture-marketplace/internal/sync"
)

// SyncHandler triggers a stock synchronization run for one venue
// provider.
type SyncHandler struct {
	VenueProviders *repository.VenueProviderRepo
	Venues         *repository.VenueRepo
	Orchestrator   *sync.Orchestrator
	NewClient      func(p model.Provider) sync.ProviderClient
}

// Trigger runs one synchronization for the venue provider in the path.
// The caller must manage the venue.  A run already holding the lease
// answers 409; a venue without SIRET answers 422.
func (h *SyncHandler) Trigger(c echo.Context) error {
	vpID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	s, err := h.VenueProviders.GetSyncable(ctx, vpID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue provider not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue provider failed"})
	}

	managed, err := h.Venues.IsManagedBy(ctx, s.Venue.ID, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ownership check failed"})
	}
	if !managed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	client := h.NewClient(s.Provider)
	registered, err := client.IsSiretRegistered(ctx, venueSiret(s.Venue))
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider unreachable"})
	}
	if !registered {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "siret not registered with provider"})
	}

	if err := h.Orchestrator.Synchronize(ctx, client, s.VenueProvider, s.Venue); err != nil {
		switch {
		case errors.Is(err, sync.ErrSyncAlreadyRunning):
			return c.JSON(http.StatusConflict, echo.Map{"error": "synchronization already running"})
		case errors.Is(err, sync.ErrNoSiret):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "venue has no siret"})
		case errors.Is(err, sync.ErrPageCapExceeded):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "provider feed did not terminate"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "synchronization failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "synchronized"})
}

func venueSiret(v model.Venue) string {
	if v.Siret == nil {
		return ""
	}
	return *v.Siret
}
