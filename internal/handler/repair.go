package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/culture-marketplace/internal/repository"
	"github.com/iliyamo/culture-marketplace/internal/sync"
)

// RepairHandler exposes the SIRET migration repair tool.
type RepairHandler struct {
	Venues   *repository.VenueRepo
	Repairer *sync.SiretRepairer
}

type repairResp struct {
	OffersUpdated int                 `json:"offers_updated"`
	Errors        map[string][]string `json:"errors,omitempty"`
	LazyRun       bool                `json:"lazy_run"`
}

// Repair rewrites or retires the offers of a venue that still carry the
// old SIRET.  Dry-run by default; pass apply=true to persist.
func (h *RepairHandler) Repair(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	oldSiret := strings.TrimSpace(c.QueryParam("old_siret"))
	if oldSiret == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_siret required"})
	}
	apply, _ := strconv.ParseBool(c.QueryParam("apply"))

	ctx := c.Request().Context()
	managed, err := h.Venues.IsManagedBy(ctx, venueID, currentUserID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "ownership check failed"})
	}
	if !managed {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	report, err := h.Repairer.Repair(ctx, venueID, oldSiret, !apply)
	if err != nil {
		if errors.Is(err, sync.ErrNoSiret) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "venue has no current siret"})
		}
		if errors.Is(err, sync.ErrSiretUnchanged) {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "old_siret is the venue's current siret"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "repair failed"})
	}

	resp := repairResp{OffersUpdated: report.OffersUpdated, LazyRun: report.LazyRun}
	if len(report.Errors) > 0 {
		resp.Errors = make(map[string][]string, len(report.Errors))
		for offerID, errs := range report.Errors {
			key := strconv.FormatInt(offerID, 10)
			for _, e := range errs {
				resp.Errors[key] = append(resp.Errors[key], e.Error())
			}
		}
	}
	return c.JSON(http.StatusOK, resp)
}
