package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// OfferWithStocks is one offer loaded with all of its stocks, as needed
// by the repair tool.
type OfferWithStocks struct {
	Offer  model.Offer
	Stocks []model.Stock
}

// ReferenceRewrite corrects the provider identifiers of an offer and its
// stocks after a SIRET change, when no duplicate offer exists.
type ReferenceRewrite struct {
	OfferID         int64
	NewReference    string
	StockReferences map[int64]string // stock id -> corrected id_at_providers
}

// BookingMove re-points one booking from a retired duplicate stock to
// the valid stock.
type BookingMove struct {
	BookingID int64
	ToStockID int64
}

// Retirement deactivates a duplicate offer: the offer itself is turned
// inactive, its stocks are soft-deleted and their bookings are moved to
// the valid stock.
type Retirement struct {
	OfferID      int64
	StockIDs     []int64
	BookingMoves []BookingMove
}

// RepairBatch groups the mutations of up to BatchSize offers, applied in
// one transaction to bound transaction size on large venues.
type RepairBatch struct {
	ReferenceRewrites []ReferenceRewrite
	Retirements       []Retirement
}

func (b RepairBatch) empty() bool {
	return len(b.ReferenceRewrites) == 0 && len(b.Retirements) == 0
}

// RepairCatalog is the store surface the repair tool needs.
type RepairCatalog interface {
	VenueByID(ctx context.Context, venueID int64) (model.Venue, error)
	// OffersWithStocksBySiretSuffix returns every offer of the venue whose
	// id_at_providers ends with the given SIRET, stocks eager-loaded.
	OffersWithStocksBySiretSuffix(ctx context.Context, venueID int64, siret string) ([]OfferWithStocks, error)
	NotCancelledBookingsByStock(ctx context.Context, stockID int64) ([]model.Booking, error)
	NotCancelledBookingQuantity(ctx context.Context, stockID int64) (int, error)
	ApplyRepairBatch(ctx context.Context, batch RepairBatch) error
}

// RepairReport is the outcome of one repair run.  Errors maps each offer
// that could not be repaired to the reasons; the run itself never aborts
// on a single offer.
type RepairReport struct {
	OffersUpdated int
	Errors        map[int64][]error
	LazyRun       bool
}

// SiretRepairer fixes up offers and stocks whose provider identifiers
// still encode a stale SIRET after a venue's SIRET changed.  Offers with
// a true duplicate under the new SIRET are retired and their bookings
// transferred; offers without a duplicate simply get their identifiers
// rewritten.  This is an operator-triggered batch repair, not a steady
// state path: each offer's retirement is best-effort guarded against
// overselling but not locked against concurrent bookings.
type SiretRepairer struct {
	Catalog   RepairCatalog
	BatchSize int // offers per transaction when persisting; defaults to 100
}

// Repair computes (and, unless lazyRun, persists) the corrections for
// every offer of the venue still referencing oldSiret.  With lazyRun the
// full report is produced but nothing is written, so an operator can
// inspect the outcome before re-running with lazyRun=false.
func (r *SiretRepairer) Repair(ctx context.Context, venueID int64, oldSiret string, lazyRun bool) (RepairReport, error) {
	report := RepairReport{Errors: make(map[int64][]error), LazyRun: lazyRun}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	venue, err := r.Catalog.VenueByID(ctx, venueID)
	if err != nil {
		return report, fmt.Errorf("load venue %d: %w", venueID, err)
	}
	if venue.Siret == nil || *venue.Siret == "" {
		return report, fmt.Errorf("venue %d: %w", venueID, ErrNoSiret)
	}
	currentSiret := *venue.Siret
	if oldSiret == currentSiret {
		// Every offer would match itself as a duplicate and get retired.
		return report, fmt.Errorf("venue %d: %w", venueID, ErrSiretUnchanged)
	}

	oldSet, err := r.Catalog.OffersWithStocksBySiretSuffix(ctx, venueID, oldSiret)
	if err != nil {
		return report, fmt.Errorf("load offers for old siret: %w", err)
	}
	currentSet, err := r.Catalog.OffersWithStocksBySiretSuffix(ctx, venueID, currentSiret)
	if err != nil {
		return report, fmt.Errorf("load offers for current siret: %w", err)
	}
	currentByRef := make(map[string]OfferWithStocks, len(currentSet))
	for _, ows := range currentSet {
		currentByRef[ows.Offer.IDAtProviders] = ows
	}

	var batch RepairBatch
	batched := 0
	flush := func() {
		if lazyRun || batch.empty() {
			batch = RepairBatch{}
			batched = 0
			return
		}
		if err := r.Catalog.ApplyRepairBatch(ctx, batch); err != nil {
			// Attribute the failed write to every offer of the batch and
			// keep going: partial success is a valid outcome of this tool.
			for _, rw := range batch.ReferenceRewrites {
				report.Errors[rw.OfferID] = append(report.Errors[rw.OfferID], err)
				report.OffersUpdated--
			}
			for _, ret := range batch.Retirements {
				report.Errors[ret.OfferID] = append(report.Errors[ret.OfferID], err)
				report.OffersUpdated--
			}
			logrus.WithError(err).WithField("venue_id", venueID).Error("siret repair batch failed")
		}
		batch = RepairBatch{}
		batched = 0
	}

	for _, old := range oldSet {
		newRef := productReference(old.Offer.IDAtProviders) + "@" + currentSiret
		if valid, ok := currentByRef[newRef]; ok {
			retirement, err := r.planRetirement(ctx, old, valid)
			if err != nil {
				report.Errors[old.Offer.ID] = append(report.Errors[old.Offer.ID], err)
				continue
			}
			batch.Retirements = append(batch.Retirements, retirement)
		} else {
			rewrite := ReferenceRewrite{
				OfferID:         old.Offer.ID,
				NewReference:    newRef,
				StockReferences: make(map[int64]string, len(old.Stocks)),
			}
			for _, s := range old.Stocks {
				rewrite.StockReferences[s.ID] = productReference(s.IDAtProviders) + "@" + currentSiret
			}
			batch.ReferenceRewrites = append(batch.ReferenceRewrites, rewrite)
		}
		report.OffersUpdated++
		batched++
		if batched >= batchSize {
			flush()
		}
	}
	flush()
	return report, nil
}

// planRetirement prepares the retirement of a duplicate offer.  It
// refuses when the valid offer does not expose exactly one live stock
// (ambiguous transfer target) or when that stock cannot absorb the
// booking quantities being moved (silent overselling).
func (r *SiretRepairer) planRetirement(ctx context.Context, old, valid OfferWithStocks) (Retirement, error) {
	var liveStocks []model.Stock
	for _, s := range valid.Stocks {
		if !s.IsSoftDeleted {
			liveStocks = append(liveStocks, s)
		}
	}
	if len(liveStocks) != 1 {
		return Retirement{}, fmt.Errorf("offer %d has %d stocks: %w", valid.Offer.ID, len(liveStocks), ErrAmbiguousStockCount)
	}
	validStock := liveStocks[0]

	retirement := Retirement{OfferID: old.Offer.ID}
	movedQuantity := 0
	for _, s := range old.Stocks {
		retirement.StockIDs = append(retirement.StockIDs, s.ID)
		bookings, err := r.Catalog.NotCancelledBookingsByStock(ctx, s.ID)
		if err != nil {
			return Retirement{}, fmt.Errorf("load bookings of stock %d: %w", s.ID, err)
		}
		for _, b := range bookings {
			retirement.BookingMoves = append(retirement.BookingMoves, BookingMove{BookingID: b.ID, ToStockID: validStock.ID})
			movedQuantity += b.Quantity
		}
	}

	if movedQuantity > 0 {
		booked, err := r.Catalog.NotCancelledBookingQuantity(ctx, validStock.ID)
		if err != nil {
			return Retirement{}, fmt.Errorf("load booked quantity of stock %d: %w", validStock.ID, err)
		}
		if remaining := validStock.RemainingQuantity(booked); remaining != nil && *remaining < movedQuantity {
			return Retirement{}, fmt.Errorf("stock %d has %d remaining, %d needed: %w",
				validStock.ID, *remaining, movedQuantity, ErrInsufficientQuantity)
		}
	}
	return retirement, nil
}

// productReference extracts the product part of a "{ref}@{siret}"
// identifier.  Identifiers without a separator are returned unchanged.
func productReference(idAtProviders string) string {
	if at := strings.LastIndex(idAtProviders, "@"); at >= 0 {
		return idAtProviders[:at]
	}
	return idAtProviders
}
