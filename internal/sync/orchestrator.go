package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/provider"
)

// Indexer enqueues offers for search reindexing.  The orchestrator calls
// it exactly once per run with the union of every touched offer id, so
// reindex requests are bounded by venue providers, not pages.
type Indexer interface {
	EnqueueOfferIDs(ctx context.Context, offerIDs []int64) error
}

// VenueProviderStore persists the incremental sync cursor.
type VenueProviderStore interface {
	UpdateLastSyncDate(ctx context.Context, venueProviderID int64, syncedAt time.Time) error
}

// Orchestrator drives the reconciliation engine across a paginated
// provider feed for one venue provider at a time.  Pagination state is
// explicit: the last processed reference is threaded through each fetch
// and reassigned from the returned page, never hidden in iterator state.
type Orchestrator struct {
	Catalog        Catalog
	Indexer        Indexer
	VenueProviders VenueProviderStore
	Leases         Lease         // nil disables mutual exclusion
	LeaseTTL       time.Duration // how long a crashed run keeps its lease
	PageLimit      int           // records requested per page
	MaxPages       int           // circuit breaker against feeds that never terminate
}

// Synchronize walks the provider feed for one venue provider and
// reconciles every page into the catalog.  The first run fetches the
// full catalog; later runs pass last_sync_date as modified_since and the
// engine tolerates a full resync being returned anyway.  On success the
// cursor is advanced to the run's start instant and one reindex request
// is issued for the union of touched offers.
//
// Provider errors propagate unwrapped so the job scheduler can mark the
// attempt as failed and retryable; nothing is retried here.
func (o *Orchestrator) Synchronize(ctx context.Context, feed provider.StockFeed, vp model.VenueProvider, venue model.Venue) error {
	siret := vp.VenueIDAtOfferProvider
	if siret == "" && venue.Siret != nil {
		siret = *venue.Siret
	}
	if siret == "" {
		return ErrNoSiret
	}

	if o.Leases != nil {
		key := fmt.Sprintf("sync:lease:%d", vp.ID)
		ok, err := o.Leases.Acquire(ctx, key, o.LeaseTTL)
		if err != nil {
			return fmt.Errorf("acquire sync lease: %w", err)
		}
		if !ok {
			return ErrSyncAlreadyRunning
		}
		defer func() { _ = o.Leases.Release(context.WithoutCancel(ctx), key) }()
	}

	modifiedSince := ""
	if vp.LastSyncDate != nil {
		modifiedSince = vp.LastSyncDate.UTC().Format(time.RFC3339)
	}
	runStart := time.Now().UTC()
	touched := make(map[int64]struct{})
	lastRef := ""

	for page := 0; ; page++ {
		if page >= o.MaxPages {
			logrus.WithFields(logrus.Fields{
				"venue_provider_id": vp.ID,
				"siret":             siret,
				"max_pages":         o.MaxPages,
			}).Warn("provider feed still returning full pages at the page cap, aborting run")
			return ErrPageCapExceeded
		}
		resp, err := feed.Stocks(ctx, siret, lastRef, modifiedSince, o.PageLimit)
		if err != nil {
			return err
		}
		if len(resp.Stocks) == 0 {
			break
		}
		details, err := provider.Normalize(resp.Stocks, siret)
		if err != nil {
			return fmt.Errorf("normalize page %d: %w", page, err)
		}
		err = o.Catalog.Transact(ctx, func(tx CatalogTx) error {
			ids, err := SynchronizeStocks(ctx, tx, details, venue, vp.ProviderID)
			if err != nil {
				return err
			}
			for id := range ids {
				touched[id] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("reconcile page %d: %w", page, err)
		}
		lastRef = resp.Stocks[len(resp.Stocks)-1].Ref
		if len(resp.Stocks) < o.PageLimit {
			break
		}
	}

	if len(touched) > 0 {
		ids := make([]int64, 0, len(touched))
		for id := range touched {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if err := o.Indexer.EnqueueOfferIDs(ctx, ids); err != nil {
			return fmt.Errorf("enqueue reindex: %w", err)
		}
	}

	if err := o.VenueProviders.UpdateLastSyncDate(ctx, vp.ID, runStart); err != nil {
		return fmt.Errorf("advance sync cursor: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"venue_provider_id": vp.ID,
		"siret":             siret,
		"offers_touched":    len(touched),
	}).Info("venue provider synchronized")
	return nil
}
