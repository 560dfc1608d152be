package sync

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/provider"
)

// Syncable bundles one venue-provider subscription with its venue and
// provider rows, ready to synchronize.
type Syncable struct {
	VenueProvider model.VenueProvider
	Venue         model.Venue
	Provider      model.Provider
}

// SyncableSource lists the subscriptions eligible for synchronization.
// Filtering of inactive providers, inactive subscriptions and venues
// without a SIRET happens at this level, before the orchestrator is ever
// invoked.
type SyncableSource interface {
	ListActiveForSync(ctx context.Context) ([]Syncable, error)
}

// ProviderClient is the full client surface a provider exposes: the
// paginated stock feed plus the SIRET pre-flight check.
type ProviderClient interface {
	provider.StockFeed
	IsSiretRegistered(ctx context.Context, siret string) (bool, error)
}

// Runner walks every eligible venue provider and synchronizes it.  One
// subscription failing never stops the others; failures are logged and
// counted.
type Runner struct {
	Source       SyncableSource
	Orchestrator *Orchestrator
	// NewClient builds the client for one provider row.  Injected so the
	// runner never depends on a concrete HTTP client.
	NewClient func(p model.Provider) ProviderClient
}

// RunAll synchronizes every active venue provider once and returns how
// many succeeded.
func (r *Runner) RunAll(ctx context.Context) (int, error) {
	syncables, err := r.Source.ListActiveForSync(ctx)
	if err != nil {
		return 0, err
	}
	succeeded := 0
	for _, s := range syncables {
		log := logrus.WithFields(logrus.Fields{
			"venue_provider_id": s.VenueProvider.ID,
			"provider":          s.Provider.Name,
		})
		client := r.NewClient(s.Provider)
		siret := s.VenueProvider.VenueIDAtOfferProvider
		if siret == "" && s.Venue.Siret != nil {
			siret = *s.Venue.Siret
		}
		registered, err := client.IsSiretRegistered(ctx, siret)
		if err != nil {
			log.WithError(err).Error("siret pre-flight check failed")
			continue
		}
		if !registered {
			log.Info("siret not registered at provider, skipping")
			continue
		}
		if err := r.Orchestrator.Synchronize(ctx, client, s.VenueProvider, s.Venue); err != nil {
			log.WithError(err).Error("sync run failed")
			continue
		}
		succeeded++
	}
	return succeeded, nil
}
