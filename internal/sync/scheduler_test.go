package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/culture-marketplace/internal/model"
	"github.com/iliyamo/culture-marketplace/internal/provider"
)

type staticSource struct{ syncables []Syncable }

func (s *staticSource) ListActiveForSync(_ context.Context) ([]Syncable, error) {
	return s.syncables, nil
}

// stubClient wraps a feed with a scripted SIRET registration answer.
type stubClient struct {
	feed       provider.StockFeed
	registered bool
	checkErr   error
}

func (c *stubClient) Stocks(ctx context.Context, siret, lastRef, modifiedSince string, limit int) (provider.StockResponse, error) {
	return c.feed.Stocks(ctx, siret, lastRef, modifiedSince, limit)
}

func (c *stubClient) IsSiretRegistered(_ context.Context, _ string) (bool, error) {
	return c.registered, c.checkErr
}

func syncableFor(id int64, siret string) Syncable {
	s := siret
	return Syncable{
		VenueProvider: model.VenueProvider{ID: id, ProviderID: testProviderID, IsActive: true},
		Venue:         model.Venue{ID: id, Siret: &s},
		Provider:      model.Provider{ID: testProviderID, Name: "libraires", IsActive: true},
	}
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	cat := newFakeCatalog()
	vps := &fakeVenueProviderStore{}
	o := newTestOrchestrator(cat, &recordingIndexer{}, vps, nil)

	clients := map[int64]*stubClient{
		1: {feed: &scriptedFeed{}, registered: true},
		2: {feed: &scriptedFeed{}, registered: false},         // skipped
		3: {feed: &scriptedFeed{}, checkErr: assert.AnError},  // pre-flight fails
		4: {feed: &loopingFeed{}, registered: true},           // sync fails at page cap
		5: {feed: &scriptedFeed{}, registered: true},
	}
	source := &staticSource{}
	for id := int64(1); id <= 5; id++ {
		source.syncables = append(source.syncables, syncableFor(id, "11111111111111"))
	}
	next := int64(0)
	runner := &Runner{
		Source:       source,
		Orchestrator: o,
		NewClient: func(_ model.Provider) ProviderClient {
			next++
			return clients[next]
		},
	}
	o.MaxPages = 2

	succeeded, err := runner.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, succeeded, "one skip, one pre-flight failure and one sync failure")
}
