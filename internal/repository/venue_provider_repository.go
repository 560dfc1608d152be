package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/culture-marketplace/internal/sync"
)

// VenueProviderRepo persists venue-provider subscriptions and lists the
// ones eligible for synchronization.
type VenueProviderRepo struct{ DB *sql.DB }

func NewVenueProviderRepo(db *sql.DB) *VenueProviderRepo { return &VenueProviderRepo{DB: db} }

const syncableQuery = `
	SELECT vp.id, vp.venue_id, vp.provider_id, vp.venue_id_at_offer_provider, vp.last_sync_date, vp.is_active,
	       v.id, v.manager_user_id, v.name, v.siret, v.booking_email, v.is_virtual,
	       p.id, p.name, p.api_url, p.auth_token, p.enabled_for_pro, p.is_active
	FROM venue_providers vp
	JOIN venues v ON v.id = vp.venue_id
	JOIN providers p ON p.id = vp.provider_id`

// ListActiveForSync returns every subscription whose provider is active
// and enabled for pro actors, whose subscription is active, and whose
// venue carries a SIRET.  This is the scheduler-level filtering the
// orchestrator relies on.
func (r *VenueProviderRepo) ListActiveForSync(ctx context.Context) ([]sync.Syncable, error) {
	rows, err := r.DB.QueryContext(ctx, syncableQuery+`
		WHERE vp.is_active=1 AND p.is_active=1 AND p.enabled_for_pro=1
		  AND v.siret IS NOT NULL AND v.siret <> ''
		ORDER BY vp.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []sync.Syncable
	for rows.Next() {
		s, err := scanSyncable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSyncable loads one subscription with its venue and provider, for
// operator-triggered sync runs.
func (r *VenueProviderRepo) GetSyncable(ctx context.Context, venueProviderID int64) (sync.Syncable, error) {
	rows, err := r.DB.QueryContext(ctx, syncableQuery+" WHERE vp.id=? LIMIT 1", venueProviderID)
	if err != nil {
		return sync.Syncable{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return sync.Syncable{}, err
		}
		return sync.Syncable{}, sql.ErrNoRows
	}
	return scanSyncable(rows)
}

// UpdateLastSyncDate advances the incremental sync cursor.
func (r *VenueProviderRepo) UpdateLastSyncDate(ctx context.Context, venueProviderID int64, syncedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE venue_providers SET last_sync_date=? WHERE id=?",
		syncedAt.UTC(), venueProviderID)
	return err
}

func scanSyncable(rows *sql.Rows) (sync.Syncable, error) {
	var (
		s         sync.Syncable
		lastSync  sql.NullTime
		siret     sql.NullString
		authToken sql.NullString
	)
	err := rows.Scan(
		&s.VenueProvider.ID, &s.VenueProvider.VenueID, &s.VenueProvider.ProviderID,
		&s.VenueProvider.VenueIDAtOfferProvider, &lastSync, &s.VenueProvider.IsActive,
		&s.Venue.ID, &s.Venue.ManagerUserID, &s.Venue.Name, &siret, &s.Venue.BookingEmail, &s.Venue.IsVirtual,
		&s.Provider.ID, &s.Provider.Name, &s.Provider.APIURL, &authToken, &s.Provider.EnabledForPro, &s.Provider.IsActive,
	)
	if err != nil {
		return sync.Syncable{}, err
	}
	if lastSync.Valid {
		t := lastSync.Time.UTC()
		s.VenueProvider.LastSyncDate = &t
	}
	if siret.Valid {
		str := siret.String
		s.Venue.Siret = &str
	}
	if authToken.Valid {
		str := authToken.String
		s.Provider.AuthToken = &str
	}
	return s, nil
}
