package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/culture-marketplace/internal/model"
)

// VenueRepo reads venue rows.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

// GetByID fetches a venue by id.
func (r *VenueRepo) GetByID(ctx context.Context, id int64) (model.Venue, error) {
	var (
		v     model.Venue
		siret sql.NullString
		lat   sql.NullFloat64
		lon   sql.NullFloat64
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, manager_user_id, name, siret, booking_email, is_virtual, latitude, longitude, created_at, updated_at
		 FROM venues WHERE id=? LIMIT 1`, id).
		Scan(&v.ID, &v.ManagerUserID, &v.Name, &siret, &v.BookingEmail, &v.IsVirtual, &lat, &lon, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return model.Venue{}, err
	}
	if siret.Valid {
		s := siret.String
		v.Siret = &s
	}
	if lat.Valid {
		f := lat.Float64
		v.Latitude = &f
	}
	if lon.Valid {
		f := lon.Float64
		v.Longitude = &f
	}
	return v, nil
}

// IsManagedBy reports whether the venue is managed by the given pro
// user.  Handlers use it to return 403 on foreign venues.
func (r *VenueRepo) IsManagedBy(ctx context.Context, venueID, userID int64) (bool, error) {
	var managerID int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT manager_user_id FROM venues WHERE id=? LIMIT 1", venueID).Scan(&managerID)
	if err != nil {
		return false, err
	}
	return managerID == userID, nil
}
