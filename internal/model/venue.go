package model

import "time"

// Venue represents a physical or virtual place managed by a pro actor
// where offers are published.  Physical venues carry a SIRET, which is
// the pivot identifier used to scope an external provider catalog to
// this venue.  Virtual venues have no SIRET and are never synchronized
// against a provider feed.
//
// Fields:
//  ID            – primary key identifier.
//  ManagerUserID – pro user who manages this venue.
//  Name          – display name of the venue.
//  Siret         – French establishment identifier (nullable for virtual venues).
//  BookingEmail  – address copied onto offers created for this venue.
//  IsVirtual     – whether the venue is virtual (digital offers only).
//  Latitude      – geographic latitude (nullable).
//  Longitude     – geographic longitude (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Venue struct {
	ID            int64      // venues.id
	ManagerUserID int64      // venues.manager_user_id
	Name          string     // venues.name
	Siret         *string    // venues.siret (nullable)
	BookingEmail  string     // venues.booking_email
	IsVirtual     bool       // venues.is_virtual
	Latitude      *float64   // venues.latitude (nullable)
	Longitude     *float64   // venues.longitude (nullable)
	CreatedAt     time.Time  // venues.created_at
	UpdatedAt     time.Time  // venues.updated_at
}
