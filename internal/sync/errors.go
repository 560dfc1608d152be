package sync

import "errors"

// ErrSyncAlreadyRunning is returned when the per-venue-provider lease is
// already held, meaning another sync run for the same subscription is in
// flight.  The caller should retry later rather than queue up.
var ErrSyncAlreadyRunning = errors.New("a sync run is already in progress for this venue provider")

// ErrPageCapExceeded is returned when a provider keeps returning full
// pages past the configured maximum.  It protects against feeds that
// violate their pagination contract and loop forever.
var ErrPageCapExceeded = errors.New("provider page cap exceeded")

// ErrNoSiret is returned when a venue-provider has no usable SIRET to
// scope the provider catalog with.
var ErrNoSiret = errors.New("venue has no siret to synchronize with")

// ErrSiretUnchanged is returned when the old SIRET passed to the repair
// tool is the venue's current one.  Running in that state would make
// every offer its own duplicate and retire the live catalog.
var ErrSiretUnchanged = errors.New("old siret equals the venue's current siret")

// ErrAmbiguousStockCount is recorded by the SIRET repair tool when the
// valid offer does not have exactly one live stock, making a booking
// transfer target ambiguous.
var ErrAmbiguousStockCount = errors.New("valid offer does not have exactly one stock")

// ErrInsufficientQuantity is recorded by the SIRET repair tool when the
// valid stock cannot absorb the booking quantities being moved onto it.
// Transferring anyway would silently oversell.
var ErrInsufficientQuantity = errors.New("valid stock cannot absorb transferred bookings")
