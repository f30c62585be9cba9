// Package store implements the marketplace data-access layer: a cached
// query façade over the remote document store for listings, and the booking
// store with its availability check.  These sentinel values let handlers
// map failures to HTTP responses without inspecting error strings.
package store

import "errors"

// ErrNotFound is returned when the requested id does not exist in the
// remote store.  Handlers should translate this into a 404 response.
var ErrNotFound = errors.New("not found")

// ErrNotAuthorized is returned when the actor does not own the resource and
// is not an admin.  Handlers should translate this into a 403 response.
var ErrNotAuthorized = errors.New("not authorized")

// ErrFetchFailed wraps a remote-store read error.  The underlying message
// is preserved via %w wrapping.
var ErrFetchFailed = errors.New("fetch failed")

// ErrWriteFailed wraps a remote-store write error.
var ErrWriteFailed = errors.New("write failed")

// ErrSlotUnavailable is returned when a booking's date range overlaps an
// existing pending or confirmed booking for the same vehicle.
var ErrSlotUnavailable = errors.New("slot unavailable")
