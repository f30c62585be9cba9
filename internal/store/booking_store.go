package store

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
)

const bookingsCollection = "bookings"

// blockingStatuses are the booking statuses that occupy a vehicle's
// calendar for the availability check.
var blockingStatuses = []string{model.BookingStatusPending, model.BookingStatusConfirmed}

// BookingStore persists rental bookings and test-drive requests through the
// document store.  The availability check and the subsequent insert are two
// separate remote calls with nothing between them; two near-simultaneous
// requests for overlapping ranges can both pass the check and both be
// inserted.
type BookingStore struct {
    docs docstore.Store
    now  func() time.Time
}

// NewBookingStore constructs a BookingStore.
func NewBookingStore(docs docstore.Store) *BookingStore {
    if docs == nil {
        panic("nil docstore passed to NewBookingStore")
    }
    return &BookingStore{docs: docs, now: time.Now}
}

// Create validates the request, rejects it when its range overlaps an
// existing pending or confirmed booking for the same vehicle, and inserts
// it with status pending.
func (s *BookingStore) Create(ctx context.Context, actor Actor, b model.Booking) (model.Booking, error) {
    if b.VehicleID == "" {
        return model.Booking{}, fmt.Errorf("vehicle id is required")
    }
    switch b.Kind {
    case model.BookingKindRental:
        if b.StartDate.IsZero() || b.EndDate.IsZero() {
            return model.Booking{}, fmt.Errorf("start and end dates are required")
        }
        if b.EndDate.Before(b.StartDate) {
            return model.Booking{}, fmt.Errorf("end date before start date")
        }
    case model.BookingKindTestDrive:
        if b.PreferredAt == nil {
            return model.Booking{}, fmt.Errorf("preferred time is required")
        }
    default:
        return model.Booking{}, fmt.Errorf("invalid booking kind %q", b.Kind)
    }

    existing, err := s.blockingForVehicle(ctx, b.VehicleID)
    if err != nil {
        return model.Booking{}, err
    }
    start, end := b.Range()
    for _, e := range existing {
        if e.Overlaps(start, end) {
            return model.Booking{}, ErrSlotUnavailable
        }
    }

    now := s.now().UTC()
    b.ID = ""
    b.UserID = actor.ID
    b.Status = model.BookingStatusPending
    b.CreatedAt = now
    b.UpdatedAt = now
    id, err := s.docs.Create(ctx, bookingsCollection, b)
    if err != nil {
        return model.Booking{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    b.ID = id
    return b, nil
}

// UpdateStatus sets a booking's status.  Admins may set any valid status;
// the booking's owner may only cancel.
func (s *BookingStore) UpdateStatus(ctx context.Context, actor Actor, id, status string) (model.Booking, error) {
    if !model.ValidBookingStatus(status) {
        return model.Booking{}, fmt.Errorf("invalid booking status %q", status)
    }
    var b model.Booking
    if err := s.docs.Get(ctx, bookingsCollection, id, &b); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return model.Booking{}, ErrNotFound
        }
        return model.Booking{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    if !actor.Admin {
        if b.UserID != actor.ID || status != model.BookingStatusCancelled {
            return model.Booking{}, ErrNotAuthorized
        }
    }
    b.Status = status
    b.UpdatedAt = s.now().UTC()
    if err := s.docs.Update(ctx, bookingsCollection, id, b); err != nil {
        return model.Booking{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    return b, nil
}

// Get returns a single booking.  Non-admin actors may only read their own.
func (s *BookingStore) Get(ctx context.Context, actor Actor, id string) (model.Booking, error) {
    var b model.Booking
    if err := s.docs.Get(ctx, bookingsCollection, id, &b); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return model.Booking{}, ErrNotFound
        }
        return model.Booking{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    if b.UserID != actor.ID && !actor.Admin {
        return model.Booking{}, ErrNotAuthorized
    }
    return b, nil
}

// ListByUser returns all bookings created by the user, newest first.
// status narrows the result when non-empty.
func (s *BookingStore) ListByUser(ctx context.Context, userID, status string) ([]model.Booking, error) {
    preds := []docstore.Predicate{docstore.Eq("user_id", userID)}
    if status != "" {
        preds = append(preds, docstore.Eq("status", status))
    }
    return s.queryAll(ctx, preds)
}

// ListByVehicle returns all bookings for a vehicle, newest first.
func (s *BookingStore) ListByVehicle(ctx context.Context, vehicleID, status string) ([]model.Booking, error) {
    preds := []docstore.Predicate{docstore.Eq("vehicle_id", vehicleID)}
    if status != "" {
        preds = append(preds, docstore.Eq("status", status))
    }
    return s.queryAll(ctx, preds)
}

// ListAll returns every booking, optionally narrowed by status.  Admin
// dashboards use this.
func (s *BookingStore) ListAll(ctx context.Context, status string) ([]model.Booking, error) {
    var preds []docstore.Predicate
    if status != "" {
        preds = append(preds, docstore.Eq("status", status))
    }
    return s.queryAll(ctx, preds)
}

// blockingForVehicle fetches every pending or confirmed booking for the
// vehicle, paging through the store until exhausted.
func (s *BookingStore) blockingForVehicle(ctx context.Context, vehicleID string) ([]model.Booking, error) {
    return s.queryAll(ctx, []docstore.Predicate{
        docstore.Eq("vehicle_id", vehicleID),
        docstore.In("status", blockingStatuses),
    })
}

// queryAll drains every page matching the predicates, newest first.
func (s *BookingStore) queryAll(ctx context.Context, preds []docstore.Predicate) ([]model.Booking, error) {
    var out []model.Booking
    cursor := ""
    for {
        page, err := s.docs.Query(ctx, bookingsCollection, docstore.Query{
            Predicates: preds,
            Sort:       docstore.Sort{Field: "created_at", Descending: true},
            Limit:      100,
            Cursor:     cursor,
        })
        if err != nil {
            return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
        }
        for _, d := range page.Docs {
            var b model.Booking
            if err := json.Unmarshal(d.Data, &b); err != nil {
                return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
            }
            if b.ID == "" {
                b.ID = d.ID
            }
            out = append(out, b)
        }
        if page.NextCursor == "" {
            return out, nil
        }
        cursor = page.NextCursor
    }
}
