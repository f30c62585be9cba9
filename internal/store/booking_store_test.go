package store

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "vehicle-marketplace/internal/model"
)

func day(d int) time.Time {
    return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func newBookingStore(t *testing.T) (*BookingStore, *fakeDocs) {
    t.Helper()
    docs := newFakeDocs()
    s := NewBookingStore(docs)
    s.now = func() time.Time { return baseTime }
    return s, docs
}

func rental(vehicle string, start, end time.Time) model.Booking {
    return model.Booking{
        VehicleID: vehicle,
        Kind:      model.BookingKindRental,
        StartDate: start,
        EndDate:   end,
    }
}

func TestCreateRejectsOverlappingRental(t *testing.T) {
    s, _ := newBookingStore(t)
    alice, bob := Actor{ID: "alice"}, Actor{ID: "bob"}

    _, err := s.Create(context.Background(), alice, rental("v1", day(5), day(10)))
    require.NoError(t, err)

    _, err = s.Create(context.Background(), bob, rental("v1", day(8), day(12)))
    assert.ErrorIs(t, err, ErrSlotUnavailable)

    // Touching boundaries count as overlap.
    _, err = s.Create(context.Background(), bob, rental("v1", day(10), day(12)))
    assert.ErrorIs(t, err, ErrSlotUnavailable)

    // The day after the range ends is free.
    _, err = s.Create(context.Background(), bob, rental("v1", day(11), day(15)))
    assert.NoError(t, err)

    // A different vehicle is unaffected.
    _, err = s.Create(context.Background(), bob, rental("v2", day(8), day(12)))
    assert.NoError(t, err)
}

func TestCreateIgnoresNonBlockingBookings(t *testing.T) {
    s, _ := newBookingStore(t)
    alice, bob := Actor{ID: "alice"}, Actor{ID: "bob"}

    first, err := s.Create(context.Background(), alice, rental("v1", day(5), day(10)))
    require.NoError(t, err)
    _, err = s.UpdateStatus(context.Background(), alice, first.ID, model.BookingStatusCancelled)
    require.NoError(t, err)

    _, err = s.Create(context.Background(), bob, rental("v1", day(8), day(12)))
    assert.NoError(t, err, "cancelled bookings do not block the calendar")
}

func TestCreateTestDriveUsesDurationWindow(t *testing.T) {
    s, _ := newBookingStore(t)
    alice, bob := Actor{ID: "alice"}, Actor{ID: "bob"}

    at := time.Date(2025, 7, 5, 14, 0, 0, 0, time.UTC)
    _, err := s.Create(context.Background(), alice, model.Booking{
        VehicleID:   "v1",
        Kind:        model.BookingKindTestDrive,
        PreferredAt: &at,
        DurationMin: 60,
    })
    require.NoError(t, err)

    // Inside the hour window.
    inside := at.Add(30 * time.Minute)
    _, err = s.Create(context.Background(), bob, model.Booking{
        VehicleID:   "v1",
        Kind:        model.BookingKindTestDrive,
        PreferredAt: &inside,
    })
    assert.ErrorIs(t, err, ErrSlotUnavailable)

    // Past the window.
    later := at.Add(2 * time.Hour)
    _, err = s.Create(context.Background(), bob, model.Booking{
        VehicleID:   "v1",
        Kind:        model.BookingKindTestDrive,
        PreferredAt: &later,
    })
    assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
    s, _ := newBookingStore(t)
    alice := Actor{ID: "alice"}

    _, err := s.Create(context.Background(), alice, rental("", day(1), day(2)))
    assert.Error(t, err)

    _, err = s.Create(context.Background(), alice, rental("v1", day(5), day(2)))
    assert.Error(t, err, "end before start")

    _, err = s.Create(context.Background(), alice, model.Booking{VehicleID: "v1", Kind: model.BookingKindTestDrive})
    assert.Error(t, err, "test drive needs a preferred time")

    _, err = s.Create(context.Background(), alice, model.Booking{VehicleID: "v1", Kind: "lease", StartDate: day(1), EndDate: day(2)})
    assert.Error(t, err, "unknown kind")
}

func TestCreateStampsOwnershipAndStatus(t *testing.T) {
    s, _ := newBookingStore(t)

    b, err := s.Create(context.Background(), Actor{ID: "alice"}, model.Booking{
        VehicleID: "v1",
        Kind:      model.BookingKindRental,
        StartDate: day(1),
        EndDate:   day(2),
        UserID:    "mallory",
        Status:    model.BookingStatusConfirmed,
    })
    require.NoError(t, err)
    assert.NotEmpty(t, b.ID)
    assert.Equal(t, "alice", b.UserID)
    assert.Equal(t, model.BookingStatusPending, b.Status)
    assert.Equal(t, baseTime, b.CreatedAt)
}

func TestUpdateStatusPermissions(t *testing.T) {
    s, _ := newBookingStore(t)
    alice := Actor{ID: "alice"}

    b, err := s.Create(context.Background(), alice, rental("v1", day(1), day(2)))
    require.NoError(t, err)

    // The owner may only cancel.
    _, err = s.UpdateStatus(context.Background(), alice, b.ID, model.BookingStatusConfirmed)
    assert.ErrorIs(t, err, ErrNotAuthorized)

    // A stranger may do nothing.
    _, err = s.UpdateStatus(context.Background(), Actor{ID: "bob"}, b.ID, model.BookingStatusCancelled)
    assert.ErrorIs(t, err, ErrNotAuthorized)

    // An admin may confirm.
    confirmed, err := s.UpdateStatus(context.Background(), Actor{ID: "root", Admin: true}, b.ID, model.BookingStatusConfirmed)
    require.NoError(t, err)
    assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)

    // The owner cancels their own booking.
    cancelled, err := s.UpdateStatus(context.Background(), alice, b.ID, model.BookingStatusCancelled)
    require.NoError(t, err)
    assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)

    _, err = s.UpdateStatus(context.Background(), alice, b.ID, "done")
    assert.Error(t, err, "unknown status")

    _, err = s.UpdateStatus(context.Background(), alice, "missing", model.BookingStatusCancelled)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRestrictsToOwnerOrAdmin(t *testing.T) {
    s, _ := newBookingStore(t)
    alice := Actor{ID: "alice"}

    b, err := s.Create(context.Background(), alice, rental("v1", day(1), day(2)))
    require.NoError(t, err)

    _, err = s.Get(context.Background(), Actor{ID: "bob"}, b.ID)
    assert.ErrorIs(t, err, ErrNotAuthorized)

    got, err := s.Get(context.Background(), alice, b.ID)
    require.NoError(t, err)
    assert.Equal(t, b.ID, got.ID)

    _, err = s.Get(context.Background(), Actor{ID: "root", Admin: true}, b.ID)
    assert.NoError(t, err)
}

func TestListFilters(t *testing.T) {
    s, _ := newBookingStore(t)
    alice, bob := Actor{ID: "alice"}, Actor{ID: "bob"}

    b1, err := s.Create(context.Background(), alice, rental("v1", day(1), day(2)))
    require.NoError(t, err)
    _, err = s.Create(context.Background(), bob, rental("v1", day(5), day(6)))
    require.NoError(t, err)
    _, err = s.Create(context.Background(), alice, rental("v2", day(1), day(2)))
    require.NoError(t, err)

    mine, err := s.ListByUser(context.Background(), "alice", "")
    require.NoError(t, err)
    assert.Len(t, mine, 2)

    forVehicle, err := s.ListByVehicle(context.Background(), "v1", "")
    require.NoError(t, err)
    assert.Len(t, forVehicle, 2)

    all, err := s.ListAll(context.Background(), "")
    require.NoError(t, err)
    assert.Len(t, all, 3)

    _, err = s.UpdateStatus(context.Background(), alice, b1.ID, model.BookingStatusCancelled)
    require.NoError(t, err)
    cancelled, err := s.ListAll(context.Background(), model.BookingStatusCancelled)
    require.NoError(t, err)
    require.Len(t, cancelled, 1)
    assert.Equal(t, b1.ID, cancelled[0].ID)
}
