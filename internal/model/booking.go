package model

import "time"

// Booking kinds.  Rentals carry an explicit date range; test drives carry a
// single preferred time plus a duration and are expanded to a range when
// checking availability.
const (
    BookingKindRental    = "rental"
    BookingKindTestDrive = "test_drive"
)

// Booking statuses.
const (
    BookingStatusPending   = "pending"
    BookingStatusConfirmed = "confirmed"
    BookingStatusCompleted = "completed"
    BookingStatusCancelled = "cancelled"
)

// ValidBookingStatus reports whether s is a recognised booking status.
func ValidBookingStatus(s string) bool {
    switch s {
    case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
        return true
    }
    return false
}

// Booking is a rental booking or test-drive request for a vehicle, stored in
// the `bookings` collection.  Only bookings in status pending or confirmed
// block the vehicle's calendar.
//
// Fields:
//  ID          – opaque document identifier.
//  UserID      – user who requested the booking.
//  VehicleID   – listing id of the booked vehicle.
//  Kind        – rental or test_drive.
//  StartDate   – start of the booked range (rentals).
//  EndDate     – end of the booked range, inclusive (rentals).
//  PreferredAt – requested time for a test drive.
//  DurationMin – test drive duration in minutes.
//  Status      – pending, confirmed, completed or cancelled.
//  Notes       – free text from the requester.
//  ContactName/ContactPhone – requester contact details.
//  CreatedAt/UpdatedAt – lifecycle timestamps in UTC.
type Booking struct {
    ID           string     `json:"id"`
    UserID       string     `json:"user_id"`
    VehicleID    string     `json:"vehicle_id"`
    Kind         string     `json:"kind"`
    StartDate    time.Time  `json:"start_date"`
    EndDate      time.Time  `json:"end_date"`
    PreferredAt  *time.Time `json:"preferred_at,omitempty"`
    DurationMin  int        `json:"duration_min,omitempty"`
    Status       string     `json:"status"`
    Notes        string     `json:"notes,omitempty"`
    ContactName  string     `json:"contact_name,omitempty"`
    ContactPhone string     `json:"contact_phone,omitempty"`
    CreatedAt    time.Time  `json:"created_at"`
    UpdatedAt    time.Time  `json:"updated_at"`
}

// Range returns the date range the booking occupies on the vehicle's
// calendar.  For test drives the range is derived from the preferred time
// and the duration.
func (b Booking) Range() (time.Time, time.Time) {
    if b.Kind == BookingKindTestDrive && b.PreferredAt != nil {
        start := *b.PreferredAt
        dur := b.DurationMin
        if dur <= 0 {
            dur = 30
        }
        return start, start.Add(time.Duration(dur) * time.Minute)
    }
    return b.StartDate, b.EndDate
}

// Overlaps reports whether the booking's range intersects [start, end].
// Boundaries touching count as an overlap, matching the inclusive
// comparison used by the availability check.
func (b Booking) Overlaps(start, end time.Time) bool {
    bs, be := b.Range()
    return !start.After(be) && !end.Before(bs)
}
