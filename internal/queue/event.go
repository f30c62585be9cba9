// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a rental booking or test-drive
// request is successfully inserted.  It carries enough information for
// downstream consumers to log or notify without querying the primary
// store.
type BookingCreatedEvent struct {
    BookingID    string `json:"booking_id"`
    UserID       string `json:"user_id"`
    VehicleID    string `json:"vehicle_id"`
    Kind         string `json:"kind"`
    VehicleMake  string `json:"vehicle_make,omitempty"`
    VehicleModel string `json:"vehicle_model,omitempty"`
    StartDate    string `json:"start_date"`
    EndDate      string `json:"end_date"`
    Status       string `json:"status"`
    CreatedAt    string `json:"created_at"`
}
