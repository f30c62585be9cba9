package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "vehicle-marketplace/internal/model"
    "vehicle-marketplace/internal/queue"
    queue_publisher "vehicle-marketplace/internal/service"
    "vehicle-marketplace/internal/store"
)

// BookingHandler exposes rental bookings and test-drive requests over HTTP.
// The listing store is consulted to verify the vehicle exists and to enrich
// published events with make/model.
type BookingHandler struct {
    Bookings *store.BookingStore
    Listings *store.ListingStore
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(b *store.BookingStore, l *store.ListingStore) *BookingHandler {
    return &BookingHandler{Bookings: b, Listings: l}
}

type rentalReq struct {
    VehicleID    string `json:"vehicle_id"`
    StartDate    string `json:"start_date"`
    EndDate      string `json:"end_date"`
    Notes        string `json:"notes"`
    ContactName  string `json:"contact_name"`
    ContactPhone string `json:"contact_phone"`
}

type testDriveReq struct {
    VehicleID    string `json:"vehicle_id"`
    PreferredAt  string `json:"preferred_at"`
    DurationMin  int    `json:"duration_min"`
    Notes        string `json:"notes"`
    ContactName  string `json:"contact_name"`
    ContactPhone string `json:"contact_phone"`
}

// CreateRental serves POST /v1/bookings: a rental with an explicit date
// range.
func (h *BookingHandler) CreateRental(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req rentalReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    start, err := parseWhen(req.StartDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date"})
    }
    end, err := parseWhen(req.EndDate)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date"})
    }

    b := model.Booking{
        VehicleID:    req.VehicleID,
        Kind:         model.BookingKindRental,
        StartDate:    start,
        EndDate:      end,
        Notes:        req.Notes,
        ContactName:  req.ContactName,
        ContactPhone: req.ContactPhone,
    }
    return h.create(c, actor, b)
}

// CreateTestDrive serves POST /v1/test-drives: a single preferred time plus
// an optional duration.
func (h *BookingHandler) CreateTestDrive(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req testDriveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    preferred, err := parseWhen(req.PreferredAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid preferred_at"})
    }

    b := model.Booking{
        VehicleID:    req.VehicleID,
        Kind:         model.BookingKindTestDrive,
        PreferredAt:  &preferred,
        DurationMin:  req.DurationMin,
        Notes:        req.Notes,
        ContactName:  req.ContactName,
        ContactPhone: req.ContactPhone,
    }
    return h.create(c, actor, b)
}

// create runs the shared vehicle check, insert and event publish.
func (h *BookingHandler) create(c echo.Context, actor store.Actor, b model.Booking) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    vehicle, err := h.Listings.GetListing(ctx, b.VehicleID)
    if err != nil {
        return storeErr(c, err)
    }
    if vehicle.Status != model.ListingStatusActive {
        return c.JSON(http.StatusConflict, echo.Map{"error": "listing is not active"})
    }

    created, err := h.Bookings.Create(ctx, actor, b)
    if err != nil {
        return storeErr(c, err)
    }

    // Publish off the request path; a broker outage must not fail the
    // booking.
    start, end := created.Range()
    event := queue.BookingCreatedEvent{
        BookingID:    created.ID,
        UserID:       created.UserID,
        VehicleID:    created.VehicleID,
        Kind:         created.Kind,
        VehicleMake:  vehicle.Make,
        VehicleModel: vehicle.Model,
        StartDate:    start.UTC().Format(time.RFC3339),
        EndDate:      end.UTC().Format(time.RFC3339),
        Status:       created.Status,
        CreatedAt:    created.CreatedAt.UTC().Format(time.RFC3339),
    }
    go func() {
        pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer pubCancel()
        _ = queue_publisher.PublishBookingCreated(pubCtx, event)
    }()

    return c.JSON(http.StatusCreated, created)
}

// MyBookings serves GET /v1/my/bookings.
func (h *BookingHandler) MyBookings(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    bookings, err := h.Bookings.ListByUser(ctx, actor.ID, c.QueryParam("status"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// GetBooking serves GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    b, err := h.Bookings.Get(ctx, actor, c.Param("id"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// UpdateStatus serves PUT /v1/bookings/:id/status.  Owners may only cancel;
// the admin surface goes through the same store call with wider rights.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    b, err := h.Bookings.UpdateStatus(ctx, actor, c.Param("id"), req.Status)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// VehicleBookings serves GET /v1/listings/:id/bookings: the calendar for one
// vehicle, visible to the listing's owner or an admin.
func (h *BookingHandler) VehicleBookings(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    vehicleID := c.Param("id")

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    l, err := h.Listings.GetListing(ctx, vehicleID)
    if err != nil {
        return storeErr(c, err)
    }
    if l.UserID != actor.ID && !actor.Admin {
        return storeErr(c, store.ErrNotAuthorized)
    }

    bookings, err := h.Bookings.ListByVehicle(ctx, vehicleID, c.QueryParam("status"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
