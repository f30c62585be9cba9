package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "vehicle-marketplace/internal/model"
    "vehicle-marketplace/internal/repository"
    "vehicle-marketplace/internal/store"
)

// AdminHandler is the moderation surface.  Every route it serves sits
// behind RequireRole(ADMIN); the store-level admin checks are a second
// line of defence.
type AdminHandler struct {
    Listings *store.ListingStore
    Bookings *store.BookingStore
    Users    *repository.UserRepo
    Tokens   *repository.TokenRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(l *store.ListingStore, b *store.BookingStore, u *repository.UserRepo, t *repository.TokenRepo) *AdminHandler {
    return &AdminHandler{Listings: l, Bookings: b, Users: u, Tokens: t}
}

// ListingsList serves GET /v1/admin/listings, defaulting to the pending
// moderation queue.
func (h *AdminHandler) ListingsList(c echo.Context) error {
    status := c.QueryParam("status")
    if status == "" {
        status = model.ListingStatusPending
    }
    filters := &store.ListingFilters{Status: status, SortBy: c.QueryParam("sort")}

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    page, err := h.Listings.GetListings(ctx, filters, pageSizeParam(c), c.QueryParam("cursor"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, page)
}

// SetFlags serves PUT /v1/admin/listings/:id/flags.
func (h *AdminHandler) SetFlags(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var flags model.AdminFlags
    if err := c.Bind(&flags); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    l, err := h.Listings.SetAdminFlags(ctx, actor, c.Param("id"), flags)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// SetListingStatus serves PUT /v1/admin/listings/:id/status.  Admins pass
// the store's ownership check unconditionally.
func (h *AdminHandler) SetListingStatus(c echo.Context) error {
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

    l, err := h.Listings.SetStatus(ctx, actor, c.Param("id"), req.Status)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// DeleteListing serves DELETE /v1/admin/listings/:id.
func (h *AdminHandler) DeleteListing(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    if err := h.Listings.DeleteListing(ctx, actor, c.Param("id")); err != nil {
        return storeErr(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ResetListingCache serves POST /v1/admin/listings/cache/reset, forcing the
// next unfiltered read to hit the remote store.
func (h *AdminHandler) ResetListingCache(c echo.Context) error {
    h.Listings.Reset()
    return c.NoContent(http.StatusNoContent)
}

// BookingsList serves GET /v1/admin/bookings, optionally narrowed by
// status.
func (h *AdminHandler) BookingsList(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    bookings, err := h.Bookings.ListAll(ctx, c.QueryParam("status"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// SetBookingStatus serves PUT /v1/admin/bookings/:id/status.
func (h *AdminHandler) SetBookingStatus(c echo.Context) error {
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

// UsersList serves GET /v1/admin/users.  Password hashes are stripped from
// the response.
func (h *AdminHandler) UsersList(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
    }
    for i := range users {
        users[i].PasswordHash = ""
    }
    return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// SetUserActive serves PUT /v1/admin/users/:id/active, enabling or
// disabling an account.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
    var req struct {
        Active *bool `json:"active"`
    }
    if err := c.Bind(&req); err != nil || req.Active == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "active required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    u, err := h.Users.SetActive(ctx, c.Param("id"), *req.Active)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    // Disabling an account also kills its sessions.
    if !*req.Active {
        if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
            log.Printf("user %s: revoke sessions failed: %v", u.ID, err)
        }
    }
    u.PasswordHash = ""
    return c.JSON(http.StatusOK, u)
}
