// Package router wires HTTP routes to their handlers and middleware.
package router

import (
    "github.com/labstack/echo/v4"

    "vehicle-marketplace/internal/handler"
    "vehicle-marketplace/internal/middleware"
    "vehicle-marketplace/internal/model"
)

// RegisterHealth registers the unauthenticated health check.
func RegisterHealth(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Register, login, refresh
// and logout need no token; /v1/me requires a valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/logout", a.Logout)

    me := e.Group("/v1")
    me.Use(middleware.JWTAuth(jwtSecret))
    me.GET("/me", a.Me)
}

// RegisterPublic registers the guest browse endpoints.  cache may be nil
// when Redis is unavailable; the routes then serve uncached.
func RegisterPublic(e *echo.Echo, l *handler.ListingHandler, cache echo.MiddlewareFunc) {
    g := e.Group("/v1")
    if cache != nil {
        g.Use(cache)
    }
    g.GET("/listings", l.GetListings)
    g.GET("/listings/:id", l.GetListing)

    // View counting is a write; it stays outside the cached group.
    e.POST("/v1/listings/:id/views", l.IncrementViews)
}

// RegisterUser registers the authenticated marketplace endpoints.  Both
// roles pass; ownership checks happen in the stores.
func RegisterUser(e *echo.Echo, l *handler.ListingHandler, b *handler.BookingHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleUser, model.RoleAdmin))

    g.GET("/my/listings", l.MyListings)
    g.POST("/listings", l.Create)
    g.PATCH("/listings/:id", l.Update)
    g.POST("/listings/:id/images", l.AddImages)
    g.PUT("/listings/:id/status", l.SetStatus)
    g.DELETE("/listings/:id", l.Delete)
    g.POST("/listings/:id/favorite", l.ToggleFavorite)
    g.GET("/listings/:id/bookings", b.VehicleBookings)

    g.POST("/bookings", b.CreateRental)
    g.POST("/test-drives", b.CreateTestDrive)
    g.GET("/my/bookings", b.MyBookings)
    g.GET("/bookings/:id", b.GetBooking)
    g.PUT("/bookings/:id/status", b.UpdateStatus)
}

// RegisterAdmin registers the moderation endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin))

    g.GET("/listings", a.ListingsList)
    g.PUT("/listings/:id/flags", a.SetFlags)
    g.PUT("/listings/:id/status", a.SetListingStatus)
    g.DELETE("/listings/:id", a.DeleteListing)
    g.POST("/listings/cache/reset", a.ResetListingCache)

    g.GET("/bookings", a.BookingsList)
    g.PUT("/bookings/:id/status", a.SetBookingStatus)

    g.GET("/users", a.UsersList)
    g.PUT("/users/:id/active", a.SetUserActive)
}
