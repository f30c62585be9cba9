package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "vehicle-marketplace/internal/model"
    "vehicle-marketplace/internal/store"
)

// getActor extracts the authenticated caller from the echo context.  JWTAuth
// stores the subject under "user_id" and the role under "role".
func getActor(c echo.Context) (store.Actor, error) {
    id, ok := c.Get("user_id").(string)
    if !ok || id == "" {
        return store.Actor{}, errors.New("invalid user_id in context")
    }
    role, _ := c.Get("role").(string)
    return store.Actor{ID: id, Admin: role == model.RoleAdmin}, nil
}

// storeErr maps store sentinel errors to an HTTP response.  Unrecognised
// errors become a 500 with a generic message; the underlying cause stays in
// the error the caller can log.
func storeErr(c echo.Context, err error) error {
    switch {
    case errors.Is(err, store.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, store.ErrNotAuthorized):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, store.ErrSlotUnavailable):
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
    case errors.Is(err, store.ErrFetchFailed), errors.Is(err, store.ErrWriteFailed):
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
}

// pageSizeParam parses the page_size query parameter, 0 when absent so the
// store applies its default.
func pageSizeParam(c echo.Context) int {
    if s := c.QueryParam("page_size"); s != "" {
        if n, err := strconv.Atoi(s); err == nil && n > 0 {
            return n
        }
    }
    return 0
}

// parseWhen accepts either an RFC3339 timestamp or a bare YYYY-MM-DD date.
func parseWhen(s string) (time.Time, error) {
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t.UTC(), nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return time.Time{}, err
    }
    return t.UTC(), nil
}
