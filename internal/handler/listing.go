package handler

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "mime/multipart"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "vehicle-marketplace/internal/model"
    "vehicle-marketplace/internal/store"
)

// maxImageBytes caps a single uploaded image.
const maxImageBytes = 10 << 20 // 10 MiB

// ListingHandler exposes the listing store over HTTP.
type ListingHandler struct {
    Store *store.ListingStore
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(s *store.ListingStore) *ListingHandler {
    return &ListingHandler{Store: s}
}

// GetListings serves GET /v1/listings.  When no filter parameters are
// present the filters object is nil, which lets the store serve the request
// from its snapshot.
func (h *ListingHandler) GetListings(c echo.Context) error {
    filters := filtersFromQuery(c)
    cursor := c.QueryParam("cursor")

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    page, err := h.Store.GetListings(ctx, filters, pageSizeParam(c), cursor)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, page)
}

// MyListings serves GET /v1/my/listings: the caller's own listings in every
// status.
func (h *ListingHandler) MyListings(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    filters := filtersFromQuery(c)
    if filters == nil {
        filters = &store.ListingFilters{}
    }
    filters.UserID = actor.ID
    if filters.Status == "" {
        filters.Status = c.QueryParam("status")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    page, err := h.Store.GetListings(ctx, filters, pageSizeParam(c), c.QueryParam("cursor"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, page)
}

// GetListing serves GET /v1/listings/:id.
func (h *ListingHandler) GetListing(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    l, err := h.Store.GetListing(ctx, c.Param("id"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// IncrementViews serves POST /v1/listings/:id/views.  The bump is
// fire-and-forget from the client's point of view.
func (h *ListingHandler) IncrementViews(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if err := h.Store.IncrementViews(ctx, c.Param("id")); err != nil {
        return storeErr(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Create serves POST /v1/listings as multipart/form-data: a "data" field
// holding the listing JSON plus zero or more "images" file parts.
func (h *ListingHandler) Create(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    var l model.Listing
    if err := json.Unmarshal([]byte(c.FormValue("data")), &l); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing data"})
    }
    if l.Make == "" || l.Model == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "make and model are required"})
    }

    images, err := imagesFromForm(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    created, err := h.Store.CreateListing(ctx, actor, l, images)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusCreated, created)
}

// Update serves PATCH /v1/listings/:id with a JSON partial update.
func (h *ListingHandler) Update(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var patch model.ListingPatch
    if err := c.Bind(&patch); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    l, err := h.Store.UpdateListing(ctx, actor, c.Param("id"), patch, nil)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// AddImages serves POST /v1/listings/:id/images with multipart "images"
// parts, appending to the listing's image list.
func (h *ListingHandler) AddImages(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    images, err := imagesFromForm(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if len(images) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no images supplied"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    l, err := h.Store.UpdateListing(ctx, actor, c.Param("id"), model.ListingPatch{}, images)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// SetStatus serves PUT /v1/listings/:id/status.
func (h *ListingHandler) SetStatus(c echo.Context) error {
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

    l, err := h.Store.SetStatus(ctx, actor, c.Param("id"), req.Status)
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, l)
}

// Delete serves DELETE /v1/listings/:id.
func (h *ListingHandler) Delete(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()

    if err := h.Store.DeleteListing(ctx, actor, c.Param("id")); err != nil {
        return storeErr(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ToggleFavorite serves POST /v1/listings/:id/favorite.
func (h *ListingHandler) ToggleFavorite(c echo.Context) error {
    actor, err := getActor(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    favorited, err := h.Store.ToggleFavorite(ctx, actor, c.Param("id"))
    if err != nil {
        return storeErr(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"favorited": favorited})
}

// filtersFromQuery builds a ListingFilters from the request's query
// parameters, or nil when none are present.  Returning nil matters: the
// store only serves from its snapshot for a nil filter.
func filtersFromQuery(c echo.Context) *store.ListingFilters {
    f := store.ListingFilters{
        Makes:        splitMulti(c, "make"),
        VehicleTypes: splitMulti(c, "vehicle_type"),
        Conditions:   splitMulti(c, "condition"),
        SortBy:       c.QueryParam("sort"),
    }
    if v := c.QueryParam("featured"); v != "" {
        if b, err := strconv.ParseBool(v); err == nil {
            f.Featured = &b
        }
    }
    if v := c.QueryParam("second_hand"); v != "" {
        if b, err := strconv.ParseBool(v); err == nil {
            f.SecondHand = &b
        }
    }
    if len(f.Makes) == 0 && len(f.VehicleTypes) == 0 && len(f.Conditions) == 0 &&
        f.Featured == nil && f.SecondHand == nil && f.SortBy == "" {
        return nil
    }
    return &f
}

// splitMulti reads a query parameter that may repeat or hold a
// comma-separated list.
func splitMulti(c echo.Context, name string) []string {
    var out []string
    for _, raw := range c.QueryParams()[name] {
        for _, part := range strings.Split(raw, ",") {
            if p := strings.TrimSpace(part); p != "" {
                out = append(out, p)
            }
        }
    }
    return out
}

// imagesFromForm reads every "images" file part into memory.  Oversized
// parts fail the whole request before any upload starts.
func imagesFromForm(c echo.Context) ([]store.ImageUpload, error) {
    form, err := c.MultipartForm()
    if err != nil {
        if err == http.ErrNotMultipart || err == http.ErrMissingBoundary {
            return nil, nil
        }
        return nil, err
    }
    files := form.File["images"]
    images := make([]store.ImageUpload, 0, len(files))
    for _, fh := range files {
        data, err := readImagePart(fh)
        if err != nil {
            return nil, err
        }
        images = append(images, store.ImageUpload{Name: fh.Filename, Data: data})
    }
    return images, nil
}

func readImagePart(fh *multipart.FileHeader) ([]byte, error) {
    if fh.Size > maxImageBytes {
        return nil, fmt.Errorf("image %q exceeds the %d byte limit", fh.Filename, maxImageBytes)
    }
    f, err := fh.Open()
    if err != nil {
        return nil, err
    }
    defer func() { _ = f.Close() }()
    return io.ReadAll(io.LimitReader(f, maxImageBytes))
}
