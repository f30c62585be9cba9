package store

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "strings"
    "sync"
    "time"

    "vehicle-marketplace/internal/blobstore"
    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
)

const listingsCollection = "listings"

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 20

// DefaultRefreshInterval is the snapshot staleness threshold used when the
// configuration does not supply one.
const DefaultRefreshInterval = 5 * time.Minute

// Actor identifies the caller of a store operation for ownership checks.
type Actor struct {
    ID    string
    Admin bool
}

// ImageUpload is one image handed to CreateListing or UpdateListing.
type ImageUpload struct {
    Name string
    Data []byte
}

// ListingPage is one page of listings plus the cursor for the next page.
// NextCursor is empty when the page was short.
type ListingPage struct {
    Listings   []model.Listing `json:"listings"`
    NextCursor string          `json:"next_cursor,omitempty"`
}

// ListingStore is the cache/query façade in front of the remote document
// store.  It owns an in-memory snapshot of the most recent unfiltered page
// of listings together with a staleness clock; unfiltered first-page reads
// within the refresh interval are served from the snapshot without a remote
// call.  Any filter or cursor forces a remote round-trip.
//
// A single ListingStore is constructed at application start and shared by
// all handlers.  The mutex serialises snapshot access under Go's parallel
// runtime; the inFlight flag keeps its original drop-don't-queue meaning: a
// second unfiltered fetch issued while one is outstanding returns an empty
// page immediately instead of queuing, and callers are expected to retry.
// A remote call that never returns leaves inFlight set, pinning the
// cache-refill path until the process restarts.
type ListingStore struct {
    docs  docstore.Store
    blobs blobstore.Store

    mu              sync.Mutex
    snapshot        []model.Listing
    snapshotCursor  string
    lastRefreshAt   time.Time
    inFlight        bool
    refreshInterval time.Duration

    now func() time.Time // injectable clock for tests
}

// NewListingStore constructs the façade.  A non-positive refreshInterval
// falls back to DefaultRefreshInterval.
func NewListingStore(docs docstore.Store, blobs blobstore.Store, refreshInterval time.Duration) *ListingStore {
    if docs == nil || blobs == nil {
        panic("nil store passed to NewListingStore")
    }
    if refreshInterval <= 0 {
        refreshInterval = DefaultRefreshInterval
    }
    return &ListingStore{
        docs:            docs,
        blobs:           blobs,
        refreshInterval: refreshInterval,
        now:             time.Now,
    }
}

// Reset clears the snapshot, the staleness clock and the in-flight flag.
// It exists so tests and admin tooling can force the next read to hit the
// remote store.
func (s *ListingStore) Reset() {
    s.mu.Lock()
    s.snapshot = nil
    s.snapshotCursor = ""
    s.lastRefreshAt = time.Time{}
    s.inFlight = false
    s.mu.Unlock()
}

// GetListings returns one page of listings.  The decision rule, in order:
// an unfiltered cursor-less call with a fresh non-empty snapshot is served
// from the snapshot; otherwise, if a fetch is already in flight, an empty
// page is returned immediately; otherwise a remote query is issued and, if
// the call was unfiltered and cursor-less, its result refills the snapshot.
// The returned page is always either purely cached or purely fresh.
func (s *ListingStore) GetListings(ctx context.Context, filters *ListingFilters, pageSize int, cursor string) (ListingPage, error) {
    if pageSize <= 0 {
        pageSize = DefaultPageSize
    }
    unfiltered := filters == nil && cursor == ""

    s.mu.Lock()
    if unfiltered && len(s.snapshot) > 0 && s.now().Sub(s.lastRefreshAt) < s.refreshInterval {
        page := s.pageFromSnapshotLocked(pageSize)
        s.mu.Unlock()
        return page, nil
    }
    if s.inFlight {
        s.mu.Unlock()
        return ListingPage{Listings: []model.Listing{}}, nil
    }
    s.inFlight = true
    s.mu.Unlock()
    defer func() {
        s.mu.Lock()
        s.inFlight = false
        s.mu.Unlock()
    }()

    q := docstore.Query{
        Predicates: filters.predicates(),
        Sort:       sortFor(sortKey(filters)),
        Limit:      pageSize,
        Cursor:     cursor,
    }
    raw, err := s.docs.Query(ctx, listingsCollection, q)
    if err != nil {
        return ListingPage{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    listings, err := decodeListings(raw.Docs)
    if err != nil {
        return ListingPage{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    if unfiltered {
        s.mu.Lock()
        s.snapshot = listings
        s.snapshotCursor = raw.NextCursor
        s.lastRefreshAt = s.now()
        s.mu.Unlock()
    }
    return ListingPage{Listings: listings, NextCursor: raw.NextCursor}, nil
}

// pageFromSnapshotLocked slices a page off the cached snapshot.  The saved
// remote cursor is only meaningful once the whole snapshot has been
// consumed, so shorter slices return no cursor.  Callers must hold mu.
func (s *ListingStore) pageFromSnapshotLocked(pageSize int) ListingPage {
    n := pageSize
    if n > len(s.snapshot) {
        n = len(s.snapshot)
    }
    out := make([]model.Listing, n)
    copy(out, s.snapshot[:n])
    cursor := ""
    if n == len(s.snapshot) {
        cursor = s.snapshotCursor
    }
    return ListingPage{Listings: out, NextCursor: cursor}
}

// GetListing returns a single listing by id.  A fresh snapshot copy is
// returned when present; otherwise a point read is issued.
func (s *ListingStore) GetListing(ctx context.Context, id string) (model.Listing, error) {
    s.mu.Lock()
    if s.now().Sub(s.lastRefreshAt) < s.refreshInterval {
        for _, l := range s.snapshot {
            if l.ID == id {
                s.mu.Unlock()
                return l, nil
            }
        }
    }
    s.mu.Unlock()

    var l model.Listing
    if err := s.docs.Get(ctx, listingsCollection, id, &l); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return model.Listing{}, ErrNotFound
        }
        return model.Listing{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    return l, nil
}

// CreateListing writes a new listing record for the actor, then uploads the
// images sequentially and patches the record with the URLs that succeeded.
// A failed individual upload is logged and skipped; the listing itself is
// still created (at-least-partial-success, not atomic).  Validation of the
// descriptive fields is the caller's job.
func (s *ListingStore) CreateListing(ctx context.Context, actor Actor, l model.Listing, images []ImageUpload) (model.Listing, error) {
    now := s.now().UTC()
    l.ID = ""
    l.UserID = actor.ID
    if !model.ValidListingStatus(l.Status) {
        l.Status = model.ListingStatusActive
    }
    l.Views = 0
    l.Favorites = 0
    l.FavoritedBy = nil
    l.Images = nil
    l.MainImage = ""
    l.CreatedAt = now
    l.UpdatedAt = now

    id, err := s.docs.Create(ctx, listingsCollection, l)
    if err != nil {
        return model.Listing{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    l.ID = id

    urls := s.uploadImages(ctx, id, 0, images)
    if len(urls) > 0 {
        l.Images = urls
        l.MainImage = urls[0]
        if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
            return model.Listing{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
        }
    }
    return l, nil
}

// UpdateListing merges the patch into the stored record and appends any
// newly uploaded images.  Only the owner or an admin may update; the whole
// merged document is written back, so concurrent updates to the same
// listing resolve last-write-wins.
func (s *ListingStore) UpdateListing(ctx context.Context, actor Actor, id string, patch model.ListingPatch, newImages []ImageUpload) (model.Listing, error) {
    l, err := s.getForWrite(ctx, actor, id)
    if err != nil {
        return model.Listing{}, err
    }
    patch.Apply(&l)
    if len(newImages) > 0 {
        urls := s.uploadImages(ctx, id, len(l.Images), newImages)
        l.Images = append(l.Images, urls...)
        if l.MainImage == "" && len(l.Images) > 0 {
            l.MainImage = l.Images[0]
        }
    }
    l.UpdatedAt = s.now().UTC()
    if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
        return model.Listing{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    return l, nil
}

// SetAdminFlags updates the administrative flags on a listing.  Admin only.
func (s *ListingStore) SetAdminFlags(ctx context.Context, actor Actor, id string, flags model.AdminFlags) (model.Listing, error) {
    if !actor.Admin {
        return model.Listing{}, ErrNotAuthorized
    }
    l, err := s.GetListing(ctx, id)
    if err != nil {
        return model.Listing{}, err
    }
    flags.Apply(&l)
    l.UpdatedAt = s.now().UTC()
    if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
        return model.Listing{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    return l, nil
}

// SetStatus is the single named status-transition operation.  Transitions
// are unrestricted: any owner or admin may set any valid status at any
// time, including moving a sold listing back to active.
func (s *ListingStore) SetStatus(ctx context.Context, actor Actor, id, status string) (model.Listing, error) {
    if !model.ValidListingStatus(status) {
        return model.Listing{}, fmt.Errorf("invalid listing status %q", status)
    }
    l, err := s.getForWrite(ctx, actor, id)
    if err != nil {
        return model.Listing{}, err
    }
    l.Status = status
    l.UpdatedAt = s.now().UTC()
    if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
        return model.Listing{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    return l, nil
}

// DeleteListing removes the record and then best-effort deletes every
// referenced image concurrently.  A failed image delete is logged and does
// not roll back the record deletion; record and blobs are not transactional.
func (s *ListingStore) DeleteListing(ctx context.Context, actor Actor, id string) error {
    l, err := s.getForWrite(ctx, actor, id)
    if err != nil {
        return err
    }
    if err := s.docs.Delete(ctx, listingsCollection, id); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return ErrNotFound
        }
        return fmt.Errorf("%w: %v", ErrWriteFailed, err)
    }
    var wg sync.WaitGroup
    for _, url := range l.Images {
        wg.Add(1)
        go func(url string) {
            defer wg.Done()
            if err := s.blobs.Delete(ctx, url); err != nil {
                log.Printf("listing %s: image delete failed for %s: %v", id, url, err)
            }
        }(url)
    }
    wg.Wait()
    return nil
}

// IncrementViews bumps the view counter by one.  The read and the write are
// separate remote calls with no compare-and-swap, so concurrent increments
// can clobber each other.  Write failures are logged, not raised.
func (s *ListingStore) IncrementViews(ctx context.Context, id string) error {
    var l model.Listing
    if err := s.docs.Get(ctx, listingsCollection, id, &l); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return ErrNotFound
        }
        return fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    l.Views++
    if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
        log.Printf("listing %s: view count update failed: %v", id, err)
    }
    return nil
}

// ToggleFavorite adds or removes the actor from the listing's favourite set
// and recomputes the counter.  Same read-modify-write semantics as
// IncrementViews; write failures are logged, not raised.  The returned bool
// reports whether the listing is favourited after the call.
func (s *ListingStore) ToggleFavorite(ctx context.Context, actor Actor, id string) (bool, error) {
    var l model.Listing
    if err := s.docs.Get(ctx, listingsCollection, id, &l); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return false, ErrNotFound
        }
        return false, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    kept := l.FavoritedBy[:0:0]
    favorited := true
    for _, uid := range l.FavoritedBy {
        if uid == actor.ID {
            favorited = false
            continue
        }
        kept = append(kept, uid)
    }
    if favorited {
        kept = append(kept, actor.ID)
    }
    l.FavoritedBy = kept
    l.Favorites = uint64(len(kept))
    if err := s.docs.Update(ctx, listingsCollection, id, l); err != nil {
        log.Printf("listing %s: favorite update failed: %v", id, err)
    }
    return favorited, nil
}

// getForWrite loads a listing and enforces the ownership check shared by
// update, status change and delete.
func (s *ListingStore) getForWrite(ctx context.Context, actor Actor, id string) (model.Listing, error) {
    var l model.Listing
    if err := s.docs.Get(ctx, listingsCollection, id, &l); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return model.Listing{}, ErrNotFound
        }
        return model.Listing{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
    }
    if l.UserID != actor.ID && !actor.Admin {
        return model.Listing{}, ErrNotAuthorized
    }
    return l, nil
}

// uploadImages uploads images sequentially under the listing's blob
// namespace and returns the URLs that succeeded, order-preserving.  startIdx
// keeps appended image names from colliding with existing ones.
func (s *ListingStore) uploadImages(ctx context.Context, listingID string, startIdx int, images []ImageUpload) []string {
    urls := make([]string, 0, len(images))
    for i, img := range images {
        name := sanitizeImageName(img.Name)
        path := fmt.Sprintf("listings/%s/%d-%s", listingID, startIdx+i, name)
        url, err := s.blobs.Upload(ctx, path, img.Data)
        if err != nil {
            log.Printf("listing %s: image %q upload failed: %v", listingID, img.Name, err)
            continue
        }
        urls = append(urls, url)
    }
    return urls
}

// sanitizeImageName keeps a conservative character set for blob paths.
func sanitizeImageName(name string) string {
    var b strings.Builder
    for _, r := range name {
        switch {
        case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
            b.WriteRune(r)
        default:
            b.WriteRune('_')
        }
    }
    if b.Len() == 0 {
        return "image"
    }
    return b.String()
}

// sortKey extracts the sort key from an optional filter object.
func sortKey(f *ListingFilters) string {
    if f == nil {
        return ""
    }
    return f.SortBy
}

// decodeListings unmarshals raw query results into typed records.
func decodeListings(docs []docstore.RawDoc) ([]model.Listing, error) {
    out := make([]model.Listing, 0, len(docs))
    for _, d := range docs {
        var l model.Listing
        if err := json.Unmarshal(d.Data, &l); err != nil {
            return nil, err
        }
        if l.ID == "" {
            l.ID = d.ID
        }
        out = append(out, l)
    }
    return out, nil
}
