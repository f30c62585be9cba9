package store

import (
    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
)

// ListingFilters is the structured filter surface accepted by GetListings.
// List-valued fields become membership predicates ANDed together; scalar
// fields become equality predicates.  There is no OR form and no range
// predicate: price/year range narrowing happens client-side after fetch.
type ListingFilters struct {
    Makes        []string
    VehicleTypes []string
    Conditions   []string
    UserID       string
    Status       string
    Featured     *bool
    SecondHand   *bool
    SortBy       string
}

// Sort keys accepted in SortBy.  Anything else falls back to newest-first.
const (
    SortNewest    = "newest"
    SortOldest    = "oldest"
    SortPriceAsc  = "price_asc"
    SortPriceDesc = "price_desc"
    SortYearDesc  = "year_desc"
    SortMileage   = "mileage_asc"
)

// predicates translates the filters to the document store's native query
// form.  Status defaults to active when the caller did not supply one, so
// public browsing never sees pending or sold listings by accident.
func (f *ListingFilters) predicates() []docstore.Predicate {
    preds := make([]docstore.Predicate, 0, 6)
    status := model.ListingStatusActive
    if f != nil && f.Status != "" {
        status = f.Status
    }
    preds = append(preds, docstore.Eq("status", status))
    if f == nil {
        return preds
    }
    if len(f.Makes) > 0 {
        preds = append(preds, docstore.In("make", f.Makes))
    }
    if len(f.VehicleTypes) > 0 {
        preds = append(preds, docstore.In("vehicle_type", f.VehicleTypes))
    }
    if len(f.Conditions) > 0 {
        preds = append(preds, docstore.In("condition", f.Conditions))
    }
    if f.UserID != "" {
        preds = append(preds, docstore.Eq("user_id", f.UserID))
    }
    if f.Featured != nil {
        preds = append(preds, docstore.Eq("featured", *f.Featured))
    }
    if f.SecondHand != nil {
        preds = append(preds, docstore.Eq("second_hand", *f.SecondHand))
    }
    return preds
}

// sortFor maps a SortBy value to a (field, direction) pair.  Unrecognised
// or absent values default to newest-created-first.
func sortFor(sortBy string) docstore.Sort {
    switch sortBy {
    case SortOldest:
        return docstore.Sort{Field: "created_at"}
    case SortPriceAsc:
        return docstore.Sort{Field: "price"}
    case SortPriceDesc:
        return docstore.Sort{Field: "price", Descending: true}
    case SortYearDesc:
        return docstore.Sort{Field: "year", Descending: true}
    case SortMileage:
        return docstore.Sort{Field: "mileage"}
    default:
        return docstore.Sort{Field: "created_at", Descending: true}
    }
}
