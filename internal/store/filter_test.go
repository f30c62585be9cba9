package store

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
)

func TestPredicatesDefaultToActiveStatus(t *testing.T) {
    var nilFilters *ListingFilters
    preds := nilFilters.predicates()
    require.Len(t, preds, 1)
    assert.Equal(t, docstore.Eq("status", model.ListingStatusActive), preds[0])

    preds = (&ListingFilters{}).predicates()
    require.Len(t, preds, 1)
    assert.Equal(t, docstore.Eq("status", model.ListingStatusActive), preds[0])
}

func TestPredicatesRespectExplicitStatus(t *testing.T) {
    preds := (&ListingFilters{Status: model.ListingStatusSold}).predicates()
    require.Len(t, preds, 1)
    assert.Equal(t, docstore.Eq("status", model.ListingStatusSold), preds[0])
}

func TestPredicatesTranslateEveryField(t *testing.T) {
    yes := true
    no := false
    f := &ListingFilters{
        Makes:        []string{"Toyota", "Honda"},
        VehicleTypes: []string{"suv"},
        Conditions:   []string{"used"},
        UserID:       "alice",
        Featured:     &yes,
        SecondHand:   &no,
    }
    preds := f.predicates()
    assert.Equal(t, []docstore.Predicate{
        docstore.Eq("status", model.ListingStatusActive),
        docstore.In("make", []string{"Toyota", "Honda"}),
        docstore.In("vehicle_type", []string{"suv"}),
        docstore.In("condition", []string{"used"}),
        docstore.Eq("user_id", "alice"),
        docstore.Eq("featured", true),
        docstore.Eq("second_hand", false),
    }, preds)
}

func TestSortForMapping(t *testing.T) {
    cases := []struct {
        in   string
        want docstore.Sort
    }{
        {SortNewest, docstore.Sort{Field: "created_at", Descending: true}},
        {SortOldest, docstore.Sort{Field: "created_at"}},
        {SortPriceAsc, docstore.Sort{Field: "price"}},
        {SortPriceDesc, docstore.Sort{Field: "price", Descending: true}},
        {SortYearDesc, docstore.Sort{Field: "year", Descending: true}},
        {SortMileage, docstore.Sort{Field: "mileage"}},
        {"", docstore.Sort{Field: "created_at", Descending: true}},
        {"garbage", docstore.Sort{Field: "created_at", Descending: true}},
    }
    for _, c := range cases {
        assert.Equal(t, c.want, sortFor(c.in), "sort %q", c.in)
    }
}
