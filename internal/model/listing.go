package model

import "time"

// Listing statuses. Transitions are not restricted: an owner or admin may
// move a listing between any two statuses through the store's SetStatus
// operation.
const (
    ListingStatusActive   = "active"
    ListingStatusPending  = "pending"
    ListingStatusSold     = "sold"
    ListingStatusInactive = "inactive"
)

// ValidListingStatus reports whether s is one of the recognised listing
// statuses.
func ValidListingStatus(s string) bool {
    switch s {
    case ListingStatusActive, ListingStatusPending, ListingStatusSold, ListingStatusInactive:
        return true
    }
    return false
}

// Listing is a vehicle listing document as stored in the `listings`
// collection.  The ID is assigned by the document store on creation and is
// immutable.  Price, mileage and year are kept as strings because the
// documents originate from free-form seller input; the store does not
// normalise them.
//
// Fields:
//  ID           – opaque document identifier.
//  Make/Model   – vehicle make and model.
//  Year         – model year as entered by the seller.
//  Price        – asking price as entered by the seller.
//  Mileage      – odometer reading as entered by the seller.
//  Condition    – free-form condition label (e.g. "new", "used").
//  VehicleType  – category such as "sedan", "suv", "van".
//  Description  – free-text description.
//  Features     – named feature flags and values (e.g. "sunroof": "yes").
//  Images       – ordered image URLs; index 0 is the main image.
//  MainImage    – convenience copy of Images[0] for list views.
//  UserID       – id of the creating user; checked on update/delete.
//  ContactName/ContactEmail/ContactPhone – seller contact details.
//  Status       – lifecycle status (see constants above).
//  Featured, Negotiable, SecondHand, DirectImport – admin-set flags.
//  Views        – view counter (read-modify-write, may lose concurrent increments).
//  Favorites    – favourite counter, derived from FavoritedBy.
//  FavoritedBy  – ids of users who favourited the listing.
//  CreatedAt/UpdatedAt – lifecycle timestamps in UTC.
//  ExpiresAt    – optional expiry timestamp.
type Listing struct {
    ID           string            `json:"id"`
    Make         string            `json:"make"`
    Model        string            `json:"model"`
    Year         string            `json:"year"`
    Price        string            `json:"price"`
    Mileage      string            `json:"mileage"`
    Condition    string            `json:"condition"`
    VehicleType  string            `json:"vehicle_type"`
    Description  string            `json:"description"`
    Features     map[string]string `json:"features,omitempty"`
    Images       []string          `json:"images"`
    MainImage    string            `json:"main_image,omitempty"`
    UserID       string            `json:"user_id"`
    ContactName  string            `json:"contact_name,omitempty"`
    ContactEmail string            `json:"contact_email,omitempty"`
    ContactPhone string            `json:"contact_phone,omitempty"`
    Status       string            `json:"status"`
    Featured     bool              `json:"featured"`
    Negotiable   bool              `json:"negotiable"`
    SecondHand   bool              `json:"second_hand"`
    DirectImport bool              `json:"direct_import"`
    Views        uint64            `json:"views"`
    Favorites    uint64            `json:"favorites"`
    FavoritedBy  []string          `json:"favorited_by,omitempty"`
    CreatedAt    time.Time         `json:"created_at"`
    UpdatedAt    time.Time         `json:"updated_at"`
    ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
}

// ListingPatch carries a partial update for a listing.  Nil fields are left
// untouched by the merge; the whole merged document is then written back,
// so two concurrent patches to the same listing resolve last-write-wins.
type ListingPatch struct {
    Make         *string            `json:"make,omitempty"`
    Model        *string            `json:"model,omitempty"`
    Year         *string            `json:"year,omitempty"`
    Price        *string            `json:"price,omitempty"`
    Mileage      *string            `json:"mileage,omitempty"`
    Condition    *string            `json:"condition,omitempty"`
    VehicleType  *string            `json:"vehicle_type,omitempty"`
    Description  *string            `json:"description,omitempty"`
    Features     map[string]string  `json:"features,omitempty"`
    ContactName  *string            `json:"contact_name,omitempty"`
    ContactEmail *string            `json:"contact_email,omitempty"`
    ContactPhone *string            `json:"contact_phone,omitempty"`
    Negotiable   *bool              `json:"negotiable,omitempty"`
    ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
}

// Apply merges the patch into l.  Only non-nil fields overwrite.
func (p ListingPatch) Apply(l *Listing) {
    if p.Make != nil {
        l.Make = *p.Make
    }
    if p.Model != nil {
        l.Model = *p.Model
    }
    if p.Year != nil {
        l.Year = *p.Year
    }
    if p.Price != nil {
        l.Price = *p.Price
    }
    if p.Mileage != nil {
        l.Mileage = *p.Mileage
    }
    if p.Condition != nil {
        l.Condition = *p.Condition
    }
    if p.VehicleType != nil {
        l.VehicleType = *p.VehicleType
    }
    if p.Description != nil {
        l.Description = *p.Description
    }
    if p.Features != nil {
        l.Features = p.Features
    }
    if p.ContactName != nil {
        l.ContactName = *p.ContactName
    }
    if p.ContactEmail != nil {
        l.ContactEmail = *p.ContactEmail
    }
    if p.ContactPhone != nil {
        l.ContactPhone = *p.ContactPhone
    }
    if p.Negotiable != nil {
        l.Negotiable = *p.Negotiable
    }
    if p.ExpiresAt != nil {
        l.ExpiresAt = p.ExpiresAt
    }
}

// AdminFlags carries the administrative flags that only privileged users may
// set.  Nil fields are left untouched.
type AdminFlags struct {
    Featured     *bool `json:"featured,omitempty"`
    Negotiable   *bool `json:"negotiable,omitempty"`
    SecondHand   *bool `json:"second_hand,omitempty"`
    DirectImport *bool `json:"direct_import,omitempty"`
}

// Apply merges the flags into l.
func (f AdminFlags) Apply(l *Listing) {
    if f.Featured != nil {
        l.Featured = *f.Featured
    }
    if f.Negotiable != nil {
        l.Negotiable = *f.Negotiable
    }
    if f.SecondHand != nil {
        l.SecondHand = *f.SecondHand
    }
    if f.DirectImport != nil {
        l.DirectImport = *f.DirectImport
    }
}
