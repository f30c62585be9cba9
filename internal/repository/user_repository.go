// Package repository persists accounts and refresh tokens through the
// document store.  Listing and booking persistence lives in internal/store;
// this package only covers the auth surface.
package repository

import (
    "context"
    "encoding/json"
    "errors"
    "strings"
    "time"

    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
    "vehicle-marketplace/internal/utils"
)

const usersCollection = "users"

// ErrEmailExists is returned when registering with an email that is already
// taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides account persistence over the document store.
type UserRepo struct {
    docs docstore.Store
}

// NewUserRepo returns a UserRepo bound to the given document store.
func NewUserRepo(docs docstore.Store) *UserRepo { return &UserRepo{docs: docs} }

// Create inserts a new user and returns the stored record.  The email
// uniqueness check and the insert are separate calls; the store has no
// unique constraint to back it up.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName, phone, role string, cost int) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    if _, err := r.GetByEmail(ctx, email); err == nil {
        return model.User{}, ErrEmailExists
    } else if !errors.Is(err, ErrUserNotFound) {
        return model.User{}, err
    }
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return model.User{}, err
    }
    now := time.Now().UTC()
    u := model.User{
        Email:        email,
        PasswordHash: hash,
        DisplayName:  displayName,
        Phone:        phone,
        Role:         role,
        IsActive:     true,
        CreatedAt:    now,
        UpdatedAt:    now,
    }
    id, err := r.docs.Create(ctx, usersCollection, u)
    if err != nil {
        return model.User{}, err
    }
    u.ID = id
    return u, nil
}

// GetByEmail fetches a user by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    page, err := r.docs.Query(ctx, usersCollection, docstore.Query{
        Predicates: []docstore.Predicate{docstore.Eq("email", email)},
        Limit:      1,
    })
    if err != nil {
        return model.User{}, err
    }
    if len(page.Docs) == 0 {
        return model.User{}, ErrUserNotFound
    }
    var u model.User
    if err := json.Unmarshal(page.Docs[0].Data, &u); err != nil {
        return model.User{}, err
    }
    return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
    var u model.User
    if err := r.docs.Get(ctx, usersCollection, id, &u); err != nil {
        if errors.Is(err, docstore.ErrNoDocument) {
            return model.User{}, ErrUserNotFound
        }
        return model.User{}, err
    }
    return u, nil
}

// List returns every account, newest first.  Admin dashboards use this.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
    var out []model.User
    cursor := ""
    for {
        page, err := r.docs.Query(ctx, usersCollection, docstore.Query{
            Sort:   docstore.Sort{Field: "created_at", Descending: true},
            Limit:  100,
            Cursor: cursor,
        })
        if err != nil {
            return nil, err
        }
        for _, d := range page.Docs {
            var u model.User
            if err := json.Unmarshal(d.Data, &u); err != nil {
                return nil, err
            }
            out = append(out, u)
        }
        if page.NextCursor == "" {
            return out, nil
        }
        cursor = page.NextCursor
    }
}

// SetActive flips the account's active flag.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) (model.User, error) {
    u, err := r.GetByID(ctx, id)
    if err != nil {
        return model.User{}, err
    }
    u.IsActive = active
    u.UpdatedAt = time.Now().UTC()
    if err := r.docs.Update(ctx, usersCollection, id, u); err != nil {
        return model.User{}, err
    }
    return u, nil
}
