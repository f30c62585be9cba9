package repository

import (
    "context"
    "encoding/json"
    "errors"
    "time"

    "vehicle-marketplace/internal/docstore"
    "vehicle-marketplace/internal/model"
)

const tokensCollection = "refresh_tokens"

// ErrTokenInvalid is returned when a refresh token hash is unknown, revoked
// or expired.
var ErrTokenInvalid = errors.New("invalid refresh token")

// TokenRepo persists and validates refresh tokens.  Only the SHA-256 hash
// of a token is ever stored.
type TokenRepo struct {
    docs docstore.Store
}

// NewTokenRepo returns a TokenRepo bound to the given document store.
func NewTokenRepo(docs docstore.Store) *TokenRepo { return &TokenRepo{docs: docs} }

// StoreRefresh inserts a refresh token hash record.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID, tokenHash string, exp time.Time) error {
    t := model.RefreshToken{
        UserID:    userID,
        TokenHash: tokenHash,
        ExpiresAt: exp,
        CreatedAt: time.Now().UTC(),
    }
    _, err := r.docs.Create(ctx, tokensCollection, t)
    return err
}

// ValidateRefresh returns the owning user id when a non-revoked,
// non-expired token with the given hash exists.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (string, error) {
    t, err := r.getByHash(ctx, tokenHash)
    if err != nil {
        return "", err
    }
    if t.RevokedAt != nil {
        return "", ErrTokenInvalid
    }
    if time.Now().UTC().After(t.ExpiresAt) {
        return "", ErrTokenInvalid
    }
    return t.UserID, nil
}

// RevokeByHash marks the token with the given hash as revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
    t, err := r.getByHash(ctx, tokenHash)
    if err != nil {
        return err
    }
    if t.RevokedAt != nil {
        return nil
    }
    now := time.Now().UTC()
    t.RevokedAt = &now
    return r.docs.Update(ctx, tokensCollection, t.ID, t)
}

// RevokeAllForUser revokes every active token owned by the user.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID string) error {
    cursor := ""
    for {
        page, err := r.docs.Query(ctx, tokensCollection, docstore.Query{
            Predicates: []docstore.Predicate{docstore.Eq("user_id", userID)},
            Limit:      100,
            Cursor:     cursor,
        })
        if err != nil {
            return err
        }
        for _, d := range page.Docs {
            var t model.RefreshToken
            if err := json.Unmarshal(d.Data, &t); err != nil {
                return err
            }
            if t.RevokedAt != nil {
                continue
            }
            now := time.Now().UTC()
            t.RevokedAt = &now
            if err := r.docs.Update(ctx, tokensCollection, d.ID, t); err != nil {
                return err
            }
        }
        if page.NextCursor == "" {
            return nil
        }
        cursor = page.NextCursor
    }
}

func (r *TokenRepo) getByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
    page, err := r.docs.Query(ctx, tokensCollection, docstore.Query{
        Predicates: []docstore.Predicate{docstore.Eq("token_hash", tokenHash)},
        Limit:      1,
    })
    if err != nil {
        return model.RefreshToken{}, err
    }
    if len(page.Docs) == 0 {
        return model.RefreshToken{}, ErrTokenInvalid
    }
    var t model.RefreshToken
    if err := json.Unmarshal(page.Docs[0].Data, &t); err != nil {
        return model.RefreshToken{}, err
    }
    if t.ID == "" {
        t.ID = page.Docs[0].ID
    }
    return t, nil
}
