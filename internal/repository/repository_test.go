package repository

import (
    "context"
    "encoding/json"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "vehicle-marketplace/internal/docstore"
)

// memDocs is a minimal in-memory docstore.Store covering what the repos
// use: point CRUD plus equality queries.
type memDocs struct {
    docs map[string]map[string]json.RawMessage
    seq  int
}

func newMemDocs() *memDocs {
    return &memDocs{docs: map[string]map[string]json.RawMessage{}}
}

func (m *memDocs) coll(name string) map[string]json.RawMessage {
    if m.docs[name] == nil {
        m.docs[name] = map[string]json.RawMessage{}
    }
    return m.docs[name]
}

func (m *memDocs) Create(ctx context.Context, collection string, doc any) (string, error) {
    m.seq++
    id := fmt.Sprintf("id%04d", m.seq)
    data, err := json.Marshal(doc)
    if err != nil {
        return "", err
    }
    var obj map[string]any
    if err := json.Unmarshal(data, &obj); err != nil {
        return "", err
    }
    obj["id"] = id
    data, _ = json.Marshal(obj)
    m.coll(collection)[id] = data
    return id, nil
}

func (m *memDocs) Get(ctx context.Context, collection, id string, out any) error {
    data, ok := m.coll(collection)[id]
    if !ok {
        return docstore.ErrNoDocument
    }
    return json.Unmarshal(data, out)
}

func (m *memDocs) Update(ctx context.Context, collection, id string, doc any) error {
    if _, ok := m.coll(collection)[id]; !ok {
        return docstore.ErrNoDocument
    }
    data, err := json.Marshal(doc)
    if err != nil {
        return err
    }
    m.coll(collection)[id] = data
    return nil
}

func (m *memDocs) Delete(ctx context.Context, collection, id string) error {
    if _, ok := m.coll(collection)[id]; !ok {
        return docstore.ErrNoDocument
    }
    delete(m.coll(collection), id)
    return nil
}

func (m *memDocs) Query(ctx context.Context, collection string, q docstore.Query) (docstore.Page, error) {
    var page docstore.Page
    for id, raw := range m.coll(collection) {
        var obj map[string]any
        if err := json.Unmarshal(raw, &obj); err != nil {
            return docstore.Page{}, err
        }
        match := true
        for _, p := range q.Predicates {
            if fmt.Sprint(obj[p.Field]) != fmt.Sprint(p.Value) {
                match = false
                break
            }
        }
        if match {
            page.Docs = append(page.Docs, docstore.RawDoc{ID: id, Data: raw})
        }
        if q.Limit > 0 && len(page.Docs) == q.Limit {
            break
        }
    }
    return page, nil
}

func TestUserRepoCreateEnforcesUniqueEmail(t *testing.T) {
    repo := NewUserRepo(newMemDocs())
    ctx := context.Background()

    u, err := repo.Create(ctx, "  Alice@Example.COM ", "secret", "Alice", "", "USER", 4)
    require.NoError(t, err)
    assert.Equal(t, "alice@example.com", u.Email, "emails are normalised")
    assert.NotEmpty(t, u.ID)
    assert.True(t, u.IsActive)
    assert.NotEqual(t, "secret", u.PasswordHash)

    _, err = repo.Create(ctx, "alice@example.com", "other", "Dupe", "", "USER", 4)
    assert.ErrorIs(t, err, ErrEmailExists)

    got, err := repo.GetByEmail(ctx, "ALICE@example.com")
    require.NoError(t, err)
    assert.Equal(t, u.ID, got.ID)

    _, err = repo.GetByEmail(ctx, "nobody@example.com")
    assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepoSetActive(t *testing.T) {
    repo := NewUserRepo(newMemDocs())
    ctx := context.Background()

    u, err := repo.Create(ctx, "bob@example.com", "secret", "Bob", "", "USER", 4)
    require.NoError(t, err)

    disabled, err := repo.SetActive(ctx, u.ID, false)
    require.NoError(t, err)
    assert.False(t, disabled.IsActive)

    _, err = repo.SetActive(ctx, "missing", false)
    assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTokenRepoLifecycle(t *testing.T) {
    repo := NewTokenRepo(newMemDocs())
    ctx := context.Background()
    exp := time.Now().UTC().Add(time.Hour)

    require.NoError(t, repo.StoreRefresh(ctx, "user-1", "hash-a", exp))

    userID, err := repo.ValidateRefresh(ctx, "hash-a")
    require.NoError(t, err)
    assert.Equal(t, "user-1", userID)

    _, err = repo.ValidateRefresh(ctx, "hash-unknown")
    assert.ErrorIs(t, err, ErrTokenInvalid)

    require.NoError(t, repo.RevokeByHash(ctx, "hash-a"))
    _, err = repo.ValidateRefresh(ctx, "hash-a")
    assert.ErrorIs(t, err, ErrTokenInvalid)

    // Revoking twice is a no-op, not an error.
    assert.NoError(t, repo.RevokeByHash(ctx, "hash-a"))
}

func TestTokenRepoRejectsExpired(t *testing.T) {
    repo := NewTokenRepo(newMemDocs())
    ctx := context.Background()

    require.NoError(t, repo.StoreRefresh(ctx, "user-1", "hash-old", time.Now().UTC().Add(-time.Minute)))
    _, err := repo.ValidateRefresh(ctx, "hash-old")
    assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenRepoRevokeAllForUser(t *testing.T) {
    repo := NewTokenRepo(newMemDocs())
    ctx := context.Background()
    exp := time.Now().UTC().Add(time.Hour)

    require.NoError(t, repo.StoreRefresh(ctx, "user-1", "hash-1", exp))
    require.NoError(t, repo.StoreRefresh(ctx, "user-1", "hash-2", exp))
    require.NoError(t, repo.StoreRefresh(ctx, "user-2", "hash-3", exp))

    require.NoError(t, repo.RevokeAllForUser(ctx, "user-1"))

    _, err := repo.ValidateRefresh(ctx, "hash-1")
    assert.ErrorIs(t, err, ErrTokenInvalid)
    _, err = repo.ValidateRefresh(ctx, "hash-2")
    assert.ErrorIs(t, err, ErrTokenInvalid)

    stillValid, err := repo.ValidateRefresh(ctx, "hash-3")
    require.NoError(t, err)
    assert.Equal(t, "user-2", stillValid)
}
