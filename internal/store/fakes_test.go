package store

import (
    "context"
    "encoding/json"
    "fmt"
    "sort"
    "strconv"
    "sync"

    "vehicle-marketplace/internal/docstore"
)

// fakeDocs is an in-memory docstore.Store with enough query support for the
// store tests: equality and membership predicates, single-field sort and
// offset cursors.  queryBlock, when set, makes Query park until released so
// tests can observe in-flight behaviour.
type fakeDocs struct {
    mu   sync.Mutex
    data map[string]map[string]json.RawMessage
    seq  int

    queryCalls   int
    queryErr     error
    updateErr    error
    queryStarted chan struct{}
    queryBlock   chan struct{}
}

func newFakeDocs() *fakeDocs {
    return &fakeDocs{data: map[string]map[string]json.RawMessage{}}
}

func (f *fakeDocs) coll(name string) map[string]json.RawMessage {
    if f.data[name] == nil {
        f.data[name] = map[string]json.RawMessage{}
    }
    return f.data[name]
}

func (f *fakeDocs) Create(ctx context.Context, collection string, doc any) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.seq++
    id := fmt.Sprintf("doc%04d", f.seq)
    data, err := withID(doc, id)
    if err != nil {
        return "", err
    }
    f.coll(collection)[id] = data
    return id, nil
}

func (f *fakeDocs) Get(ctx context.Context, collection, id string, out any) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    data, ok := f.coll(collection)[id]
    if !ok {
        return docstore.ErrNoDocument
    }
    return json.Unmarshal(data, out)
}

func (f *fakeDocs) Update(ctx context.Context, collection, id string, doc any) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.updateErr != nil {
        return f.updateErr
    }
    if _, ok := f.coll(collection)[id]; !ok {
        return docstore.ErrNoDocument
    }
    data, err := withID(doc, id)
    if err != nil {
        return err
    }
    f.coll(collection)[id] = data
    return nil
}

func (f *fakeDocs) Delete(ctx context.Context, collection, id string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if _, ok := f.coll(collection)[id]; !ok {
        return docstore.ErrNoDocument
    }
    delete(f.coll(collection), id)
    return nil
}

func (f *fakeDocs) Query(ctx context.Context, collection string, q docstore.Query) (docstore.Page, error) {
    f.mu.Lock()
    f.queryCalls++
    started, block := f.queryStarted, f.queryBlock
    if f.queryErr != nil {
        err := f.queryErr
        f.mu.Unlock()
        return docstore.Page{}, err
    }

    type entry struct {
        id      string
        doc     map[string]any
        raw     json.RawMessage
        sortVal string
    }
    sortField := q.Sort.Field
    if sortField == "" {
        sortField = "created_at"
    }
    var all []entry
    for id, raw := range f.coll(collection) {
        var doc map[string]any
        if err := json.Unmarshal(raw, &doc); err != nil {
            f.mu.Unlock()
            return docstore.Page{}, err
        }
        ok := true
        for _, p := range q.Predicates {
            if !matchPredicate(doc, p) {
                ok = false
                break
            }
        }
        if ok {
            all = append(all, entry{id: id, doc: doc, raw: raw, sortVal: fmt.Sprint(doc[sortField])})
        }
    }
    f.mu.Unlock()

    if started != nil {
        started <- struct{}{}
    }
    if block != nil {
        <-block
    }

    sort.Slice(all, func(i, j int) bool {
        if all[i].sortVal != all[j].sortVal {
            if q.Sort.Descending {
                return all[i].sortVal > all[j].sortVal
            }
            return all[i].sortVal < all[j].sortVal
        }
        return all[i].id < all[j].id
    })

    start := 0
    if q.Cursor != "" {
        n, err := strconv.Atoi(q.Cursor)
        if err != nil {
            return docstore.Page{}, err
        }
        start = n
    }
    limit := q.Limit
    if limit <= 0 {
        limit = 20
    }
    if start > len(all) {
        start = len(all)
    }
    end := start + limit
    if end > len(all) {
        end = len(all)
    }

    page := docstore.Page{Docs: make([]docstore.RawDoc, 0, end-start)}
    for _, e := range all[start:end] {
        page.Docs = append(page.Docs, docstore.RawDoc{ID: e.id, Data: e.raw})
    }
    if len(page.Docs) == limit {
        page.NextCursor = strconv.Itoa(end)
    }
    return page, nil
}

func (f *fakeDocs) calls() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.queryCalls
}

func matchPredicate(doc map[string]any, p docstore.Predicate) bool {
    v, ok := doc[p.Field]
    if !ok {
        return false
    }
    s := fmt.Sprint(v)
    switch p.Op {
    case docstore.OpEqual:
        return s == fmt.Sprint(p.Value)
    case docstore.OpIn:
        for _, cand := range p.Values {
            if s == cand {
                return true
            }
        }
    }
    return false
}

func withID(doc any, id string) (json.RawMessage, error) {
    data, err := json.Marshal(doc)
    if err != nil {
        return nil, err
    }
    var m map[string]any
    if err := json.Unmarshal(data, &m); err != nil {
        return nil, err
    }
    m["id"] = id
    return json.Marshal(m)
}

// fakeBlobs records uploads and deletes.  failUploads holds 1-based upload
// call numbers that should fail.
type fakeBlobs struct {
    mu          sync.Mutex
    uploadCalls int
    uploaded    []string
    deleted     []string
    failUploads map[int]bool
    deleteErr   error
}

func newFakeBlobs() *fakeBlobs {
    return &fakeBlobs{failUploads: map[int]bool{}}
}

func (f *fakeBlobs) Upload(ctx context.Context, path string, data []byte) (string, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.uploadCalls++
    if f.failUploads[f.uploadCalls] {
        return "", fmt.Errorf("upload %d failed", f.uploadCalls)
    }
    url := "blob://" + path
    f.uploaded = append(f.uploaded, url)
    return url, nil
}

func (f *fakeBlobs) Delete(ctx context.Context, url string) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.deleted = append(f.deleted, url)
    return f.deleteErr
}

func (f *fakeBlobs) deletedURLs() []string {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make([]string, len(f.deleted))
    copy(out, f.deleted)
    return out
}
