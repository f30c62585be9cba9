package docstore

import (
    "context"
    "crypto/rand"
    "database/sql"
    "encoding/base64"
    "encoding/hex"
    "encoding/json"
    "fmt"
    "strings"
    "time"
)

// MySQL implements Store on top of a single MySQL table.  Every document
// lives in the `documents` table as a JSON column keyed by (collection, id);
// predicates and sorts are rendered to JSON_EXTRACT expressions.  Field
// values are compared as unquoted strings, which orders RFC3339 timestamps
// chronologically.
type MySQL struct {
    db *sql.DB
}

// NewMySQL returns a MySQL document store bound to the given database.
func NewMySQL(db *sql.DB) *MySQL { return &MySQL{db: db} }

// DB exposes the underlying handle for callers that need it (e.g. health
// checks).
func (m *MySQL) DB() *sql.DB { return m.db }

// EnsureSchema creates the documents table when it does not exist yet.
func (m *MySQL) EnsureSchema(ctx context.Context) error {
    const q = `CREATE TABLE IF NOT EXISTS documents (
        collection VARCHAR(64)  NOT NULL,
        id         CHAR(32)     NOT NULL,
        doc        JSON         NOT NULL,
        PRIMARY KEY (collection, id)
    )`
    _, err := m.db.ExecContext(ctx, q)
    return err
}

// Create stores the document under a freshly generated id.  The id is
// injected into the stored JSON under the "id" key so reads return a
// self-describing record.
func (m *MySQL) Create(ctx context.Context, collection string, doc any) (string, error) {
    id, err := newDocID()
    if err != nil {
        return "", err
    }
    data, err := marshalWithID(doc, id)
    if err != nil {
        return "", err
    }
    const q = `INSERT INTO documents (collection, id, doc) VALUES (?, ?, ?)`
    if _, err := m.db.ExecContext(ctx, q, collection, id, data); err != nil {
        return "", err
    }
    return id, nil
}

// Get unmarshals the document with the given id into out.  ErrNoDocument is
// returned when the id does not exist in the collection.
func (m *MySQL) Get(ctx context.Context, collection, id string, out any) error {
    const q = `SELECT doc FROM documents WHERE collection = ? AND id = ? LIMIT 1`
    var data []byte
    err := m.db.QueryRowContext(ctx, q, collection, id).Scan(&data)
    if err == sql.ErrNoRows {
        return ErrNoDocument
    }
    if err != nil {
        return err
    }
    return json.Unmarshal(data, out)
}

// Update replaces the stored document.  The id inside the JSON is forced to
// the row's id so a caller cannot detach a document from its key.
func (m *MySQL) Update(ctx context.Context, collection, id string, doc any) error {
    data, err := marshalWithID(doc, id)
    if err != nil {
        return err
    }
    const q = `UPDATE documents SET doc = ? WHERE collection = ? AND id = ?`
    res, err := m.db.ExecContext(ctx, q, data, collection, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        // Zero affected rows is ambiguous in MySQL: the row may be missing
        // or the new document may equal the old one.  Check existence.
        var one int
        err := m.db.QueryRowContext(ctx,
            `SELECT 1 FROM documents WHERE collection = ? AND id = ? LIMIT 1`,
            collection, id).Scan(&one)
        if err == sql.ErrNoRows {
            return ErrNoDocument
        }
        return err
    }
    return nil
}

// Delete removes the document.  ErrNoDocument is returned when nothing was
// deleted.
func (m *MySQL) Delete(ctx context.Context, collection, id string) error {
    const q = `DELETE FROM documents WHERE collection = ? AND id = ?`
    res, err := m.db.ExecContext(ctx, q, collection, id)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err == nil && n == 0 {
        return ErrNoDocument
    }
    return nil
}

// Query renders the predicates and sort to SQL over the JSON column and
// returns one page of documents.  Pagination is keyset-based: the cursor
// encodes the sort value and id of the last document of the previous page.
func (m *MySQL) Query(ctx context.Context, collection string, q Query) (Page, error) {
    sortField := q.Sort.Field
    if sortField == "" {
        sortField = "created_at"
    }
    sortExpr, err := fieldExpr(sortField)
    if err != nil {
        return Page{}, err
    }

    where := []string{"collection = ?"}
    args := []any{collection}

    for _, p := range q.Predicates {
        expr, err := fieldExpr(p.Field)
        if err != nil {
            return Page{}, err
        }
        switch p.Op {
        case OpEqual:
            where = append(where, expr+" = ?")
            args = append(args, renderValue(p.Value))
        case OpIn:
            if len(p.Values) == 0 {
                where = append(where, "1 = 0")
                continue
            }
            ph := strings.TrimSuffix(strings.Repeat("?,", len(p.Values)), ",")
            where = append(where, expr+" IN ("+ph+")")
            for _, v := range p.Values {
                args = append(args, v)
            }
        default:
            return Page{}, fmt.Errorf("unsupported predicate op %q", p.Op)
        }
    }

    if q.Cursor != "" {
        cur, err := decodeCursor(q.Cursor)
        if err != nil {
            return Page{}, err
        }
        if cur.Field != sortField {
            return Page{}, fmt.Errorf("cursor sort field %q does not match query sort %q", cur.Field, sortField)
        }
        cmp := ">"
        if q.Sort.Descending {
            cmp = "<"
        }
        where = append(where, "("+sortExpr+" "+cmp+" ? OR ("+sortExpr+" = ? AND id > ?))")
        args = append(args, cur.Value, cur.Value, cur.ID)
    }

    dir := "ASC"
    if q.Sort.Descending {
        dir = "DESC"
    }
    limit := q.Limit
    if limit <= 0 {
        limit = 20
    }

    sqlText := `SELECT id, doc, COALESCE(` + sortExpr + `, '') FROM documents
        WHERE ` + strings.Join(where, " AND ") + `
        ORDER BY ` + sortExpr + ` ` + dir + `, id ASC
        LIMIT ?`
    args = append(args, limit)

    rows, err := m.db.QueryContext(ctx, sqlText, args...)
    if err != nil {
        return Page{}, err
    }
    defer rows.Close()

    page := Page{Docs: make([]RawDoc, 0, limit)}
    var lastSortVal string
    for rows.Next() {
        var d RawDoc
        var data []byte
        if err := rows.Scan(&d.ID, &data, &lastSortVal); err != nil {
            return Page{}, err
        }
        d.Data = json.RawMessage(data)
        page.Docs = append(page.Docs, d)
    }
    if err := rows.Err(); err != nil {
        return Page{}, err
    }
    if len(page.Docs) == limit {
        last := page.Docs[len(page.Docs)-1]
        page.NextCursor = encodeCursor(pageCursor{Field: sortField, Value: lastSortVal, ID: last.ID})
    }
    return page, nil
}

// pageCursor is the decoded form of the opaque pagination token.
type pageCursor struct {
    Field string `json:"f"`
    Value string `json:"v"`
    ID    string `json:"id"`
}

func encodeCursor(c pageCursor) string {
    data, _ := json.Marshal(c)
    return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (pageCursor, error) {
    data, err := base64.RawURLEncoding.DecodeString(s)
    if err != nil {
        return pageCursor{}, fmt.Errorf("invalid cursor: %w", err)
    }
    var c pageCursor
    if err := json.Unmarshal(data, &c); err != nil {
        return pageCursor{}, fmt.Errorf("invalid cursor: %w", err)
    }
    return c, nil
}

// fieldExpr renders a top-level document field to a JSON_EXTRACT expression.
// Field names are interpolated into the JSON path, so only conservative
// identifier characters are accepted.
func fieldExpr(field string) (string, error) {
    if field == "" {
        return "", fmt.Errorf("empty field name")
    }
    for _, r := range field {
        if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
            return "", fmt.Errorf("invalid field name %q", field)
        }
    }
    return "JSON_UNQUOTE(JSON_EXTRACT(doc, '$." + field + "'))", nil
}

// renderValue converts a predicate value to the string form produced by
// JSON_UNQUOTE over the stored document.
func renderValue(v any) string {
    switch t := v.(type) {
    case string:
        return t
    case bool:
        if t {
            return "true"
        }
        return "false"
    case time.Time:
        return t.UTC().Format(time.RFC3339)
    default:
        return fmt.Sprint(t)
    }
}

// marshalWithID marshals doc and forces its "id" member to id.
func marshalWithID(doc any, id string) ([]byte, error) {
    data, err := json.Marshal(doc)
    if err != nil {
        return nil, err
    }
    var m map[string]any
    if err := json.Unmarshal(data, &m); err != nil {
        return nil, fmt.Errorf("document must be a JSON object: %w", err)
    }
    m["id"] = id
    return json.Marshal(m)
}

// newDocID returns a 32-character hex identifier from 16 bytes of secure
// random data.
func newDocID() (string, error) {
    buf := make([]byte, 16)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
