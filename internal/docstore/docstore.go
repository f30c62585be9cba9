// Package docstore defines the remote document store contract consumed by
// the marketplace stores.  Documents are schemaless JSON records grouped
// into named collections; the backing service performs no schema
// validation.  The production implementation lives in mysql.go; tests use
// in-memory fakes.
package docstore

import (
    "context"
    "encoding/json"
    "errors"
)

// ErrNoDocument is returned by Get, Update and Delete when no document with
// the requested id exists in the collection.
var ErrNoDocument = errors.New("document not found")

// Op enumerates the predicate operators supported by Query.
type Op string

const (
    // OpEqual matches documents whose field equals the predicate value.
    OpEqual Op = "=="
    // OpIn matches documents whose field is a member of the predicate values.
    OpIn Op = "in"
)

// Predicate is a single filter condition on a top-level document field.
// Predicates in a query are ANDed together; there is no OR form.
type Predicate struct {
    Field  string
    Op     Op
    Value  any      // used by OpEqual
    Values []string // used by OpIn
}

// Eq builds an equality predicate.
func Eq(field string, value any) Predicate {
    return Predicate{Field: field, Op: OpEqual, Value: value}
}

// In builds a membership predicate.
func In(field string, values []string) Predicate {
    return Predicate{Field: field, Op: OpIn, Values: values}
}

// Sort selects a single field and direction for query ordering.
type Sort struct {
    Field      string
    Descending bool
}

// Query describes a filtered, sorted, paginated read over a collection.
// Cursor is an opaque token returned by a previous Query with the same
// sort; an empty cursor starts from the beginning.
type Query struct {
    Predicates []Predicate
    Sort       Sort
    Limit      int
    Cursor     string
}

// RawDoc is a single document returned by Query.  Data holds the document
// JSON including its "id" field.
type RawDoc struct {
    ID   string
    Data json.RawMessage
}

// Page is the result of a Query.  NextCursor is empty when the page was
// short, i.e. no further documents exist.
type Page struct {
    Docs       []RawDoc
    NextCursor string
}

// Store is the document store contract: point CRUD plus filtered queries.
// Create assigns and returns a new opaque id and injects it into the stored
// document under the "id" key.  Update replaces the whole document.
type Store interface {
    Create(ctx context.Context, collection string, doc any) (string, error)
    Get(ctx context.Context, collection, id string, out any) error
    Update(ctx context.Context, collection, id string, doc any) error
    Delete(ctx context.Context, collection, id string) error
    Query(ctx context.Context, collection string, q Query) (Page, error)
}
