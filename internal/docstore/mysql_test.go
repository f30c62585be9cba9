package docstore

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
    in := pageCursor{Field: "created_at", Value: "2025-06-01T12:00:00Z", ID: "abc123"}
    out, err := decodeCursor(encodeCursor(in))
    require.NoError(t, err)
    assert.Equal(t, in, out)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
    _, err := decodeCursor("not base64!!!")
    assert.Error(t, err)

    // Valid base64 but not JSON.
    _, err = decodeCursor("aGVsbG8")
    assert.Error(t, err)
}

func TestFieldExpr(t *testing.T) {
    expr, err := fieldExpr("created_at")
    require.NoError(t, err)
    assert.Equal(t, "JSON_UNQUOTE(JSON_EXTRACT(doc, '$.created_at'))", expr)

    for _, bad := range []string{"", "Price", "a.b", "x;DROP TABLE", "a b", "field'"} {
        _, err := fieldExpr(bad)
        assert.Error(t, err, "field %q", bad)
    }
}

func TestRenderValue(t *testing.T) {
    assert.Equal(t, "active", renderValue("active"))
    assert.Equal(t, "true", renderValue(true))
    assert.Equal(t, "false", renderValue(false))
    assert.Equal(t, "42", renderValue(42))

    ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
    assert.Equal(t, "2025-06-01T12:00:00Z", renderValue(ts))
}

func TestMarshalWithIDForcesID(t *testing.T) {
    data, err := marshalWithID(map[string]any{"id": "stale", "name": "x"}, "fresh")
    require.NoError(t, err)
    var m map[string]any
    require.NoError(t, json.Unmarshal(data, &m))
    assert.Equal(t, "fresh", m["id"])
    assert.Equal(t, "x", m["name"])

    _, err = marshalWithID([]int{1, 2}, "id")
    assert.Error(t, err, "documents must be JSON objects")
}

func TestNewDocID(t *testing.T) {
    a, err := newDocID()
    require.NoError(t, err)
    b, err := newDocID()
    require.NoError(t, err)
    assert.Len(t, a, 32)
    assert.NotEqual(t, a, b)
}
