package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestTestDriveRangeDefaultsToThirtyMinutes(t *testing.T) {
    at := time.Date(2025, 7, 5, 14, 0, 0, 0, time.UTC)
    b := Booking{Kind: BookingKindTestDrive, PreferredAt: &at}

    start, end := b.Range()
    assert.Equal(t, at, start)
    assert.Equal(t, at.Add(30*time.Minute), end)

    b.DurationMin = 90
    _, end = b.Range()
    assert.Equal(t, at.Add(90*time.Minute), end)
}

func TestOverlapsIsInclusive(t *testing.T) {
    d := func(day int) time.Time { return time.Date(2025, 7, day, 0, 0, 0, 0, time.UTC) }
    b := Booking{Kind: BookingKindRental, StartDate: d(5), EndDate: d(10)}

    assert.True(t, b.Overlaps(d(8), d(12)))
    assert.True(t, b.Overlaps(d(10), d(12)), "shared boundary counts")
    assert.True(t, b.Overlaps(d(1), d(5)), "shared boundary counts")
    assert.True(t, b.Overlaps(d(6), d(7)), "contained range counts")
    assert.False(t, b.Overlaps(d(11), d(15)))
    assert.False(t, b.Overlaps(d(1), d(4)))
}
