//go:build unit

package booking_test

import (
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPeriod(t *testing.T) {
	now := builder.BaseTime
	hour := time.Hour

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
		errIs error
	}{
		{name: "future interval", start: now.Add(hour), end: now.Add(3 * hour)},
		{name: "starting exactly now", start: now, end: now.Add(hour)},
		{name: "start equals end", start: now.Add(hour), end: now.Add(hour), errIs: booking.ErrInvalidPeriod},
		{name: "start after end", start: now.Add(2 * hour), end: now.Add(hour), errIs: booking.ErrInvalidPeriod},
		{name: "start in the past", start: now.Add(-time.Minute), end: now.Add(hour), errIs: booking.ErrPeriodInPast},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := booking.NewPeriod(tc.start, tc.end, now)
			if tc.errIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.errIs)
				assert.ErrorIs(t, err, booking.ErrInvalidPeriod)
				return
			}
			require.NoError(t, err)
			assert.True(t, p.Start().Equal(tc.start))
			assert.True(t, p.End().Equal(tc.end))
			assert.Equal(t, tc.end.Sub(tc.start), p.Duration())
		})
	}
}

func TestPeriodOverlaps(t *testing.T) {
	at := func(h int) time.Time { return builder.BaseTime.Add(time.Duration(h) * time.Hour) }
	base := booking.ReconstructPeriod(at(10), at(12))

	cases := []struct {
		name     string
		other    booking.Period
		overlaps bool
		adjacent bool
	}{
		{name: "identical", other: booking.ReconstructPeriod(at(10), at(12)), overlaps: true},
		{name: "contained", other: booking.ReconstructPeriod(at(10), at(11)), overlaps: true},
		{name: "containing", other: booking.ReconstructPeriod(at(9), at(13)), overlaps: true},
		{name: "straddles start", other: booking.ReconstructPeriod(at(9), at(11)), overlaps: true},
		{name: "straddles end", other: booking.ReconstructPeriod(at(11), at(13)), overlaps: true},
		{name: "ends at start", other: booking.ReconstructPeriod(at(8), at(10)), adjacent: true},
		{name: "starts at end", other: booking.ReconstructPeriod(at(12), at(14)), adjacent: true},
		{name: "disjoint", other: booking.ReconstructPeriod(at(14), at(15))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlaps, tc.other.Overlaps(base), "overlap must be symmetric")
			assert.Equal(t, tc.adjacent, base.IsAdjacent(tc.other))
		})
	}
}

func TestPeriodHelpers(t *testing.T) {
	start := builder.BaseTime.Add(time.Hour)
	p := booking.ReconstructPeriod(start, start.Add(90*time.Minute))

	assert.Equal(t, 1.5, p.Hours())
	assert.True(t, p.Contains(start))
	assert.False(t, p.Contains(p.End()), "end is exclusive")
	assert.True(t, p.Equals(booking.ReconstructPeriod(start, start.Add(90*time.Minute))))
	assert.False(t, p.IsZero())
	assert.True(t, booking.Period{}.IsZero())
	assert.Equal(t, "[2030-01-01T10:00:00Z,2030-01-01T11:30:00Z)", p.ToTstzrange())
}
