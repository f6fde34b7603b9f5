package booking

import (
	"fmt"
	"time"
)

// Period is a half-open interval [start, end).
type Period struct {
	start time.Time
	end   time.Time
}

func NewPeriod(start, end, now time.Time) (Period, error) {
	if !start.Before(end) {
		return Period{}, fmt.Errorf("%w: start %s must be before end %s",
			ErrInvalidPeriod, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if start.Before(now) {
		return Period{}, fmt.Errorf("%w: %w", ErrInvalidPeriod, ErrPeriodInPast)
	}
	return Period{start: start.UTC(), end: end.UTC()}, nil
}

// ReconstructPeriod rebuilds a stored period; the past-start rule only applies to new periods.
func ReconstructPeriod(start, end time.Time) Period {
	return Period{start: start.UTC(), end: end.UTC()}
}

func (p Period) Start() time.Time {
	return p.start
}

func (p Period) End() time.Time {
	return p.end
}

func (p Period) Duration() time.Duration {
	return p.end.Sub(p.start)
}

func (p Period) Hours() float64 {
	return p.Duration().Hours()
}

func (p Period) IsZero() bool {
	return p.start.IsZero() && p.end.IsZero()
}

func (p Period) Overlaps(other Period) bool {
	return p.start.Before(other.end) && p.end.After(other.start)
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.start) && t.Before(p.end)
}

func (p Period) IsAdjacent(other Period) bool {
	return p.end.Equal(other.start) || other.end.Equal(p.start)
}

func (p Period) Equals(other Period) bool {
	return p.start.Equal(other.start) && p.end.Equal(other.end)
}

func (p Period) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", p.start.Format(time.RFC3339), p.end.Format(time.RFC3339))
}

func (p Period) String() string {
	return p.ToTstzrange()
}
