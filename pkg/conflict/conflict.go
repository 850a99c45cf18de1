// Package conflict decides whether a candidate time interval can be booked
// against a set of existing bookings on the same court or venue.
//
// Intervals are half-open: [Start, End). Two bookings that only touch at an
// endpoint do not conflict, so a booking ending at 18:00 never blocks one
// starting at 18:00.
package conflict

import (
	"errors"
	"time"
)

var ErrInvalidInterval = errors.New("interval end must be after its start")

type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds [start, end). A zero end defaults to start+defaultDuration.
func NewInterval(start, end time.Time, defaultDuration time.Duration) (Interval, error) {
	if end.IsZero() && !start.IsZero() {
		end = start.Add(defaultDuration)
	}
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() || !i.End.After(i.Start) {
		return ErrInvalidInterval
	}
	return nil
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether a and b share at least one instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Slot is an existing booking as seen by the detector.
type Slot struct {
	ID       string
	Interval Interval
	Active   bool
}

type Result struct {
	Free      bool
	Conflicts []string
}

// Check validates candidate and returns the ids of every active slot it
// overlaps, in input order. Inactive slots never block.
func Check(candidate Interval, existing []Slot) (Result, error) {
	if err := candidate.Validate(); err != nil {
		return Result{}, err
	}

	var conflicts []string
	for _, slot := range existing {
		if !slot.Active {
			continue
		}
		if Overlaps(candidate, slot.Interval) {
			conflicts = append(conflicts, slot.ID)
		}
	}

	return Result{Free: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// Exclude drops the slot with the given id. Used when re-activating a booking
// so that it is not reported as conflicting with itself.
func Exclude(slots []Slot, id string) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
