// Package capacity derives availability tiers and bookability from raw
// day capacity data. Everything here is pure: no I/O, no hidden state,
// safe to call on every render.
package capacity

import (
	"time"

	"github.com/example/salon-booking/internal/booking"
)

type Tier int

const (
	TierFull Tier = iota
	TierLow
	TierOpen
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierOpen:
		return "open"
	default:
		return "full"
	}
}

// TierOf maps a day's remaining capacity to a tier. A missing day is
// treated as full: unknown means not bookable. Negative remaining
// (inconsistent server state) also maps to full rather than failing.
func TierOf(day *booking.DayCapacity) Tier {
	if day == nil {
		return TierFull
	}
	remaining := day.Remaining()
	switch {
	case remaining <= 0:
		return TierFull
	case remaining <= 3:
		return TierLow
	default:
		return TierOpen
	}
}

// Symbol returns the calendar marker for a tier: x (full), triangle
// (low), circle (open).
func Symbol(t Tier) string {
	switch t {
	case TierLow:
		return "△"
	case TierOpen:
		return "○"
	default:
		return "×"
	}
}

// IsPast reports whether date falls on an earlier calendar day than
// today. Today itself is not past.
func IsPast(date, today time.Time) bool {
	dy, dm, dd := date.Date()
	ty, tm, td := today.Date()
	if dy != ty {
		return dy < ty
	}
	if dm != tm {
		return dm < tm
	}
	return dd < td
}

// IsBookable reports whether a date can take a new reservation. Past
// dates are never bookable regardless of capacity; otherwise the day
// must be present with reserved below limit.
func IsBookable(day *booking.DayCapacity, date, today time.Time) bool {
	if IsPast(date, today) {
		return false
	}
	if day == nil {
		return false
	}
	return day.Reserved < day.Limit
}
