// Package calendar builds the month view: a fixed 6x7 grid of dates
// annotated with availability from the capacity model.
package calendar

import (
	"time"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/capacity"
)

// GridCells is the fixed size of a month grid: six full weeks.
const GridCells = 42

type Cell struct {
	Date           time.Time
	InCurrentMonth bool
}

// AnnotatedCell is a grid cell plus everything the calendar surface
// needs to render it.
type AnnotatedCell struct {
	Cell
	ISODate  string
	Tier     capacity.Tier
	Symbol   string
	Bookable bool
	Today    bool
	Past     bool
}

// BuildMonthGrid returns exactly 42 cells for the month containing
// anchor. The grid starts on the Sunday on or before the 1st; trailing
// cells pad with next-month dates so every month fills six weeks.
func BuildMonthGrid(anchor time.Time) []Cell {
	year, month, _ := anchor.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, anchor.Location())
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]Cell, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		d := start.AddDate(0, 0, i)
		cells = append(cells, Cell{
			Date:           d,
			InCurrentMonth: d.Month() == month && d.Year() == year,
		})
	}
	return cells
}

// Annotate attaches tier, symbol and bookability to each cell using the
// caller's capacity data (keyed by ISO date) and "today" reference.
func Annotate(cells []Cell, byDate map[string]booking.DayCapacity, today time.Time) []AnnotatedCell {
	out := make([]AnnotatedCell, 0, len(cells))
	for _, c := range cells {
		iso := booking.FormatDateISO(c.Date)
		var day *booking.DayCapacity
		if d, ok := byDate[iso]; ok {
			day = &d
		}
		tier := capacity.TierOf(day)
		out = append(out, AnnotatedCell{
			Cell:     c,
			ISODate:  iso,
			Tier:     tier,
			Symbol:   capacity.Symbol(tier),
			Bookable: capacity.IsBookable(day, c.Date, today),
			Today:    SameDate(c.Date, today),
			Past:     capacity.IsPast(c.Date, today),
		})
	}
	return out
}

// AddMonths moves an anchor by whole calendar months, not 30-day jumps.
// Day-of-month is preserved where the target month has it and clamped
// to the month's last day otherwise (Jan 31 -> Feb 29/28).
func AddMonths(anchor time.Time, n int) time.Time {
	year, month, day := anchor.Date()
	firstOfTarget := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, anchor.Location())
	if last := daysIn(firstOfTarget); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, anchor.Location())
}

func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
