package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/capacity"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuildMonthGridAlwaysFortyTwoCellsStartingSunday(t *testing.T) {
	anchors := []time.Time{
		date(2025, time.June, 10),     // 1st falls on a Sunday: no leading padding
		date(2024, time.February, 1),  // leap February
		date(2025, time.February, 28), // short month
		date(2024, time.December, 31),
		date(2025, time.March, 1),  // 31-day month
		date(2026, time.August, 15),
	}
	for _, anchor := range anchors {
		cells := BuildMonthGrid(anchor)
		require.Lenf(t, cells, GridCells, "anchor %s", anchor)
		assert.Equalf(t, time.Sunday, cells[0].Date.Weekday(), "anchor %s", anchor)

		// consecutive dates throughout
		for i := 1; i < len(cells); i++ {
			assert.Equal(t, cells[i-1].Date.AddDate(0, 0, 1), cells[i].Date)
		}

		// every day of the month is present and flagged in-month
		inMonth := 0
		for _, c := range cells {
			if c.InCurrentMonth {
				inMonth++
				assert.Equal(t, anchor.Month(), c.Date.Month())
			}
		}
		first := date(anchor.Year(), anchor.Month(), 1)
		assert.Equal(t, first.AddDate(0, 1, -1).Day(), inMonth)
	}
}

func TestBuildMonthGridSundayFirstHasNoLeadingPadding(t *testing.T) {
	cells := BuildMonthGrid(date(2025, time.June, 15))
	assert.Equal(t, date(2025, time.June, 1), cells[0].Date)
	assert.True(t, cells[0].InCurrentMonth)
}

func TestAddMonthsPreservesDayAndClamps(t *testing.T) {
	assert.Equal(t, date(2025, time.July, 15), AddMonths(date(2025, time.June, 15), 1))
	assert.Equal(t, date(2025, time.May, 15), AddMonths(date(2025, time.June, 15), -1))

	// clamp instead of rolling into the next month
	assert.Equal(t, date(2025, time.February, 28), AddMonths(date(2025, time.January, 31), 1))
	assert.Equal(t, date(2024, time.February, 29), AddMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2024, time.November, 30), AddMonths(date(2024, time.December, 31), -1))

	// across year boundaries
	assert.Equal(t, date(2026, time.January, 10), AddMonths(date(2025, time.December, 10), 1))
	assert.Equal(t, date(2024, time.December, 10), AddMonths(date(2025, time.January, 10), -1))
}

func TestAnnotate(t *testing.T) {
	today := date(2025, time.June, 10)
	byDate := map[string]booking.DayCapacity{
		"2025-06-10": {Reserved: 1, Limit: 5},
		"2025-06-11": {Reserved: 4, Limit: 5},
		"2025-06-12": {Reserved: 5, Limit: 5},
		"2025-06-05": {Reserved: 0, Limit: 5}, // past but wide open
	}

	cells := Annotate(BuildMonthGrid(today), byDate, today)
	require.Len(t, cells, GridCells)

	byISO := map[string]AnnotatedCell{}
	for _, c := range cells {
		byISO[c.ISODate] = c
	}

	c := byISO["2025-06-10"]
	assert.Equal(t, capacity.TierOpen, c.Tier)
	assert.Equal(t, "○", c.Symbol)
	assert.True(t, c.Bookable)
	assert.True(t, c.Today)
	assert.False(t, c.Past)

	c = byISO["2025-06-11"]
	assert.Equal(t, capacity.TierLow, c.Tier)
	assert.Equal(t, "△", c.Symbol)
	assert.True(t, c.Bookable)

	c = byISO["2025-06-12"]
	assert.Equal(t, capacity.TierFull, c.Tier)
	assert.Equal(t, "×", c.Symbol)
	assert.False(t, c.Bookable)

	// past dates are never bookable regardless of capacity data
	c = byISO["2025-06-05"]
	assert.True(t, c.Past)
	assert.False(t, c.Bookable)
	assert.Equal(t, capacity.TierOpen, c.Tier)

	// no data: conservative full
	c = byISO["2025-06-20"]
	assert.Equal(t, capacity.TierFull, c.Tier)
	assert.False(t, c.Bookable)
}
