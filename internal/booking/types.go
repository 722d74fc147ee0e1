package booking

import "time"

// Layouts used on the wire. The booking service speaks plain strings for
// dates and timestamps, never RFC3339.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04"
)

// MaxPeoplePerSlot is the largest party the service accepts for one slot.
const MaxPeoplePerSlot = 4

const SlotAvailable = "available"

// Slot is one bookable time interval served by a single staff member.
type Slot struct {
	ID           int    `json:"id"`
	Start        string `json:"start"`
	End          string `json:"end"`
	ResourceName string `json:"resourceName"`
	Status       string `json:"status"`
	Remaining    int    `json:"remaining"`
	MaxCapacity  int    `json:"maxCapacity"`
	Price        int    `json:"price"`
}

// Selectable reports whether the slot can take a party of the given size.
func (s Slot) Selectable(people int) bool {
	return s.Status == SlotAvailable && s.Remaining >= people
}

// DayCapacity aggregates the reservation count and limit for one calendar
// date, plus that day's slots. The remote service owns this data; local
// copies are read-only and refreshed wholesale after any mutation.
type DayCapacity struct {
	Reserved int    `json:"reserved"`
	Limit    int    `json:"limit"`
	Slots    []Slot `json:"slots"`
}

// Remaining may be negative if the server reports an inconsistent state;
// callers must treat that as full rather than fail.
func (d DayCapacity) Remaining() int {
	return d.Limit - d.Reserved
}

// SlotByID returns the day's slot with the given id.
func (d DayCapacity) SlotByID(id int) (Slot, bool) {
	for _, s := range d.Slots {
		if s.ID == id {
			return s, true
		}
	}
	return Slot{}, false
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// BookingRecord mirrors one entry of a customer's booking history. The
// server is authoritative; the only local mutation ever applied is the
// optimistic cancelled projection, which the next fetch overwrites.
type BookingRecord struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Resource    string `json:"resource"`
	Status      Status `json:"status"`
	Price       int    `json:"price"`
	CreatedAt   string `json:"createdAt"`
	CancelledAt string `json:"cancelledAt,omitempty"`
	SlotID      int    `json:"slotId"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	People      int    `json:"people"`
}

// TotalPrice is the per-person price times the party size.
func (r BookingRecord) TotalPrice() int {
	people := r.People
	if people < 1 {
		people = 1
	}
	return r.Price * people
}

// CustomerDetails is what the wizard collects before confirmation.
type CustomerDetails struct {
	Name   string
	Email  string
	Phone  string
	People int
}

// FormatDateISO renders a time as the service's YYYY-MM-DD date key.
func FormatDateISO(t time.Time) string {
	return t.Format(DateLayout)
}
