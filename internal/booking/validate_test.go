package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidEmail(t *testing.T) {
	valid := []string{
		"taro@example.com",
		"a@b.co",
		"first.last+tag@sub.domain.jp",
	}
	for _, e := range valid {
		assert.Truef(t, ValidEmail(e), "expected %q to be valid", e)
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@tld",
		"two@@example.com",
		"white space@example.com",
		"@example.com",
	}
	for _, e := range invalid {
		assert.Falsef(t, ValidEmail(e), "expected %q to be invalid", e)
	}
}

func TestNotBlank(t *testing.T) {
	assert.True(t, NotBlank("Taro"))
	assert.False(t, NotBlank(""))
	assert.False(t, NotBlank("   \t"))
}

func TestClampPeople(t *testing.T) {
	assert.Equal(t, 1, ClampPeople(0))
	assert.Equal(t, 1, ClampPeople(-3))
	assert.Equal(t, 2, ClampPeople(2))
	assert.Equal(t, MaxPeoplePerSlot, ClampPeople(4))
	assert.Equal(t, MaxPeoplePerSlot, ClampPeople(9))
}

func TestSlotSelectable(t *testing.T) {
	s := Slot{Status: SlotAvailable, Remaining: 2}
	assert.True(t, s.Selectable(1))
	assert.True(t, s.Selectable(2))
	assert.False(t, s.Selectable(3))

	full := Slot{Status: "full", Remaining: 2}
	assert.False(t, full.Selectable(1))
}

func TestBookingRecordTotalPrice(t *testing.T) {
	assert.Equal(t, 10000, BookingRecord{Price: 5000, People: 2}.TotalPrice())
	assert.Equal(t, 5000, BookingRecord{Price: 5000}.TotalPrice())
}
