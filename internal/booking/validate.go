package booking

import (
	"regexp"
	"strings"
)

// Same pattern the booking service applies server-side: local@domain.tld
// with no whitespace and no second @.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func NotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}

// ClampPeople bounds a party size to the service's accepted range.
func ClampPeople(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxPeoplePerSlot {
		return MaxPeoplePerSlot
	}
	return n
}
