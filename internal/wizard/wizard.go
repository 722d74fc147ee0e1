// Package wizard implements the multi-step reservation flow: slot
// selection, customer details, confirmation, completion. Each step
// gates the next behind validation, and submission runs through the
// gateway with an advisory in-flight guard against double submits.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/gateway"
)

type Step int

const (
	StepClosed Step = iota
	StepSlotSelection
	StepCustomerDetails
	StepConfirmation
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepSlotSelection:
		return "slot selection"
	case StepCustomerDetails:
		return "customer details"
	case StepConfirmation:
		return "confirmation"
	case StepComplete:
		return "complete"
	default:
		return "closed"
	}
}

// Guard messages shown when a transition is refused.
const (
	msgSelectStaff  = "please select a staff member"
	msgRequired     = "name and email are required"
	msgInvalidEmail = "please enter a valid email address (example: taro@example.com)"
)

var (
	ErrClosed             = errors.New("wizard is not open")
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
)

// Creator is the slice of the gateway the wizard submits through.
type Creator interface {
	CreateBooking(ctx context.Context, req gateway.BookingRequest) (*gateway.MutationResponse, error)
}

// Wizard drives one reservation attempt. The draft it owns is reset
// whenever the wizard is opened, so nothing leaks between attempts.
type Wizard struct {
	mu      sync.Mutex
	creator Creator
	logger  *log.Logger

	// onBooked runs after a successful submission so the owner can
	// refresh capacity for the visible month.
	onBooked func(date string)

	step     Step
	date     string
	slots    []booking.Slot
	selected *booking.Slot
	customer booking.CustomerDetails
	errMsg   string
	inFlight bool
}

func New(creator Creator, onBooked func(date string)) *Wizard {
	return &Wizard{
		creator:  creator,
		onBooked: onBooked,
		logger:   log.Default().WithPrefix("wizard"),
		step:     StepClosed,
	}
}

// Open starts a fresh attempt for one date, discarding any previous
// draft. Party size starts at 1.
func (w *Wizard) Open(date string, slots []booking.Slot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepSlotSelection
	w.date = date
	w.slots = append([]booking.Slot(nil), slots...)
	w.selected = nil
	w.customer = booking.CustomerDetails{People: 1}
	w.errMsg = ""
	w.inFlight = false
}

// Close abandons the attempt from any step.
func (w *Wizard) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepClosed
	w.selected = nil
	w.customer = booking.CustomerDetails{}
	w.errMsg = ""
	w.inFlight = false
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Date() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.date
}

// Slots returns the day's slots for rendering step 1.
func (w *Wizard) Slots() []booking.Slot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]booking.Slot(nil), w.slots...)
}

func (w *Wizard) Selected() *booking.Slot {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return nil
	}
	s := *w.selected
	return &s
}

func (w *Wizard) Customer() booking.CustomerDetails {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.customer
}

// ValidationError returns the message for the most recently refused
// transition or failed submission, empty when there is none.
func (w *Wizard) ValidationError() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.errMsg
}

func (w *Wizard) InFlight() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inFlight
}

// SelectSlot picks a slot by id on step 1. Slots without room for the
// current party size are refused, matching the disabled controls.
func (w *Wizard) SelectSlot(id int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step != StepSlotSelection {
		return fmt.Errorf("cannot select a slot during %s", w.step)
	}
	for i := range w.slots {
		if w.slots[i].ID != id {
			continue
		}
		if !w.slots[i].Selectable(w.customer.People) {
			w.errMsg = fmt.Sprintf("%s has no room for %d people", w.slots[i].ResourceName, w.customer.People)
			return errors.New(w.errMsg)
		}
		s := w.slots[i]
		w.selected = &s
		w.errMsg = ""
		return nil
	}
	return fmt.Errorf("no slot %d on %s", id, w.date)
}

// SetDetails records the customer's input on step 2. A selection made
// in step 1 stays valid even if the party size grows afterwards; only
// the confirmation total follows the new count.
func (w *Wizard) SetDetails(name, email, phone string, people int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.customer = booking.CustomerDetails{
		Name:   name,
		Email:  email,
		Phone:  phone,
		People: booking.ClampPeople(people),
	}
}

// Next advances one step when the current step's guard passes. On the
// confirmation step it performs the submission. A refused transition
// keeps the current step and records the guard message.
func (w *Wizard) Next(ctx context.Context) error {
	w.mu.Lock()
	switch w.step {
	case StepSlotSelection:
		if w.selected == nil {
			w.errMsg = msgSelectStaff
			w.mu.Unlock()
			return errors.New(msgSelectStaff)
		}
		w.step = StepCustomerDetails
		w.errMsg = ""
		w.mu.Unlock()
		return nil

	case StepCustomerDetails:
		if !booking.NotBlank(w.customer.Name) || !booking.NotBlank(w.customer.Email) {
			w.errMsg = msgRequired
			w.mu.Unlock()
			return errors.New(msgRequired)
		}
		if !booking.ValidEmail(strings.TrimSpace(w.customer.Email)) {
			w.errMsg = msgInvalidEmail
			w.mu.Unlock()
			return errors.New(msgInvalidEmail)
		}
		w.step = StepConfirmation
		w.errMsg = ""
		w.mu.Unlock()
		return nil

	case StepConfirmation:
		return w.submitLocked(ctx)

	default:
		w.mu.Unlock()
		return ErrClosed
	}
}

// submitLocked is entered holding the mutex and releases it around the
// network call so the surface can keep polling InFlight.
func (w *Wizard) submitLocked(ctx context.Context) error {
	if w.inFlight {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.inFlight = true
	w.errMsg = ""
	req := gateway.BookingRequest{
		Date:   w.date,
		SlotID: w.selected.ID,
		Name:   strings.TrimSpace(w.customer.Name),
		Email:  strings.TrimSpace(w.customer.Email),
		Phone:  strings.TrimSpace(w.customer.Phone),
		People: w.customer.People,
	}
	w.mu.Unlock()

	res, err := w.creator.CreateBooking(ctx, req)

	w.mu.Lock()
	w.inFlight = false
	if err != nil {
		// Back to the details step, not confirmation: the customer
		// should correct input rather than blindly retry.
		w.errMsg = gateway.UserMessage(err)
		w.step = StepCustomerDetails
		w.mu.Unlock()
		w.logger.Warn("booking submission failed", "date", req.Date, "slot", req.SlotID, "err", err)
		return err
	}
	w.step = StepComplete
	w.errMsg = ""
	date := w.date
	w.mu.Unlock()

	w.logger.Info("booking confirmed", "date", req.Date, "slot", req.SlotID, "people", req.People)
	if res != nil && res.Message != "" {
		w.logger.Debug("service message", "message", res.Message)
	}
	if w.onBooked != nil {
		w.onBooked(date)
	}
	return nil
}

// Back returns to the previous step and clears the error. It is
// refused only while a submission is in flight.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepCustomerDetails:
		w.step = StepSlotSelection
	case StepConfirmation:
		if w.inFlight {
			return ErrSubmissionInFlight
		}
		w.step = StepCustomerDetails
	default:
		return fmt.Errorf("cannot go back from %s", w.step)
	}
	w.errMsg = ""
	return nil
}

// Acknowledge closes the wizard from the completion step. The wizard
// never auto-closes.
func (w *Wizard) Acknowledge() error {
	w.mu.Lock()
	if w.step != StepComplete {
		w.mu.Unlock()
		return fmt.Errorf("nothing to acknowledge during %s", w.step)
	}
	w.mu.Unlock()
	w.Close()
	return nil
}

// TotalPrice is the selected slot's per-person price times the current
// party size; zero when nothing is selected.
func (w *Wizard) TotalPrice() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return 0
	}
	people := w.customer.People
	if people < 1 {
		people = 1
	}
	return w.selected.Price * people
}
