// Package history keeps a customer's booking history in sync with the
// remote service. Cancellation applies an optimistic local projection
// first; the next authoritative fetch always overwrites it.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/example/salon-booking/internal/booking"
	"github.com/example/salon-booking/internal/gateway"
)

// Gateway is the slice of the remote client the reconciler needs.
type Gateway interface {
	FetchHistory(ctx context.Context, email string) ([]booking.BookingRecord, error)
	CancelBooking(ctx context.Context, req gateway.CancelRequest) (*gateway.MutationResponse, error)
}

// Reconciler holds the local snapshot of one customer's history.
// Concurrent refreshes are safe: each fetch is independent and the
// snapshot swap is atomic, with last write winning.
type Reconciler struct {
	gw     Gateway
	email  string
	logger *log.Logger

	// onCapacityChange runs after a successful cancellation so the
	// calendar owner can refresh capacity.
	onCapacityChange func()

	mu          sync.Mutex
	records     []booking.BookingRecord
	lastUpdated time.Time

	// now is swapped in tests to pin the optimistic timestamp.
	now func() time.Time
}

func NewReconciler(gw Gateway, email string, onCapacityChange func()) *Reconciler {
	return &Reconciler{
		gw:               gw,
		email:            email,
		onCapacityChange: onCapacityChange,
		logger:           log.Default().WithPrefix("history"),
		now:              time.Now,
	}
}

func (r *Reconciler) Email() string { return r.email }

// Refresh fetches the authoritative history and installs it, replacing
// any optimistic state wholesale.
func (r *Reconciler) Refresh(ctx context.Context) error {
	recs, err := r.gw.FetchHistory(ctx, r.email)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	r.mu.Lock()
	r.records = recs
	r.lastUpdated = r.now()
	r.mu.Unlock()
	return nil
}

// Records returns a copy of the current snapshot in the order the
// service sent it.
func (r *Reconciler) Records() []booking.BookingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]booking.BookingRecord(nil), r.records...)
}

// LastUpdated is the local arrival time of the installed snapshot.
func (r *Reconciler) LastUpdated() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUpdated
}

// Find returns the snapshot record with the given id.
func (r *Reconciler) Find(id string) (booking.BookingRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return booking.BookingRecord{}, false
}

// Cancel cancels a booking. The local record flips to cancelled
// immediately so the surface updates without waiting on the network;
// the follow-up fetch replaces that projection with server truth. If
// the cancel call fails, the refetch discards the projection and the
// error is returned for display.
func (r *Reconciler) Cancel(ctx context.Context, rec booking.BookingRecord) error {
	r.applyOptimisticCancel(rec.ID)

	_, err := r.gw.CancelBooking(ctx, gateway.CancelRequest{
		Date:   rec.Date,
		SlotID: rec.SlotID,
		Email:  r.email,
		People: rec.People,
	})
	if err != nil {
		r.logger.Warn("cancel failed, discarding optimistic state", "booking", rec.ID, "err", err)
		if rerr := r.Refresh(ctx); rerr != nil {
			r.logger.Warn("refresh after failed cancel also failed", "err", rerr)
		}
		return fmt.Errorf("cancel booking: %w", err)
	}

	r.logger.Info("booking cancelled", "booking", rec.ID, "date", rec.Date, "slot", rec.SlotID)
	if r.onCapacityChange != nil {
		r.onCapacityChange()
	}
	return r.Refresh(ctx)
}

func (r *Reconciler) applyOptimisticCancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].Status = booking.StatusCancelled
			r.records[i].CancelledAt = r.now().Format(booking.TimestampLayout)
			return
		}
	}
}
