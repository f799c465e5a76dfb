package services

import (
	"context"
	"fmt"
	"time"

	"bustix/internal/domain/models"
	"bustix/internal/utils"
)

// Reconciler sweeps payments stuck in pending past the timeout, fails them
// and discards their bookings so no seats stay held by a dead attempt.
type Reconciler struct {
	Trips    TripStore
	Bookings BookingStore
	Payments PaymentStore
	Events   EventSink

	Timeout  time.Duration
	Interval time.Duration

	Now func() time.Time
}

func (r Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r Reconciler) events() EventSink {
	if r.Events != nil {
		return r.Events
	}
	return NopSink{}
}

// Run loops until the context ends.
func (r Reconciler) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := r.SweepOnce(ctx); err != nil {
				utils.LogEvent("", "reconciler", "sweep", err.Error())
			} else if n > 0 {
				utils.LogEvent("", "reconciler", "sweep", fmt.Sprintf("unwound %d stale attempt(s)", n))
			}
		}
	}
}

// SweepOnce processes one pass and returns how many bookings were unwound.
func (r Reconciler) SweepOnce(ctx context.Context) (int, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}

	stale, err := r.Payments.FailStalePending(ctx, r.now().Add(-timeout))
	if err != nil {
		return 0, err
	}

	unwound := 0
	for _, p := range stale {
		booking, err := r.Bookings.GetBooking(ctx, p.BookingID)
		if err != nil {
			utils.LogEvent("", "reconciler", "lookup", err.Error())
			continue
		}
		if booking.Status != models.BookingPending {
			continue
		}
		if err := r.Bookings.DiscardBooking(ctx, booking.ID); err != nil {
			utils.LogEvent("", "reconciler", "discard", err.Error())
			continue
		}
		unwound++
		if available, err := r.Trips.RefreshSeatsAvailable(ctx, booking.TripID); err == nil {
			r.events().PublishBookingUpdate(booking.TripID, available, nil)
		}
	}
	return unwound, nil
}
