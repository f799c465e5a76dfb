package services

import (
	"context"
	"testing"
	"time"

	"bustix/internal/domain/models"
)

func TestSweepOnceDiscardsStalePendingBookings(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addTrip(scheduledTrip(1, 10, 500))

	// stale pending attempt: seats held, payment never completed
	stale := models.Booking{
		TripID:        1,
		UserEmail:     "ama@example.com",
		NoOfSeats:     2,
		AssignedSeats: []int{1, 2},
		Status:        models.BookingPending,
		PaymentMethod: models.PaymentMethodCard,
	}
	if err := store.CreateBooking(context.Background(), &stale); err != nil {
		t.Fatalf("setup: %v", err)
	}
	stalePayment := models.Payment{BookingID: stale.ID, Amount: 1000, Method: models.PaymentMethodCard, Status: models.PaymentPending}
	if err := store.CreatePayment(context.Background(), &stalePayment); err != nil {
		t.Fatalf("setup: %v", err)
	}
	store.mu.Lock()
	p := store.payments[stalePayment.ID]
	p.CreatedAt = now.Add(-time.Hour)
	store.payments[p.ID] = p
	store.mu.Unlock()

	// fresh pending attempt that must be left alone
	fresh := models.Booking{
		TripID:        1,
		NoOfSeats:     1,
		AssignedSeats: []int{3},
		Status:        models.BookingPending,
		PaymentMethod: models.PaymentMethodCard,
	}
	if err := store.CreateBooking(context.Background(), &fresh); err != nil {
		t.Fatalf("setup: %v", err)
	}
	freshPayment := models.Payment{BookingID: fresh.ID, Amount: 500, Method: models.PaymentMethodCard, Status: models.PaymentPending}
	if err := store.CreatePayment(context.Background(), &freshPayment); err != nil {
		t.Fatalf("setup: %v", err)
	}
	store.mu.Lock()
	p = store.payments[freshPayment.ID]
	p.CreatedAt = now.Add(-time.Minute)
	store.payments[p.ID] = p
	store.mu.Unlock()

	sink := &recordingSink{}
	rec := Reconciler{
		Trips:    store,
		Bookings: store,
		Payments: store,
		Events:   sink,
		Timeout:  15 * time.Minute,
		Now:      func() time.Time { return now },
	}

	n, err := rec.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("unwound %d bookings, want 1", n)
	}

	if b := store.booking(stale.ID); b.Status != models.BookingDiscarded {
		t.Fatalf("stale booking status = %s, want discarded", b.Status)
	}
	if got := store.payment(stalePayment.ID); got.Status != models.PaymentFailed {
		t.Fatalf("stale payment status = %s, want failed", got.Status)
	}
	if b := store.booking(fresh.ID); b.Status != models.BookingPending {
		t.Fatalf("fresh booking status = %s, must stay pending", b.Status)
	}
	if n := store.seatCount(1); n != 1 {
		t.Fatalf("%d seats held after sweep, want fresh attempt's 1", n)
	}

	update := sink.last(t)
	if update.TripID != 1 || update.SeatsAvailable != 9 {
		t.Fatalf("published update = %+v", update)
	}
}

func TestSweepOnceSkipsAlreadyResolvedBookings(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.addTrip(scheduledTrip(1, 10, 500))

	booking := models.Booking{
		TripID:        1,
		NoOfSeats:     1,
		AssignedSeats: []int{1},
		Status:        models.BookingPending,
	}
	if err := store.CreateBooking(context.Background(), &booking); err != nil {
		t.Fatalf("setup: %v", err)
	}
	payment := models.Payment{BookingID: booking.ID, Amount: 500, Status: models.PaymentPending}
	if err := store.CreatePayment(context.Background(), &payment); err != nil {
		t.Fatalf("setup: %v", err)
	}
	store.mu.Lock()
	p := store.payments[payment.ID]
	p.CreatedAt = now.Add(-time.Hour)
	store.payments[p.ID] = p
	// booking meanwhile confirmed by a slow but successful flow
	b := store.bookings[booking.ID]
	b.Status = models.BookingConfirmed
	store.bookings[b.ID] = b
	store.mu.Unlock()

	rec := Reconciler{
		Trips:    store,
		Bookings: store,
		Payments: store,
		Timeout:  15 * time.Minute,
		Now:      func() time.Time { return now },
	}
	n, err := rec.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("unwound %d bookings, want 0", n)
	}
	if got := store.booking(booking.ID); got.Status != models.BookingConfirmed {
		t.Fatalf("booking status = %s, must stay confirmed", got.Status)
	}
}
