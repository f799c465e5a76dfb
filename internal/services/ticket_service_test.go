package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
)

func TestGenerateETicket(t *testing.T) {
	store := newMemStore()
	booking := confirmedBooking(t, store, models.PaymentMethodCash, 2, 500,
		time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	svc := TicketService{Trips: store, Bookings: store}
	pdf, filename, err := svc.GenerateETicket(context.Background(), booking.ID,
		Actor{Email: "ama@example.com", Role: RoleCustomer})
	if err != nil {
		t.Fatalf("generate eticket: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
	if filename != "ETICKET_"+booking.Ref+".pdf" {
		t.Fatalf("filename = %s", filename)
	}
}

func TestGenerateETicketOwnershipHidden(t *testing.T) {
	store := newMemStore()
	booking := confirmedBooking(t, store, models.PaymentMethodCash, 1, 500,
		time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	svc := TicketService{Trips: store, Bookings: store}
	_, _, err := svc.GenerateETicket(context.Background(), booking.ID,
		Actor{Email: "intruder@example.com", Role: RoleCustomer})
	if !domain.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}

	// staff can pull any booking's ticket
	if _, _, err := svc.GenerateETicket(context.Background(), booking.ID,
		Actor{Email: "clerk@bustix.example", Role: RoleStaff}); err != nil {
		t.Fatalf("staff fetch: %v", err)
	}
}

func TestGenerateETicketRequiresConfirmedBooking(t *testing.T) {
	store := newMemStore()
	store.addTrip(scheduledTrip(1, 10, 500))
	pending := models.Booking{
		TripID:        1,
		UserEmail:     "ama@example.com",
		NoOfSeats:     1,
		AssignedSeats: []int{1},
		Status:        models.BookingPending,
	}
	if err := store.CreateBooking(context.Background(), &pending); err != nil {
		t.Fatalf("setup: %v", err)
	}

	svc := TicketService{Trips: store, Bookings: store}
	_, _, err := svc.GenerateETicket(context.Background(), pending.ID,
		Actor{Email: "ama@example.com", Role: RoleCustomer})
	if !domain.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}
