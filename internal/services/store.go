package services

import (
	"context"
	"time"

	"bustix/internal/domain/models"
	"bustix/internal/repositories"
)

// The stores are the narrow persistence surface the coordinators need.
// repositories implements them against MySQL; tests use in-memory fakes.

type TripStore interface {
	GetTrip(ctx context.Context, id int64) (models.Trip, error)
	SetTripStatus(ctx context.Context, id int64, status, reason string) error
	RefreshSeatsAvailable(ctx context.Context, id int64) (int, error)
}

type BookingStore interface {
	TakenSeats(ctx context.Context, tripID int64) ([]int, error)
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id int64) (models.Booking, error)
	ActiveBookings(ctx context.Context, tripID int64) ([]models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, paymentID int64) error
	DiscardBooking(ctx context.Context, bookingID int64) error
	MarkCancelled(ctx context.Context, upd repositories.CancelUpdate) error
	SetRefundStatus(ctx context.Context, bookingID int64, status string) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id int64) (models.Payment, error)
	SetPaymentStatus(ctx context.Context, id int64, status string) error
	MarkRefunded(ctx context.Context, id int64, amount int64) error
	FailStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error)
}

type CardStore interface {
	DefaultCard(ctx context.Context, userEmail string) (models.CreditCard, error)
	Debit(ctx context.Context, cardID int64, amount int64) error
	Credit(ctx context.Context, cardID int64, amount int64) error
}

// EventSink receives committed booking-state changes for realtime fan-out.
type EventSink interface {
	PublishBookingUpdate(tripID int64, seatsAvailable int, assignedSeats []int)
}

// NopSink drops events; used when no hub is wired (tests, tooling).
type NopSink struct{}

func (NopSink) PublishBookingUpdate(int64, int, []int) {}

// Actor is the already-authenticated caller, supplied by the auth
// collaborator and trusted as input.
type Actor struct {
	Email string
	Role  string
}

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleManager  = "manager"
)
