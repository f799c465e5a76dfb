package services

import (
	"context"
	"strings"
	"time"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
	"bustix/internal/utils"

	"github.com/google/uuid"
)

// seatConflictRetries bounds re-resolution when a concurrent writer grabbed a
// seat between resolve and reserve (can only happen if the storage backstop
// fires; the per-trip lock normally prevents it).
const seatConflictRetries = 2

type BookingService struct {
	Trips    TripStore
	Bookings BookingStore
	Payments PaymentStore
	Cards    CardStore
	Locks    *TripLocks
	Events   EventSink

	Now func() time.Time
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) events() EventSink {
	if s.Events != nil {
		return s.Events
	}
	return NopSink{}
}

type CreateBookingInput struct {
	TripID        int64
	Seats         int
	Passengers    []models.Passenger
	PaymentMethod string
	BookingType   string
	Actor         Actor
	// UserEmail overrides the actor's email for counter bookings taken on a
	// walk-in customer's behalf.
	UserEmail string
}

// CreateBooking reserves seats, executes payment and persists the booking as
// one unit. Seat resolution and the reservation write run under the per-trip
// lock; payment runs after the seats are durably held. A declined payment
// leaves no residue: the booking is discarded and its seats released.
func (s BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (models.Booking, error) {
	if err := validateInput(in); err != nil {
		return models.Booking{}, err
	}

	trip, err := s.Trips.GetTrip(ctx, in.TripID)
	if err != nil {
		return models.Booking{}, err
	}
	if !trip.Bookable() {
		return models.Booking{}, domain.TripUnavailableError{Status: trip.Status}
	}

	count := len(in.Passengers)
	email := in.UserEmail
	if email == "" {
		email = in.Actor.Email
	}

	booking := models.Booking{
		Ref:           uuid.NewString(),
		TripID:        in.TripID,
		UserEmail:     email,
		NoOfSeats:     count,
		TotalAmount:   trip.Cost * int64(count),
		Status:        models.BookingPending,
		BookingType:   in.BookingType,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: models.BookingUnpaid,
		CreatedAt:     s.now(),
	}

	if err := s.reserveSeats(ctx, trip, &booking, in.Passengers); err != nil {
		return models.Booking{}, err
	}

	payment, err := s.executePayment(ctx, &booking)
	if err != nil {
		s.discardAttempt(ctx, booking.ID, in.TripID)
		return models.Booking{}, err
	}

	if err := s.Bookings.ConfirmBooking(ctx, booking.ID, payment.ID); err != nil {
		// The customer has paid for a booking that cannot be confirmed:
		// reverse the payment first, then drop the attempt.
		s.reversePayment(ctx, payment)
		s.discardAttempt(ctx, booking.ID, in.TripID)
		return models.Booking{}, err
	}
	booking.Status = models.BookingConfirmed
	booking.PaymentStatus = models.BookingPaid
	booking.PaymentID = &payment.ID

	available, err := s.Trips.RefreshSeatsAvailable(ctx, in.TripID)
	if err != nil {
		utils.LogEvent("", "booking", "refresh", err.Error())
		available = trip.SeatsAvailable - count
	}
	s.events().PublishBookingUpdate(in.TripID, available, booking.AssignedSeats)

	return booking, nil
}

// reserveSeats runs the resolve+reserve critical section: lowest free seats,
// written while holding the trip lock, re-resolved on a seat conflict.
func (s BookingService) reserveSeats(ctx context.Context, trip models.Trip, b *models.Booking, passengers []models.Passenger) error {
	unlock := s.Locks.Lock(trip.ID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt <= seatConflictRetries; attempt++ {
		taken, err := s.Bookings.TakenSeats(ctx, trip.ID)
		if err != nil {
			return err
		}
		seats, err := ResolveSeats(taken, trip.Seats, b.NoOfSeats)
		if err != nil {
			return err
		}

		b.AssignedSeats = seats
		b.Passengers = make([]models.Passenger, len(passengers))
		for i, p := range passengers {
			p.SeatNumber = seats[i]
			b.Passengers[i] = p
		}

		if err := s.Bookings.CreateBooking(ctx, b); err != nil {
			if domain.IsConflict(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

// discardAttempt unwinds a failed attempt so it keeps no seats. Errors here
// are logged only; the reconciler sweeps leftovers.
func (s BookingService) discardAttempt(ctx context.Context, bookingID, tripID int64) {
	if err := s.Bookings.DiscardBooking(ctx, bookingID); err != nil {
		utils.LogEvent("", "booking", "discard", err.Error())
		return
	}
	if _, err := s.Trips.RefreshSeatsAvailable(ctx, tripID); err != nil {
		utils.LogEvent("", "booking", "refresh", err.Error())
	}
}

// reversePayment returns a completed payment whose booking could not be
// confirmed. A card debit is credited back; the payment is marked refunded so
// cash taken at the counter is handed back against a record.
func (s BookingService) reversePayment(ctx context.Context, p models.Payment) {
	if p.Method == models.PaymentMethodCard && p.CardID != nil {
		if err := s.Cards.Credit(ctx, *p.CardID, p.Amount); err != nil {
			utils.LogEvent("", "booking", "refund", err.Error())
			return
		}
	}
	if err := s.Payments.MarkRefunded(ctx, p.ID, p.Amount); err != nil {
		utils.LogEvent("", "booking", "refund", err.Error())
	}
}

// executePayment charges outside the trip lock. Cash completes immediately;
// card looks up the customer's default instrument, verifies balance and debits.
func (s BookingService) executePayment(ctx context.Context, b *models.Booking) (models.Payment, error) {
	payment := models.Payment{
		BookingID: b.ID,
		UserEmail: b.UserEmail,
		Amount:    b.TotalAmount,
		Method:    b.PaymentMethod,
		Status:    models.PaymentPending,
	}

	if b.PaymentMethod == models.PaymentMethodCard {
		card, err := s.Cards.DefaultCard(ctx, b.UserEmail)
		if err != nil {
			if domain.IsNotFound(err) {
				return models.Payment{}, domain.PaymentDeclinedError{Reason: "no default credit card"}
			}
			return models.Payment{}, err
		}
		payment.CardID = &card.ID
		if card.Balance < b.TotalAmount {
			return models.Payment{}, domain.PaymentDeclinedError{Reason: "insufficient balance"}
		}
		if err := s.Payments.CreatePayment(ctx, &payment); err != nil {
			return models.Payment{}, err
		}
		if err := s.Cards.Debit(ctx, card.ID, b.TotalAmount); err != nil {
			_ = s.Payments.SetPaymentStatus(ctx, payment.ID, models.PaymentFailed)
			return models.Payment{}, err
		}
	} else {
		if err := s.Payments.CreatePayment(ctx, &payment); err != nil {
			return models.Payment{}, err
		}
	}

	if err := s.Payments.SetPaymentStatus(ctx, payment.ID, models.PaymentCompleted); err != nil {
		// The money moved but the record did not: credit the debit back and
		// fail the payment, or the customer is charged for nothing.
		if payment.CardID != nil {
			if cerr := s.Cards.Credit(ctx, *payment.CardID, b.TotalAmount); cerr != nil {
				utils.LogEvent("", "booking", "refund", cerr.Error())
			}
		}
		if serr := s.Payments.SetPaymentStatus(ctx, payment.ID, models.PaymentFailed); serr != nil {
			utils.LogEvent("", "booking", "payment", serr.Error())
		}
		return models.Payment{}, err
	}
	payment.Status = models.PaymentCompleted
	return payment, nil
}

func validateInput(in CreateBookingInput) error {
	if in.TripID <= 0 {
		return domain.ValidationError{Field: "tripId", Msg: "invalid id"}
	}
	if in.Seats < 1 {
		return domain.ValidationError{Field: "seats", Msg: "at least one seat required"}
	}
	if len(in.Passengers) != in.Seats {
		return domain.PassengerMismatchError{Seats: in.Seats, Passengers: len(in.Passengers)}
	}
	switch in.PaymentMethod {
	case models.PaymentMethodCash, models.PaymentMethodCard:
	default:
		return domain.ValidationError{Field: "paymentMethod", Msg: "must be cash or card"}
	}
	for _, p := range in.Passengers {
		if strings.TrimSpace(p.FirstName) == "" {
			return domain.ValidationError{Field: "passengers", Msg: "passenger name required"}
		}
	}
	return nil
}
