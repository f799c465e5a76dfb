package services

import (
	"context"
	"fmt"
	"time"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
	"bustix/internal/repositories"
	"bustix/internal/utils"
)

type RefundService struct {
	Trips    TripStore
	Bookings BookingStore
	Payments PaymentStore
	Cards    CardStore
	Events   EventSink

	RefundWindow          time.Duration
	CustomerRefundPercent int

	Now func() time.Time
}

func (s RefundService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s RefundService) events() EventSink {
	if s.Events != nil {
		return s.Events
	}
	return NopSink{}
}

func (s RefundService) refundWindow() time.Duration {
	if s.RefundWindow > 0 {
		return s.RefundWindow
	}
	return 48 * time.Hour
}

func (s RefundService) customerPercent() int {
	if s.CustomerRefundPercent > 0 {
		return s.CustomerRefundPercent
	}
	return 90
}

// CancelBooking reverses one booking: terminal and refund-window checks,
// refund credit, then the status flip that releases the seats. Card refunds
// complete automatically; cash refunds stay pending until a staff member
// confirms the payout (ConfirmCashRefund).
func (s RefundService) CancelBooking(ctx context.Context, bookingID int64, initiator Actor, reason string) (models.Booking, error) {
	booking, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.Terminal() {
		return models.Booking{}, domain.AlreadyTerminalError{Status: booking.Status}
	}

	trip, err := s.Trips.GetTrip(ctx, booking.TripID)
	if err != nil {
		return models.Booking{}, err
	}

	status := models.BookingCompanyCancelled
	cancelledBy := "company"
	percent := 100

	if initiator.Role == RoleCustomer {
		if booking.UserEmail != initiator.Email {
			return models.Booking{}, domain.NotFoundError{Resource: "booking"}
		}
		untilDeparture := trip.Departure.Sub(s.now())
		if untilDeparture <= s.refundWindow() {
			return models.Booking{}, domain.RefundWindowError{
				HoursUntilDeparture: untilDeparture.Hours(),
			}
		}
		status = models.BookingCancelled
		cancelledBy = "customer"
		percent = s.customerPercent()
	}

	refundAmount := booking.TotalAmount * int64(percent) / 100
	refundStatus, err := s.creditRefund(ctx, booking, refundAmount)
	if err != nil {
		// Refund failure never blocks the cancellation itself; the booking is
		// released with refund_status=failed for manual follow-up.
		utils.LogEvent("", "refund", "credit", err.Error())
		refundStatus = models.RefundFailed
	}

	upd := repositories.CancelUpdate{
		BookingID:    bookingID,
		Status:       status,
		CancelledBy:  cancelledBy,
		Reason:       reason,
		RefundStatus: refundStatus,
		RefundAmount: refundAmount,
		CancelledAt:  s.now(),
	}
	if err := s.Bookings.MarkCancelled(ctx, upd); err != nil {
		return models.Booking{}, err
	}

	booking.Status = status
	booking.CancelledBy = cancelledBy
	booking.CancelReason = reason
	booking.RefundStatus = refundStatus
	booking.RefundAmount = refundAmount

	available, err := s.Trips.RefreshSeatsAvailable(ctx, booking.TripID)
	if err != nil {
		utils.LogEvent("", "refund", "refresh", err.Error())
		available = trip.SeatsAvailable + booking.NoOfSeats
	}
	s.events().PublishBookingUpdate(booking.TripID, available, nil)

	return booking, nil
}

// creditRefund returns the refund sub-state reached. Unpaid bookings need no
// refund at all.
func (s RefundService) creditRefund(ctx context.Context, booking models.Booking, amount int64) (string, error) {
	if booking.PaymentStatus != models.BookingPaid || booking.PaymentID == nil {
		return models.RefundNone, nil
	}

	payment, err := s.Payments.GetPayment(ctx, *booking.PaymentID)
	if err != nil {
		return models.RefundFailed, err
	}

	switch payment.Method {
	case models.PaymentMethodCard:
		if payment.CardID == nil {
			return models.RefundFailed, fmt.Errorf("payment %d has no card reference", payment.ID)
		}
		if err := s.Cards.Credit(ctx, *payment.CardID, amount); err != nil {
			return models.RefundFailed, err
		}
		if err := s.Payments.MarkRefunded(ctx, payment.ID, amount); err != nil {
			return models.RefundFailed, err
		}
		return models.RefundProcessed, nil
	case models.PaymentMethodCash:
		// Cash leaves the till by hand; the refund stays pending until staff
		// confirm the payout.
		return models.RefundPending, nil
	default:
		return models.RefundFailed, fmt.Errorf("unknown payment method %q", payment.Method)
	}
}

// ConfirmCashRefund completes a pending cash refund after staff have paid the
// customer at the counter.
func (s RefundService) ConfirmCashRefund(ctx context.Context, bookingID int64, staff Actor) (models.Booking, error) {
	if staff.Role != RoleStaff && staff.Role != RoleManager {
		return models.Booking{}, domain.ValidationError{Field: "initiator", Msg: "staff only"}
	}

	booking, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if booking.RefundStatus != models.RefundPending {
		return models.Booking{}, domain.ConflictError{Resource: "refund", Msg: "no pending cash refund"}
	}
	if booking.PaymentID == nil {
		return models.Booking{}, domain.NotFoundError{Resource: "payment"}
	}

	if err := s.Payments.MarkRefunded(ctx, *booking.PaymentID, booking.RefundAmount); err != nil {
		return models.Booking{}, err
	}
	if err := s.Bookings.SetRefundStatus(ctx, bookingID, models.RefundProcessed); err != nil {
		return models.Booking{}, err
	}
	booking.RefundStatus = models.RefundProcessed
	return booking, nil
}

// CancelOutcome records the result of one booking inside a trip-wide cascade.
type CancelOutcome struct {
	BookingID    int64  `json:"bookingId"`
	Success      bool   `json:"success"`
	RefundStatus string `json:"refundStatus,omitempty"`
	ErrorKind    string `json:"errorKind,omitempty"`
	Message      string `json:"message,omitempty"`
}

// CancelTrip cancels every active booking of a trip, best effort: a failed
// refund on one booking never stops the rest. The per-booking outcomes go
// back to the caller, and the trip flips to cancelled afterward.
func (s RefundService) CancelTrip(ctx context.Context, tripID int64, initiator Actor, reason string) ([]CancelOutcome, error) {
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.Bookable() {
		return nil, domain.TripUnavailableError{Status: trip.Status}
	}

	bookings, err := s.Bookings.ActiveBookings(ctx, tripID)
	if err != nil {
		return nil, err
	}

	company := Actor{Email: initiator.Email, Role: RoleManager}
	outcomes := make([]CancelOutcome, 0, len(bookings))
	for _, b := range bookings {
		cancelled, err := s.CancelBooking(ctx, b.ID, company, reason)
		if err != nil {
			outcomes = append(outcomes, CancelOutcome{
				BookingID: b.ID,
				Success:   false,
				ErrorKind: domain.Kind(err),
				Message:   err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, CancelOutcome{
			BookingID:    b.ID,
			Success:      true,
			RefundStatus: cancelled.RefundStatus,
		})
	}

	if err := s.Trips.SetTripStatus(ctx, tripID, models.TripCancelled, reason); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}
