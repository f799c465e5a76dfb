package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced in API envelopes. Internal error text never crosses
// the boundary; only the kind plus the structured context on each type.
const (
	KindCapacityExceeded     = "CapacityExceeded"
	KindTripUnavailable      = "TripUnavailable"
	KindPassengerMismatch    = "PassengerMismatch"
	KindPaymentDeclined      = "PaymentDeclined"
	KindRefundWindow         = "RefundWindowViolation"
	KindAlreadyTerminal      = "AlreadyTerminal"
	KindConnectionThrottled  = "ConnectionThrottled"
	KindRoomJoinThrottled    = "RoomJoinThrottled"
	KindAlreadyBlocked       = "AlreadyBlocked"
	KindValidation           = "ValidationError"
	KindNotFound             = "NotFound"
	KindConflict             = "Conflict"
	KindInternal             = "InternalError"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// CapacityError is returned when a trip has fewer free seats than requested.
type CapacityError struct {
	Requested int
	Available int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("only %d seat(s) available, %d requested", e.Available, e.Requested)
}

// TripUnavailableError rejects booking attempts against trips that are not
// open for sale (cancelled, in-progress, completed).
type TripUnavailableError struct {
	Status string
}

func (e TripUnavailableError) Error() string {
	return fmt.Sprintf("trip is %s and cannot be booked", e.Status)
}

// PassengerMismatchError rejects requests whose passenger list does not match
// the requested seat count.
type PassengerMismatchError struct {
	Seats      int
	Passengers int
}

func (e PassengerMismatchError) Error() string {
	return fmt.Sprintf("%d passenger(s) given for %d seat(s)", e.Passengers, e.Seats)
}

// PaymentDeclinedError is terminal for one booking attempt; the booking is
// discarded and no seats stay reserved.
type PaymentDeclinedError struct {
	Reason string
}

func (e PaymentDeclinedError) Error() string {
	if e.Reason == "" {
		return "payment declined"
	}
	return "payment declined: " + e.Reason
}

// RefundWindowError rejects customer cancellations too close to departure.
type RefundWindowError struct {
	HoursUntilDeparture float64
}

func (e RefundWindowError) Error() string {
	return fmt.Sprintf("cannot cancel within the refund window (%.0f hour(s) until departure)", e.HoursUntilDeparture)
}

// AlreadyTerminalError rejects state changes on bookings that already reached
// a terminal status.
type AlreadyTerminalError struct {
	Status string
}

func (e AlreadyTerminalError) Error() string {
	return fmt.Sprintf("booking is already %s", e.Status)
}

// ThrottleError covers all governor rejections. Kind is one of
// KindConnectionThrottled, KindRoomJoinThrottled, KindAlreadyBlocked.
type ThrottleError struct {
	Kind             string
	Reason           string
	RemainingSeconds int
}

func (e ThrottleError) Error() string {
	if e.RemainingSeconds > 0 {
		return fmt.Sprintf("%s: retry in %ds", e.Reason, e.RemainingSeconds)
	}
	return e.Reason
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// Kind classifies any error into an envelope error kind.
func Kind(err error) string {
	var (
		capErr      CapacityError
		tripErr     TripUnavailableError
		paxErr      PassengerMismatchError
		payErr      PaymentDeclinedError
		windowErr   RefundWindowError
		terminalErr AlreadyTerminalError
		throttleErr ThrottleError
		notFound    NotFoundError
		validation  ValidationError
		conflict    ConflictError
	)
	switch {
	case errors.As(err, &capErr):
		return KindCapacityExceeded
	case errors.As(err, &tripErr):
		return KindTripUnavailable
	case errors.As(err, &paxErr):
		return KindPassengerMismatch
	case errors.As(err, &payErr):
		return KindPaymentDeclined
	case errors.As(err, &windowErr):
		return KindRefundWindow
	case errors.As(err, &terminalErr):
		return KindAlreadyTerminal
	case errors.As(err, &throttleErr):
		return throttleErr.Kind
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &conflict):
		return KindConflict
	default:
		return KindInternal
	}
}
