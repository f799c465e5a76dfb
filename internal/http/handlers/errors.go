package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bustix/internal/domain"
	"bustix/internal/utils"
)

// RespondDomainError maps a service error onto the response envelope.
// Contextual fields (available seats, block duration, refund window) ride
// alongside the kind so the client does not have to parse the message.
func RespondDomainError(c *gin.Context, requestID, module string, err error) {
	kind := domain.Kind(err)
	status := http.StatusInternalServerError
	body := gin.H{
		"success":   false,
		"errorKind": kind,
		"message":   err.Error(),
	}

	var capErr domain.CapacityError
	var unavailErr domain.TripUnavailableError
	var mismatchErr domain.PassengerMismatchError
	var declinedErr domain.PaymentDeclinedError
	var windowErr domain.RefundWindowError
	var terminalErr domain.AlreadyTerminalError
	var throttleErr domain.ThrottleError

	switch {
	case errors.As(err, &capErr):
		status = http.StatusConflict
		body["requestedSeats"] = capErr.Requested
		body["availableSeats"] = capErr.Available
	case errors.As(err, &unavailErr):
		status = http.StatusConflict
		body["tripStatus"] = unavailErr.Status
	case errors.As(err, &mismatchErr):
		status = http.StatusBadRequest
		body["seats"] = mismatchErr.Seats
		body["passengers"] = mismatchErr.Passengers
	case errors.As(err, &declinedErr):
		status = http.StatusPaymentRequired
		body["reason"] = declinedErr.Reason
	case errors.As(err, &windowErr):
		status = http.StatusConflict
		body["hoursUntilDeparture"] = windowErr.HoursUntilDeparture
	case errors.As(err, &terminalErr):
		status = http.StatusConflict
		body["bookingStatus"] = terminalErr.Status
	case errors.As(err, &throttleErr):
		status = http.StatusTooManyRequests
		body["reason"] = throttleErr.Reason
		body["remainingSeconds"] = throttleErr.RemainingSeconds
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case domain.IsConflict(err):
		status = http.StatusConflict
	default:
		utils.LogEvent(requestID, module, "error", err.Error())
	}

	c.JSON(status, body)
}
