package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bustix/internal/domain"
	"bustix/internal/http/middleware"
	"bustix/internal/services"
	"bustix/internal/utils"
)

type cancelTripPayload struct {
	Reason string `json:"reason"`
}

// TripHandlers serves trip-level operations.
type TripHandlers struct {
	Seats   services.SeatService
	Refunds services.RefundService
}

// AvailableSeats lists the free seat numbers of a trip, derived from the
// seat ledger rather than the cached counter.
func (h TripHandlers) AvailableSeats(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondDomainError(c, requestID, "trips", domain.ValidationError{Field: "id", Msg: "must be numeric"})
		return
	}

	avail, err := h.Seats.AvailableSeats(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, requestID, "trips", err)
		return
	}
	respondOK(c, http.StatusOK, avail)
}

// Cancel cancels a trip and walks every active booking through the company
// cancellation path. Per-booking failures are reported, not fatal.
func (h TripHandlers) Cancel(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondDomainError(c, requestID, "trips", domain.ValidationError{Field: "id", Msg: "must be numeric"})
		return
	}

	var payload cancelTripPayload
	if c.Request.ContentLength > 0 {
		if !BindJSONOrError(c, &payload) {
			return
		}
	}

	outcomes, err := h.Refunds.CancelTrip(c.Request.Context(), id, middleware.GetActor(c), payload.Reason)
	if err != nil {
		RespondDomainError(c, requestID, "trips", err)
		return
	}

	failed := 0
	for _, o := range outcomes {
		if !o.Success {
			failed++
		}
	}
	utils.LogEvent(requestID, "trips", "cancelled",
		"trip "+strconv.FormatInt(id, 10)+" bookings "+strconv.Itoa(len(outcomes))+" failed "+strconv.Itoa(failed))

	respondOK(c, http.StatusOK, gin.H{
		"tripId":   id,
		"total":    len(outcomes),
		"failed":   failed,
		"outcomes": outcomes,
	})
}
