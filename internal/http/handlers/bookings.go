package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
	"bustix/internal/http/middleware"
	"bustix/internal/services"
	"bustix/internal/utils"
)

type passengerPayload struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type createBookingPayload struct {
	TripID        int64              `json:"tripId"`
	NoOfSeats     int                `json:"noOfSeats"`
	Passengers    []passengerPayload `json:"passengers"`
	PaymentMethod string             `json:"paymentMethod"`
	// CustomerEmail is only honored on the counter endpoint.
	CustomerEmail string `json:"customerEmail"`
}

type cancelBookingPayload struct {
	Reason string `json:"reason"`
}

// BookingHandlers serves the booking lifecycle endpoints.
type BookingHandlers struct {
	Bookings services.BookingService
	Refunds  services.RefundService
}

// Create takes an online booking for the authenticated customer.
func (h BookingHandlers) Create(c *gin.Context) {
	h.create(c, models.BookingTypeOnline)
}

// CreateCounter takes a walk-in booking on a customer's behalf.
func (h BookingHandlers) CreateCounter(c *gin.Context) {
	h.create(c, models.BookingTypeCounter)
}

func (h BookingHandlers) create(c *gin.Context, bookingType string) {
	requestID := middleware.GetRequestID(c)

	var payload createBookingPayload
	if !BindJSONOrError(c, &payload) {
		return
	}

	actor := middleware.GetActor(c)
	in := services.CreateBookingInput{
		TripID:        payload.TripID,
		Seats:         payload.NoOfSeats,
		PaymentMethod: payload.PaymentMethod,
		BookingType:   bookingType,
		Actor:         actor,
	}
	for _, p := range payload.Passengers {
		in.Passengers = append(in.Passengers, models.Passenger{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Phone:     p.Phone,
		})
	}
	if bookingType == models.BookingTypeCounter {
		in.UserEmail = payload.CustomerEmail
	}

	booking, err := h.Bookings.CreateBooking(c.Request.Context(), in)
	if err != nil {
		RespondDomainError(c, requestID, "bookings", err)
		return
	}

	utils.LogEvent(requestID, "bookings", "created",
		"booking "+booking.Ref+" trip "+strconv.FormatInt(booking.TripID, 10))
	respondOK(c, http.StatusCreated, booking)
}

// Cancel cancels a booking and settles its refund.
func (h BookingHandlers) Cancel(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondDomainError(c, requestID, "bookings", domain.ValidationError{Field: "id", Msg: "must be numeric"})
		return
	}

	var payload cancelBookingPayload
	if c.Request.ContentLength > 0 {
		if !BindJSONOrError(c, &payload) {
			return
		}
	}

	booking, err := h.Refunds.CancelBooking(c.Request.Context(), id, middleware.GetActor(c), payload.Reason)
	if err != nil {
		RespondDomainError(c, requestID, "bookings", err)
		return
	}

	utils.LogEvent(requestID, "bookings", "cancelled",
		"booking "+booking.Ref+" refund "+booking.RefundStatus)
	respondOK(c, http.StatusOK, booking)
}

// ConfirmRefund marks a pending cash refund as paid out at the counter.
func (h BookingHandlers) ConfirmRefund(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondDomainError(c, requestID, "bookings", domain.ValidationError{Field: "id", Msg: "must be numeric"})
		return
	}

	booking, err := h.Refunds.ConfirmCashRefund(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		RespondDomainError(c, requestID, "bookings", err)
		return
	}

	utils.LogEvent(requestID, "bookings", "refund-confirmed", "booking "+booking.Ref)
	respondOK(c, http.StatusOK, booking)
}
