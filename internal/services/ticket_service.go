package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
	"bustix/internal/utils"
)

// TicketService renders e-tickets for confirmed bookings.
type TicketService struct {
	Trips    TripStore
	Bookings BookingStore
}

// GenerateETicket returns the PDF bytes and a download filename. Customers
// can only fetch tickets for their own bookings.
func (s TicketService) GenerateETicket(ctx context.Context, bookingID int64, actor Actor) ([]byte, string, error) {
	booking, err := s.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if actor.Role == RoleCustomer && booking.UserEmail != actor.Email {
		return nil, "", domain.NotFoundError{Resource: "booking"}
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		return nil, "", domain.ValidationError{Msg: "ticket available for confirmed bookings only"}
	}

	trip, err := s.Trips.GetTrip(ctx, booking.TripID)
	if err != nil {
		return nil, "", err
	}
	return buildETicketPDF(trip, booking)
}

func buildETicketPDF(trip models.Trip, booking models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking Ref  : %s", booking.Ref),
		fmt.Sprintf("Route        : %s -> %s", trip.Origin, trip.Destination),
		fmt.Sprintf("Departure    : %s", trip.Departure.Format("2006-01-02 15:04")),
		fmt.Sprintf("Seats        : %s", formatSeats(booking.AssignedSeats)),
		fmt.Sprintf("Total        : %s", utils.FormatAmount(booking.TotalAmount)),
		fmt.Sprintf("Payment      : %s (%s)", booking.PaymentMethod, booking.PaymentStatus),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passengers")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	for _, p := range booking.Passengers {
		pdf.Cell(0, 7, fmt.Sprintf("Seat %d: %s %s (%s)", p.SeatNumber, p.FirstName, p.LastName, p.Phone))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please present this ticket at boarding. Each assigned seat admits one passenger.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", domain.InternalError{Msg: "eticket render failed", Err: err}
	}

	filename := fmt.Sprintf("ETICKET_%s.pdf", booking.Ref)
	return buf.Bytes(), filename, nil
}

func formatSeats(seats []int) string {
	var b bytes.Buffer
	for i, s := range seats {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d", s)
	}
	return b.String()
}
