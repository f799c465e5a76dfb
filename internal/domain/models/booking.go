package models

import "time"

const (
	BookingPending          = "pending"
	BookingConfirmed        = "confirmed"
	BookingCancelled        = "cancelled"
	BookingCompleted        = "completed"
	BookingCompanyCancelled = "company-cancelled"
	BookingDiscarded        = "discarded"
)

const (
	BookingTypeOnline  = "online"
	BookingTypeCounter = "counter"
)

// payment_status values on the booking row.
const (
	BookingUnpaid = "pending"
	BookingPaid   = "paid"
)

const (
	RefundNone      = ""
	RefundPending   = "pending"
	RefundProcessed = "processed"
	RefundFailed    = "failed"
)

type Passenger struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Phone      string `json:"phone"`
	SeatNumber int    `json:"seatNumber"`
}

type Booking struct {
	ID          int64       `json:"id"`
	Ref         string      `json:"ref"`
	TripID      int64       `json:"tripId"`
	UserEmail   string      `json:"userEmail"`
	Passengers  []Passenger `json:"passengers"`
	NoOfSeats   int         `json:"noOfSeats"`
	// AssignedSeats is ordered ascending; its length always equals NoOfSeats
	// and no seat repeats across active bookings of the same trip.
	AssignedSeats []int  `json:"assignedSeats"`
	TotalAmount   int64  `json:"totalAmount"`
	Status        string `json:"status"`
	BookingType   string `json:"bookingType"`

	PaymentID     *int64 `json:"paymentId,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
	PaymentStatus string `json:"paymentStatus"`

	RefundStatus string `json:"refundStatus,omitempty"`
	RefundAmount int64  `json:"refundAmount,omitempty"`

	CancelledBy     string     `json:"cancelledBy,omitempty"`
	CancelReason    string     `json:"cancelReason,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Active reports whether the booking still holds its seats.
func (b Booking) Active() bool {
	switch b.Status {
	case BookingCancelled, BookingCompanyCancelled, BookingDiscarded:
		return false
	}
	return true
}

// Terminal reports whether the booking can no longer change state.
func (b Booking) Terminal() bool {
	switch b.Status {
	case BookingCancelled, BookingCompanyCancelled, BookingDiscarded:
		return true
	}
	return false
}
