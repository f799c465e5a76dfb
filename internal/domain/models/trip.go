package models

import "time"

const (
	TripScheduled  = "scheduled"
	TripInProgress = "in-progress"
	TripCompleted  = "completed"
	TripCancelled  = "cancelled"
)

type Trip struct {
	ID          int64     `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Departure   time.Time `json:"departure"`
	Cost        int64     `json:"cost"`
	Seats       int       `json:"seats"`
	Status      string    `json:"status"`

	// SeatsAvailable is a cached, derived value refreshed after committed
	// mutations. Seat assignment is always verified against the ledger at
	// write time; this field is a read optimization only.
	SeatsAvailable int `json:"seatsAvailable"`
}

// Bookable reports whether new bookings may be taken for the trip.
func (t Trip) Bookable() bool {
	return t.Status == TripScheduled
}
