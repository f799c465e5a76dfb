package services

import (
	"context"

	"bustix/internal/domain"
)

// ResolveSeats picks the lowest-numbered free seats, ascending. Deterministic
// and side-effect free; callers must run it inside the same critical section
// as the reservation write.
func ResolveSeats(taken []int, capacity, count int) ([]int, error) {
	if count < 1 {
		return nil, domain.ValidationError{Field: "seats", Msg: "at least one seat required"}
	}

	held := make(map[int]bool, len(taken))
	for _, s := range taken {
		held[s] = true
	}

	seats := make([]int, 0, count)
	for n := 1; n <= capacity && len(seats) < count; n++ {
		if !held[n] {
			seats = append(seats, n)
		}
	}
	if len(seats) < count {
		return nil, domain.CapacityError{Requested: count, Available: len(seats)}
	}
	return seats, nil
}

// SeatService answers availability reads. It derives availability from the
// seat ledger, never from the cached counter on the trip row.
type SeatService struct {
	Trips    TripStore
	Bookings BookingStore
}

type SeatAvailability struct {
	TripID         int64 `json:"tripId"`
	Capacity       int   `json:"capacity"`
	AvailableSeats []int `json:"availableSeats"`
	AvailableCount int   `json:"availableCount"`
}

func (s SeatService) AvailableSeats(ctx context.Context, tripID int64) (SeatAvailability, error) {
	trip, err := s.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return SeatAvailability{}, err
	}

	taken, err := s.Bookings.TakenSeats(ctx, tripID)
	if err != nil {
		return SeatAvailability{}, err
	}

	held := make(map[int]bool, len(taken))
	for _, n := range taken {
		held[n] = true
	}
	free := make([]int, 0, trip.Seats)
	for n := 1; n <= trip.Seats; n++ {
		if !held[n] {
			free = append(free, n)
		}
	}

	return SeatAvailability{
		TripID:         tripID,
		Capacity:       trip.Seats,
		AvailableSeats: free,
		AvailableCount: len(free),
	}, nil
}
