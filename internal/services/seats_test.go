package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
)

func TestResolveSeatsLowestFirst(t *testing.T) {
	seats, err := ResolveSeats([]int{1, 3, 4}, 10, 3)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	want := []int{2, 5, 6}
	if !reflect.DeepEqual(seats, want) {
		t.Fatalf("seats = %v, want %v", seats, want)
	}
}

func TestResolveSeatsEmptyTrip(t *testing.T) {
	seats, err := ResolveSeats(nil, 4, 4)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	want := []int{1, 2, 3, 4}
	if !reflect.DeepEqual(seats, want) {
		t.Fatalf("seats = %v, want %v", seats, want)
	}
}

func TestResolveSeatsCapacityExceeded(t *testing.T) {
	_, err := ResolveSeats([]int{1, 2}, 3, 2)
	var capErr domain.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("error = %v, want CapacityError", err)
	}
	if capErr.Requested != 2 || capErr.Available != 1 {
		t.Fatalf("capacity error = %+v", capErr)
	}
}

func TestResolveSeatsReusesReleasedSeat(t *testing.T) {
	// a cancelled booking's seat must be the next one handed out
	seats, err := ResolveSeats([]int{2}, 2, 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if !reflect.DeepEqual(seats, []int{1}) {
		t.Fatalf("seats = %v, want [1]", seats)
	}
}

func TestResolveSeatsRejectsZeroCount(t *testing.T) {
	if _, err := ResolveSeats(nil, 10, 0); !domain.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestAvailableSeatsDerivedFromLedger(t *testing.T) {
	store := newMemStore()
	store.addTrip(models.Trip{ID: 7, Seats: 5, Status: models.TripScheduled, SeatsAvailable: 99})

	store.mu.Lock()
	store.seats[7] = map[int]int64{2: 1, 4: 1}
	store.mu.Unlock()

	svc := SeatService{Trips: store, Bookings: store}
	avail, err := svc.AvailableSeats(context.Background(), 7)
	if err != nil {
		t.Fatalf("available seats error: %v", err)
	}
	if !reflect.DeepEqual(avail.AvailableSeats, []int{1, 3, 5}) {
		t.Fatalf("available = %v, want [1 3 5]", avail.AvailableSeats)
	}
	if avail.AvailableCount != 3 || avail.Capacity != 5 {
		t.Fatalf("availability = %+v", avail)
	}
}

func TestAvailableSeatsUnknownTrip(t *testing.T) {
	svc := SeatService{Trips: newMemStore(), Bookings: newMemStore()}
	if _, err := svc.AvailableSeats(context.Background(), 404); !domain.IsNotFound(err) {
		t.Fatalf("error = %v, want not found", err)
	}
}
