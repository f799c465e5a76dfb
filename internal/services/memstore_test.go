package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"bustix/internal/domain"
	"bustix/internal/domain/models"
	"bustix/internal/repositories"
)

// memStore implements every store interface in memory with the same
// semantics as the MySQL repositories, including the uniqueness backstop on
// (trip, seat). Safe for concurrent use so the race tests can hammer it.
type memStore struct {
	mu sync.Mutex

	trips    map[int64]models.Trip
	bookings map[int64]models.Booking
	payments map[int64]models.Payment
	cards    map[int64]models.CreditCard

	// seat ledger: tripID -> seat -> bookingID, rows exist only while the
	// booking holds its seats
	seats map[int64]map[int]int64

	nextBookingID int64
	nextPaymentID int64

	// failure injection for the unwind paths
	confirmErr  error // returned by ConfirmBooking
	completeErr error // returned by SetPaymentStatus for the completed status
}

func newMemStore() *memStore {
	return &memStore{
		trips:    map[int64]models.Trip{},
		bookings: map[int64]models.Booking{},
		payments: map[int64]models.Payment{},
		cards:    map[int64]models.CreditCard{},
		seats:    map[int64]map[int]int64{},
	}
}

func (m *memStore) addTrip(t models.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t
}

func (m *memStore) addCard(c models.CreditCard) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[c.ID] = c
}

func (m *memStore) card(id int64) models.CreditCard {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cards[id]
}

func (m *memStore) booking(id int64) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[id]
}

func (m *memStore) payment(id int64) models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

func (m *memStore) seatCount(tripID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seats[tripID])
}

// TripStore

func (m *memStore) GetTrip(_ context.Context, id int64) (models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return models.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}

func (m *memStore) SetTripStatus(_ context.Context, id int64, status, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.Status = status
	m.trips[id] = t
	return nil
}

func (m *memStore) RefreshSeatsAvailable(_ context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return 0, domain.NotFoundError{Resource: "trip"}
	}
	t.SeatsAvailable = t.Seats - len(m.seats[id])
	m.trips[id] = t
	return t.SeatsAvailable, nil
}

// BookingStore

func (m *memStore) TakenSeats(_ context.Context, tripID int64) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for seat := range m.seats[tripID] {
		out = append(out, seat)
	}
	sort.Ints(out)
	return out, nil
}

func (m *memStore) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ledger := m.seats[b.TripID]
	if ledger == nil {
		ledger = map[int]int64{}
		m.seats[b.TripID] = ledger
	}
	for _, seat := range b.AssignedSeats {
		if _, held := ledger[seat]; held {
			return domain.ConflictError{Resource: "seat"}
		}
	}

	m.nextBookingID++
	b.ID = m.nextBookingID
	for _, seat := range b.AssignedSeats {
		ledger[seat] = b.ID
	}
	m.bookings[b.ID] = *b
	return nil
}

func (m *memStore) GetBooking(_ context.Context, id int64) (models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (m *memStore) ActiveBookings(_ context.Context, tripID int64) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if b.TripID == tripID && b.Active() {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ConfirmBooking(_ context.Context, bookingID, paymentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.confirmErr != nil {
		return m.confirmErr
	}
	b, ok := m.bookings[bookingID]
	if !ok || b.Status != models.BookingPending {
		return domain.ConflictError{Resource: "booking", Msg: "not pending"}
	}
	b.Status = models.BookingConfirmed
	b.PaymentStatus = models.BookingPaid
	b.PaymentID = &paymentID
	m.bookings[bookingID] = b
	return nil
}

func (m *memStore) DiscardBooking(_ context.Context, bookingID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.Status = models.BookingDiscarded
	m.bookings[bookingID] = b
	m.releaseSeatsLocked(b)
	return nil
}

func (m *memStore) MarkCancelled(_ context.Context, upd repositories.CancelUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[upd.BookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.Status = upd.Status
	b.CancelledBy = upd.CancelledBy
	b.CancelReason = upd.Reason
	b.RefundStatus = upd.RefundStatus
	b.RefundAmount = upd.RefundAmount
	at := upd.CancelledAt
	b.CancelledAt = &at
	m.bookings[upd.BookingID] = b
	m.releaseSeatsLocked(b)
	return nil
}

func (m *memStore) SetRefundStatus(_ context.Context, bookingID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.RefundStatus = status
	m.bookings[bookingID] = b
	return nil
}

func (m *memStore) releaseSeatsLocked(b models.Booking) {
	ledger := m.seats[b.TripID]
	for seat, owner := range ledger {
		if owner == b.ID {
			delete(ledger, seat)
		}
	}
}

// PaymentStore

func (m *memStore) CreatePayment(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextPaymentID++
	p.ID = m.nextPaymentID
	p.CreatedAt = time.Now()
	m.payments[p.ID] = *p
	return nil
}

func (m *memStore) GetPayment(_ context.Context, id int64) (models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, nil
}

func (m *memStore) SetPaymentStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status == models.PaymentCompleted && m.completeErr != nil {
		return m.completeErr
	}
	p, ok := m.payments[id]
	if !ok {
		return domain.NotFoundError{Resource: "payment"}
	}
	p.Status = status
	m.payments[id] = p
	return nil
}

func (m *memStore) MarkRefunded(_ context.Context, id int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return domain.NotFoundError{Resource: "payment"}
	}
	now := time.Now()
	p.Status = models.PaymentRefunded
	p.RefundAmount = amount
	p.RefundedAt = &now
	m.payments[id] = p
	return nil
}

func (m *memStore) FailStalePending(_ context.Context, cutoff time.Time) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for id, p := range m.payments {
		if p.Status == models.PaymentPending && p.CreatedAt.Before(cutoff) {
			p.Status = models.PaymentFailed
			m.payments[id] = p
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CardStore

func (m *memStore) DefaultCard(_ context.Context, userEmail string) (models.CreditCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.UserEmail == userEmail && c.IsDefault {
			return c, nil
		}
	}
	return models.CreditCard{}, domain.NotFoundError{Resource: "credit card"}
}

func (m *memStore) Debit(_ context.Context, cardID int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return domain.NotFoundError{Resource: "credit card"}
	}
	if c.Balance < amount {
		return domain.PaymentDeclinedError{Reason: "insufficient balance"}
	}
	c.Balance -= amount
	m.cards[cardID] = c
	return nil
}

func (m *memStore) Credit(_ context.Context, cardID int64, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok {
		return domain.NotFoundError{Resource: "credit card"}
	}
	c.Balance += amount
	m.cards[cardID] = c
	return nil
}
