package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	intconfig "bustix/internal/config"
	"bustix/internal/domain"
	"bustix/internal/domain/models"

	"github.com/go-sql-driver/mysql"
)

type BookingRepo struct {
	DB *sql.DB
}

func (r BookingRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// TakenSeats returns the seat numbers currently held for a trip. Seat rows
// exist only for active bookings, so no status filter is needed here.
func (r BookingRepo) TakenSeats(ctx context.Context, tripID int64) ([]int, error) {
	rows, err := r.db().QueryContext(ctx,
		`SELECT seat_number FROM booking_seats WHERE trip_id=? ORDER BY seat_number`, tripID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var seats []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		seats = append(seats, n)
	}
	return seats, rows.Err()
}

// CreateBooking persists the booking and its seat holds in one transaction.
// A duplicate seat hold (unique key on trip_id, seat_number) rolls the whole
// insert back and surfaces as a seat conflict so the caller can re-resolve.
func (r BookingRepo) CreateBooking(ctx context.Context, b *models.Booking) error {
	db := r.db()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	assigned, err := json.Marshal(b.AssignedSeats)
	if err != nil {
		return domain.InternalError{Err: err}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings
			(ref, trip_id, user_email, passengers, no_of_seats, assigned_seats,
			 total_amount, status, booking_type, payment_method, payment_status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.Ref, b.TripID, b.UserEmail, passengers, b.NoOfSeats, assigned,
		b.TotalAmount, b.Status, b.BookingType, b.PaymentMethod, b.PaymentStatus)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}

	for _, seat := range b.AssignedSeats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_seats (trip_id, booking_id, seat_number) VALUES (?,?,?)`,
			b.TripID, id, seat); err != nil {
			if isDuplicateKey(err) {
				return domain.ConflictError{Resource: "seat", Err: err}
			}
			return domain.InternalError{Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}
	b.ID = id
	return nil
}

func (r BookingRepo) GetBooking(ctx context.Context, id int64) (models.Booking, error) {
	var (
		b          models.Booking
		passengers []byte
		assigned   []byte
		paymentID  sql.NullInt64
		cancelled  sql.NullTime
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT id, ref, trip_id, user_email, passengers, no_of_seats, assigned_seats,
		       total_amount, status, booking_type, payment_id, payment_method,
		       payment_status, refund_status, refund_amount, cancelled_by,
		       cancel_reason, cancelled_at, created_at
		FROM bookings
		WHERE id=?`, id).Scan(
		&b.ID, &b.Ref, &b.TripID, &b.UserEmail, &passengers, &b.NoOfSeats, &assigned,
		&b.TotalAmount, &b.Status, &b.BookingType, &paymentID, &b.PaymentMethod,
		&b.PaymentStatus, &b.RefundStatus, &b.RefundAmount, &b.CancelledBy,
		&b.CancelReason, &cancelled, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Booking{}, domain.NotFoundError{Resource: "booking"}
		}
		return models.Booking{}, domain.InternalError{Err: err}
	}

	if len(passengers) > 0 {
		if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
			return models.Booking{}, domain.InternalError{Err: err}
		}
	}
	if len(assigned) > 0 {
		if err := json.Unmarshal(assigned, &b.AssignedSeats); err != nil {
			return models.Booking{}, domain.InternalError{Err: err}
		}
	}
	if paymentID.Valid {
		b.PaymentID = &paymentID.Int64
	}
	if cancelled.Valid {
		t := cancelled.Time
		b.CancelledAt = &t
	}
	return b, nil
}

// ActiveBookings lists the bookings of a trip that still hold seats.
func (r BookingRepo) ActiveBookings(ctx context.Context, tripID int64) ([]models.Booking, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT id FROM bookings
		WHERE trip_id=? AND status NOT IN ('cancelled','company-cancelled','discarded')
		ORDER BY id`, tripID)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}

	bookings := make([]models.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := r.GetBooking(ctx, id)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// ConfirmBooking marks the booking confirmed and paid, linking its payment.
func (r BookingRepo) ConfirmBooking(ctx context.Context, bookingID, paymentID int64) error {
	_, err := r.db().ExecContext(ctx, `
		UPDATE bookings SET status=?, payment_status=?, payment_id=?
		WHERE id=? AND status=?`,
		models.BookingConfirmed, models.BookingPaid, paymentID, bookingID, models.BookingPending)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// DiscardBooking unwinds a failed attempt: the booking leaves the active set
// and its seat holds are deleted, in one transaction.
func (r BookingRepo) DiscardBooking(ctx context.Context, bookingID int64) error {
	return r.releaseSeats(ctx, bookingID, `
		UPDATE bookings SET status=? WHERE id=?`,
		models.BookingDiscarded, bookingID)
}

type CancelUpdate struct {
	BookingID    int64
	Status       string
	CancelledBy  string
	Reason       string
	RefundStatus string
	RefundAmount int64
	CancelledAt  time.Time
}

// MarkCancelled flips a booking to a terminal status and releases its seats.
func (r BookingRepo) MarkCancelled(ctx context.Context, upd CancelUpdate) error {
	return r.releaseSeats(ctx, upd.BookingID, `
		UPDATE bookings
		SET status=?, cancelled_by=?, cancel_reason=?, refund_status=?, refund_amount=?, cancelled_at=?
		WHERE id=?`,
		upd.Status, upd.CancelledBy, upd.Reason, upd.RefundStatus, upd.RefundAmount,
		upd.CancelledAt, upd.BookingID)
}

func (r BookingRepo) releaseSeats(ctx context.Context, bookingID int64, query string, args ...any) error {
	db := r.db()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.InternalError{Err: err}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM booking_seats WHERE booking_id=?`, bookingID); err != nil {
		return domain.InternalError{Err: err}
	}
	if err := tx.Commit(); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func (r BookingRepo) SetRefundStatus(ctx context.Context, bookingID int64, status string) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE bookings SET refund_status=? WHERE id=?`, status, bookingID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
