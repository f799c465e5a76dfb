package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "bustix/internal/config"
	"bustix/internal/domain"
	"bustix/internal/domain/models"
)

type TripRepo struct {
	DB *sql.DB
}

func (r TripRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r TripRepo) GetTrip(ctx context.Context, id int64) (models.Trip, error) {
	var t models.Trip
	err := r.db().QueryRowContext(ctx, `
		SELECT id, origin, destination, departure, cost, seats, seats_available, status
		FROM trips
		WHERE id=?`, id).Scan(
		&t.ID, &t.Origin, &t.Destination, &t.Departure,
		&t.Cost, &t.Seats, &t.SeatsAvailable, &t.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip"}
		}
		return models.Trip{}, domain.InternalError{Err: err}
	}
	return t, nil
}

func (r TripRepo) SetTripStatus(ctx context.Context, id int64, status, reason string) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE trips SET status=?, cancel_reason=? WHERE id=?`,
		status, reason, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "trip"}
	}
	return nil
}

// RefreshSeatsAvailable recomputes the cached counter from the seat ledger
// after a committed mutation and returns the fresh value. The counter is never
// used to guard reservations; the ledger is.
func (r TripRepo) RefreshSeatsAvailable(ctx context.Context, id int64) (int, error) {
	db := r.db()
	if _, err := db.ExecContext(ctx, `
		UPDATE trips
		SET seats_available = seats - (SELECT COUNT(*) FROM booking_seats WHERE trip_id=?)
		WHERE id=?`, id, id); err != nil {
		return 0, domain.InternalError{Err: err}
	}

	var available int
	if err := db.QueryRowContext(ctx,
		`SELECT seats_available FROM trips WHERE id=?`, id).Scan(&available); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.NotFoundError{Resource: "trip"}
		}
		return 0, domain.InternalError{Err: err}
	}
	return available, nil
}
