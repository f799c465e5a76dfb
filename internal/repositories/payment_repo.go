package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intconfig "bustix/internal/config"
	"bustix/internal/domain"
	"bustix/internal/domain/models"
)

type PaymentRepo struct {
	DB *sql.DB
}

func (r PaymentRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r PaymentRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO payments (booking_id, user_email, amount, method, status, card_id)
		VALUES (?,?,?,?,?,?)`,
		p.BookingID, p.UserEmail, p.Amount, p.Method, p.Status, p.CardID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.InternalError{Err: err}
	}
	p.ID = id
	return nil
}

func (r PaymentRepo) GetPayment(ctx context.Context, id int64) (models.Payment, error) {
	var (
		p        models.Payment
		cardID   sql.NullInt64
		refunded sql.NullTime
	)
	err := r.db().QueryRowContext(ctx, `
		SELECT id, booking_id, user_email, amount, method, status, card_id,
		       refund_amount, refunded_at, created_at
		FROM payments
		WHERE id=?`, id).Scan(
		&p.ID, &p.BookingID, &p.UserEmail, &p.Amount, &p.Method, &p.Status,
		&cardID, &p.RefundAmount, &refunded, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, domain.NotFoundError{Resource: "payment"}
		}
		return models.Payment{}, domain.InternalError{Err: err}
	}
	if cardID.Valid {
		p.CardID = &cardID.Int64
	}
	if refunded.Valid {
		t := refunded.Time
		p.RefundedAt = &t
	}
	return p, nil
}

func (r PaymentRepo) SetPaymentStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db().ExecContext(ctx,
		`UPDATE payments SET status=? WHERE id=?`, status, id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

func (r PaymentRepo) MarkRefunded(ctx context.Context, id int64, amount int64) error {
	_, err := r.db().ExecContext(ctx, `
		UPDATE payments SET status=?, refund_amount=?, refunded_at=?
		WHERE id=?`, models.PaymentRefunded, amount, time.Now(), id)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// FailStalePending flips payments stuck in pending past the cutoff to failed
// and returns them so the reconciler can unwind their bookings.
func (r PaymentRepo) FailStalePending(ctx context.Context, cutoff time.Time) ([]models.Payment, error) {
	db := r.db()
	rows, err := db.QueryContext(ctx, `
		SELECT id, booking_id, user_email, amount, method, status, created_at
		FROM payments
		WHERE status=? AND created_at < ?`, models.PaymentPending, cutoff)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	var stale []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.UserEmail, &p.Amount,
			&p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		stale = append(stale, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.InternalError{Err: err}
	}

	for i := range stale {
		if _, err := db.ExecContext(ctx,
			`UPDATE payments SET status=? WHERE id=? AND status=?`,
			models.PaymentFailed, stale[i].ID, models.PaymentPending); err != nil {
			return nil, domain.InternalError{Err: err}
		}
		stale[i].Status = models.PaymentFailed
	}
	return stale, nil
}
