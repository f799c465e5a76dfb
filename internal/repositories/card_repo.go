package repositories

import (
	"context"
	"database/sql"
	"errors"

	intconfig "bustix/internal/config"
	"bustix/internal/domain"
	"bustix/internal/domain/models"
)

type CardRepo struct {
	DB *sql.DB
}

func (r CardRepo) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r CardRepo) DefaultCard(ctx context.Context, userEmail string) (models.CreditCard, error) {
	var c models.CreditCard
	err := r.db().QueryRowContext(ctx, `
		SELECT id, user_email, brand, last4, balance, is_default
		FROM credit_cards
		WHERE user_email=? AND is_default=1
		LIMIT 1`, userEmail).Scan(
		&c.ID, &c.UserEmail, &c.Brand, &c.Last4, &c.Balance, &c.IsDefault,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.CreditCard{}, domain.NotFoundError{Resource: "credit card"}
		}
		return models.CreditCard{}, domain.InternalError{Err: err}
	}
	return c, nil
}

// Debit charges the card only when the balance covers the amount; the
// conditional update makes the balance check and the write one statement.
func (r CardRepo) Debit(ctx context.Context, cardID int64, amount int64) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE credit_cards SET balance = balance - ?
		WHERE id=? AND balance >= ?`, amount, cardID, amount)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.PaymentDeclinedError{Reason: "insufficient balance"}
	}
	return nil
}

func (r CardRepo) Credit(ctx context.Context, cardID int64, amount int64) error {
	res, err := r.db().ExecContext(ctx, `
		UPDATE credit_cards SET balance = balance + ? WHERE id=?`, amount, cardID)
	if err != nil {
		return domain.InternalError{Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "credit card"}
	}
	return nil
}
