package postgres

import (
	"context"

	"github.com/fastpay/fastpay-backend/internal/models"
	"github.com/google/uuid"
)

// ledgerRepo only ever inserts and reads. There is deliberately no update or
// delete statement in this file.
type ledgerRepo struct{ db DB }

func (r *ledgerRepo) Append(ctx context.Context, e models.TransactionLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.Exec(ctx, `
INSERT INTO transaction_log (id, payment_id, stage, status, details)
VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.PaymentID, e.Stage, e.Status, e.Details)
	return err
}

func (r *ledgerRepo) ListByPayment(ctx context.Context, paymentID string) ([]models.TransactionLogEntry, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, payment_id, stage, status, details, created_at
  FROM transaction_log
 WHERE payment_id=$1
 ORDER BY created_at`,
		paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TransactionLogEntry
	for rows.Next() {
		var e models.TransactionLogEntry
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Stage, &e.Status, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
