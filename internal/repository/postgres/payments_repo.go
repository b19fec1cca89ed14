package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type paymentsRepo struct{ db DB }

const paymentColumns = `id, merchant_id, customer_id, amount, currency, status,
	risk_score, settlement_rail, settlement_response, error_message, created_at, completed_at`

func (r *paymentsRepo) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = models.PaymentPending
	}
	err := r.db.QueryRow(ctx, `
INSERT INTO payments (id, merchant_id, customer_id, amount, currency, status)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`,
		p.ID, p.MerchantID, p.CustomerID, p.Amount, p.Currency, p.Status,
	).Scan(&p.CreatedAt)
	return p, err
}

func (r *paymentsRepo) GetByID(ctx context.Context, id string) (models.Payment, error) {
	var p models.Payment
	err := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id).Scan(
		&p.ID, &p.MerchantID, &p.CustomerID, &p.Amount, &p.Currency, &p.Status,
		&p.RiskScore, &p.SettlementRail, &p.SettlementResponse, &p.ErrorMessage,
		&p.CreatedAt, &p.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Payment{}, repo.ErrNotFound
	}
	return p, err
}

func (r *paymentsRepo) SetStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET status=$2 WHERE id=$1`, id, status)
	return err
}

func (r *paymentsRepo) SetRiskScore(ctx context.Context, id string, score float64) error {
	// set exactly once: a second write would indicate a re-entrant run
	_, err := r.db.Exec(ctx, `UPDATE payments SET risk_score=$2 WHERE id=$1 AND risk_score IS NULL`, id, score)
	return err
}

func (r *paymentsRepo) SetRail(ctx context.Context, id string, rail models.SettlementRail) error {
	_, err := r.db.Exec(ctx, `UPDATE payments SET settlement_rail=$2 WHERE id=$1 AND settlement_rail IS NULL`, id, rail)
	return err
}

func (r *paymentsRepo) Complete(ctx context.Context, id string, response map[string]any, at time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE payments SET status=$2, settlement_response=$3, completed_at=$4 WHERE id=$1`,
		id, models.PaymentCompleted, response, at)
	return err
}

func (r *paymentsRepo) Fail(ctx context.Context, id string, errMsg string, response map[string]any, at time.Time) error {
	_, err := r.db.Exec(ctx, `
UPDATE payments SET status=$2, error_message=$3, settlement_response=COALESCE($4, settlement_response), completed_at=$5
WHERE id=$1`,
		id, models.PaymentFailed, errMsg, response, at)
	return err
}

func (r *paymentsRepo) HasMerchantHistory(ctx context.Context, merchantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE merchant_id=$1 AND status=$2)`,
		merchantID, models.PaymentCompleted,
	).Scan(&exists)
	return exists, err
}

func (r *paymentsRepo) Stats(ctx context.Context) (models.DashboardStats, error) {
	var s models.DashboardStats
	err := r.db.QueryRow(ctx, `
SELECT count(*),
       count(*) FILTER (WHERE status='completed'),
       COALESCE(sum(amount) FILTER (WHERE status='completed'), 0),
       count(*) FILTER (WHERE settlement_rail='eswatini_switch'),
       count(*) FILTER (WHERE settlement_rail='visa_direct'),
       count(*) FILTER (WHERE risk_score < 0.3),
       count(*) FILTER (WHERE risk_score >= 0.3 AND risk_score < 0.7),
       count(*) FILTER (WHERE risk_score >= 0.7)
FROM payments`).Scan(
		&s.TotalPayments, &s.CompletedPayments, &s.TotalVolume,
		&s.EswatiniPayments, &s.VisaPayments,
		&s.LowRisk, &s.MediumRisk, &s.HighRisk,
	)
	return s, err
}
