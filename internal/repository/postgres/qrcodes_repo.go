package postgres

import (
	"context"
	"errors"

	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type qrCodesRepo struct{ db DB }

const qrColumns = `id, qr_code_id, merchant_id, amount, description, is_dynamic,
	expires_at, max_usage, usage_count, is_active, created_at`

func (r *qrCodesRepo) Create(ctx context.Context, q models.QRCode) (models.QRCode, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
INSERT INTO qr_codes (id, qr_code_id, merchant_id, amount, description, is_dynamic,
	expires_at, max_usage, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING usage_count, created_at`,
		q.ID, q.QRCodeID, q.MerchantID, q.Amount, q.Description, q.IsDynamic,
		q.ExpiresAt, q.MaxUsage, q.IsActive,
	).Scan(&q.UsageCount, &q.CreatedAt)
	return q, err
}

func (r *qrCodesRepo) GetByCodeID(ctx context.Context, qrCodeID string) (models.QRCode, error) {
	var q models.QRCode
	err := r.db.QueryRow(ctx, `SELECT `+qrColumns+` FROM qr_codes WHERE qr_code_id=$1`, qrCodeID).Scan(
		&q.ID, &q.QRCodeID, &q.MerchantID, &q.Amount, &q.Description, &q.IsDynamic,
		&q.ExpiresAt, &q.MaxUsage, &q.UsageCount, &q.IsActive, &q.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.QRCode{}, repo.ErrNotFound
	}
	return q, err
}

func (r *qrCodesRepo) IncrementUsage(ctx context.Context, qrCodeID string) error {
	// deactivates in the same statement once the usage cap is reached
	_, err := r.db.Exec(ctx, `
UPDATE qr_codes
   SET usage_count = usage_count + 1,
       is_active = CASE WHEN max_usage IS NOT NULL AND usage_count + 1 >= max_usage THEN false ELSE is_active END
 WHERE qr_code_id=$1`,
		qrCodeID)
	return err
}

func (r *qrCodesRepo) ListByMerchant(ctx context.Context, merchantID string) ([]models.QRCode, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+qrColumns+` FROM qr_codes
 WHERE merchant_id=$1 AND is_active
 ORDER BY created_at DESC`,
		merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QRCode
	for rows.Next() {
		var q models.QRCode
		if err := rows.Scan(&q.ID, &q.QRCodeID, &q.MerchantID, &q.Amount, &q.Description,
			&q.IsDynamic, &q.ExpiresAt, &q.MaxUsage, &q.UsageCount, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
