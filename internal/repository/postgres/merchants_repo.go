package postgres

import (
	"context"
	"errors"

	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type merchantsRepo struct{ db DB }

const merchantColumns = `id, merchant_id, business_name, business_type, owner_name,
	phone, email, api_key, api_secret_hash, status, fee_rate, is_active, created_at`

func (r *merchantsRepo) Create(ctx context.Context, m models.Merchant) (models.Merchant, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	err := r.db.QueryRow(ctx, `
INSERT INTO merchants (id, merchant_id, business_name, business_type, owner_name,
	phone, email, api_key, api_secret_hash, status, fee_rate, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING created_at`,
		m.ID, m.MerchantID, m.BusinessName, m.BusinessType, m.OwnerName,
		m.Phone, m.Email, m.APIKey, m.APISecretHash, m.Status, m.FeeRate, m.IsActive,
	).Scan(&m.CreatedAt)
	return m, err
}

func (r *merchantsRepo) get(ctx context.Context, where string, arg any) (models.Merchant, error) {
	var m models.Merchant
	err := r.db.QueryRow(ctx, `SELECT `+merchantColumns+` FROM merchants WHERE `+where, arg).Scan(
		&m.ID, &m.MerchantID, &m.BusinessName, &m.BusinessType, &m.OwnerName,
		&m.Phone, &m.Email, &m.APIKey, &m.APISecretHash, &m.Status, &m.FeeRate,
		&m.IsActive, &m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Merchant{}, repo.ErrNotFound
	}
	return m, err
}

func (r *merchantsRepo) GetByAPIKey(ctx context.Context, apiKey string) (models.Merchant, error) {
	return r.get(ctx, `api_key=$1`, apiKey)
}

func (r *merchantsRepo) GetByMerchantID(ctx context.Context, merchantID string) (models.Merchant, error) {
	return r.get(ctx, `merchant_id=$1`, merchantID)
}

func (r *merchantsRepo) GetByEmail(ctx context.Context, email string) (models.Merchant, error) {
	return r.get(ctx, `email=$1`, email)
}
