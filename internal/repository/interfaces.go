package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fastpay/fastpay-backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Payments owns the payment record. The narrow mutators are what the pipeline
// needs; each is atomic for a single payment id.
type Payments interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	GetByID(ctx context.Context, id string) (models.Payment, error)

	SetStatus(ctx context.Context, id string, status models.PaymentStatus) error
	SetRiskScore(ctx context.Context, id string, score float64) error
	SetRail(ctx context.Context, id string, rail models.SettlementRail) error
	Complete(ctx context.Context, id string, response map[string]any, at time.Time) error
	Fail(ctx context.Context, id string, errMsg string, response map[string]any, at time.Time) error

	HasMerchantHistory(ctx context.Context, merchantID string) (bool, error)
	Stats(ctx context.Context) (models.DashboardStats, error)
}

// Ledger is the append-only transaction log. Entries are never updated or
// deleted; ListByPayment returns them in timestamp order.
type Ledger interface {
	Append(ctx context.Context, e models.TransactionLogEntry) error
	ListByPayment(ctx context.Context, paymentID string) ([]models.TransactionLogEntry, error)
}

type Merchants interface {
	Create(ctx context.Context, m models.Merchant) (models.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (models.Merchant, error)
	GetByMerchantID(ctx context.Context, merchantID string) (models.Merchant, error)
	GetByEmail(ctx context.Context, email string) (models.Merchant, error)
}

type QRCodes interface {
	Create(ctx context.Context, q models.QRCode) (models.QRCode, error)
	GetByCodeID(ctx context.Context, qrCodeID string) (models.QRCode, error)
	IncrementUsage(ctx context.Context, qrCodeID string) error
	ListByMerchant(ctx context.Context, merchantID string) ([]models.QRCode, error)
}
