package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QRCode is a merchant payment code. Static codes carry a fixed amount;
// dynamic codes leave Amount nil and the payer supplies it.
type QRCode struct {
	ID          string           `json:"id"`
	QRCodeID    string           `json:"qr_code_id"`
	MerchantID  string           `json:"merchant_id"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description string           `json:"description,omitempty"`
	IsDynamic   bool             `json:"is_dynamic"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	MaxUsage    *int             `json:"max_usage,omitempty"`
	UsageCount  int              `json:"usage_count"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
}
