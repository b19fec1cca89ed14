package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentRiskCheck  PaymentStatus = "risk_check"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

type SettlementRail string

const (
	RailEswatiniSwitch SettlementRail = "eswatini_switch"
	RailVisaDirect     SettlementRail = "visa_direct"
)

type Payment struct {
	ID                 string          `json:"id"`
	MerchantID         string          `json:"merchant_id"`
	CustomerID         string          `json:"customer_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Status             PaymentStatus   `json:"status"`
	RiskScore          *float64        `json:"risk_score,omitempty"`
	SettlementRail     *SettlementRail `json:"settlement_rail,omitempty"`
	SettlementResponse map[string]any  `json:"settlement_response,omitempty"`
	ErrorMessage       *string         `json:"error_message,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

// PaymentRequest is the inbound payload a merchant submits. The pipeline only
// ever sees this plus the generated payment id.
type PaymentRequest struct {
	MerchantID       string          `json:"merchant_id"`
	CustomerID       string          `json:"customer_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	PaymentMethod    string          `json:"payment_method"`
	CustomerLocation string          `json:"customer_location,omitempty"`
}
