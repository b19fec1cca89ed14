package models

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type MerchantStatus string

const (
	MerchantPending   MerchantStatus = "pending"
	MerchantApproved  MerchantStatus = "approved"
	MerchantSuspended MerchantStatus = "suspended"
)

type Merchant struct {
	ID            string          `json:"id"`
	MerchantID    string          `json:"merchant_id"`
	BusinessName  string          `json:"business_name"`
	BusinessType  string          `json:"business_type"`
	OwnerName     string          `json:"owner_name"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	APIKey        string          `json:"api_key,omitempty"`
	APISecretHash string          `json:"-"`
	Status        MerchantStatus  `json:"status"`
	FeeRate       decimal.Decimal `json:"fee_rate"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (m Merchant) Validate() error {
	if strings.TrimSpace(m.BusinessName) == "" {
		return errors.New("business_name required")
	}
	if strings.TrimSpace(m.Email) == "" || !strings.Contains(m.Email, "@") {
		return errors.New("valid email required")
	}
	if strings.TrimSpace(m.OwnerName) == "" {
		return errors.New("owner_name required")
	}
	return nil
}
