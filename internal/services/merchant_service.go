package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/fastpay/fastpay-backend/internal/auth"
	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/shopspring/decimal"
)

var (
	ErrEmailTaken         = errors.New("merchant with this email already exists")
	ErrInvalidCredentials = errors.New("invalid API key or secret")
	ErrQRInactive         = errors.New("QR code not found or inactive")
	ErrQRExpired          = errors.New("QR code has expired")
	ErrQRUsageExceeded    = errors.New("QR code usage limit exceeded")
)

var defaultMerchantFee = decimal.RequireFromString("0.02")

type MerchantService struct {
	merchants repo.Merchants
	qrcodes   repo.QRCodes
	tokens    *auth.TokenManager
	now       func() time.Time
}

func NewMerchantService(merchants repo.Merchants, qrcodes repo.QRCodes, tokens *auth.TokenManager) *MerchantService {
	return &MerchantService{merchants: merchants, qrcodes: qrcodes, tokens: tokens, now: time.Now}
}

type MerchantRegistration struct {
	BusinessName string `json:"business_name"`
	BusinessType string `json:"business_type"`
	OwnerName    string `json:"owner_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// RegisteredMerchant carries the one-time plaintext API secret alongside the
// stored merchant record.
type RegisteredMerchant struct {
	models.Merchant
	APISecret string `json:"api_secret"`
}

// Register creates an auto-approved merchant with generated credentials.
func (s *MerchantService) Register(ctx context.Context, reg MerchantRegistration) (RegisteredMerchant, error) {
	m := models.Merchant{
		BusinessName: strings.TrimSpace(reg.BusinessName),
		BusinessType: normalizeBusinessType(reg.BusinessType),
		OwnerName:    strings.TrimSpace(reg.OwnerName),
		Phone:        strings.TrimSpace(reg.Phone),
		Email:        strings.ToLower(strings.TrimSpace(reg.Email)),
		Status:       models.MerchantApproved, // auto-approve
		FeeRate:      defaultMerchantFee,
		IsActive:     true,
	}
	if err := m.Validate(); err != nil {
		return RegisteredMerchant{}, err
	}

	if _, err := s.merchants.GetByEmail(ctx, m.Email); err == nil {
		return RegisteredMerchant{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return RegisteredMerchant{}, err
	}

	m.MerchantID = merchantID(m.BusinessName)
	m.APIKey = "fpk_" + randomToken(32)
	secret := "fps_" + randomToken(48)
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return RegisteredMerchant{}, err
	}
	m.APISecretHash = hash

	m, err = s.merchants.Create(ctx, m)
	if err != nil {
		return RegisteredMerchant{}, err
	}
	return RegisteredMerchant{Merchant: m, APISecret: secret}, nil
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Login exchanges API credentials for a JWT pair used on dashboard routes.
func (s *MerchantService) Login(ctx context.Context, apiKey, apiSecret string) (TokenPair, error) {
	m, err := s.merchants.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !m.IsActive || m.Status != models.MerchantApproved {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err := auth.VerifySecret(apiSecret, m.APISecretHash); err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, refresh, exp, err := s.tokens.GeneratePair(m.MerchantID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp}, nil
}

type QRCodeRequest struct {
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Description      string           `json:"description,omitempty"`
	ExpiresInMinutes *int             `json:"expires_in_minutes,omitempty"`
	MaxUsage         *int             `json:"max_usage,omitempty"`
}

// CreateQR issues a payment code for the merchant and returns it together
// with the encoded scan payload.
func (s *MerchantService) CreateQR(ctx context.Context, merchantID string, req QRCodeRequest) (models.QRCode, string, error) {
	if _, err := s.merchants.GetByMerchantID(ctx, merchantID); err != nil {
		return models.QRCode{}, "", err
	}

	q := models.QRCode{
		QRCodeID:    "QR_" + strings.ToUpper(randomToken(8)),
		MerchantID:  merchantID,
		Amount:      req.Amount,
		Description: req.Description,
		IsDynamic:   req.Amount == nil,
		MaxUsage:    req.MaxUsage,
		IsActive:    true,
	}
	if req.ExpiresInMinutes != nil {
		exp := s.now().UTC().Add(time.Duration(*req.ExpiresInMinutes) * time.Minute)
		q.ExpiresAt = &exp
	}

	q, err := s.qrcodes.Create(ctx, q)
	if err != nil {
		return models.QRCode{}, "", err
	}
	return q, s.QRData(q), nil
}

// QRData encodes the scan payload: fastpay://<base64 json>.
func (s *MerchantService) QRData(q models.QRCode) string {
	payload := map[string]any{
		"qr_id":       q.QRCodeID,
		"merchant_id": q.MerchantID,
		"description": q.Description,
		"system":      "FastPay",
	}
	if q.Amount != nil {
		payload["amount"] = q.Amount.StringFixed(2)
	}
	if q.ExpiresAt != nil {
		payload["expires_at"] = q.ExpiresAt.UTC().Format(time.RFC3339)
	}
	b, _ := json.Marshal(payload)
	return "fastpay://" + base64.StdEncoding.EncodeToString(b)
}

// ValidateQR checks a code is usable for payment. With redeem set it also
// burns one usage, deactivating the code when the cap is hit.
func (s *MerchantService) ValidateQR(ctx context.Context, qrCodeID string, redeem bool) (models.QRCode, error) {
	q, err := s.qrcodes.GetByCodeID(ctx, qrCodeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.QRCode{}, ErrQRInactive
		}
		return models.QRCode{}, err
	}
	if !q.IsActive {
		return models.QRCode{}, ErrQRInactive
	}
	if q.ExpiresAt != nil && s.now().UTC().After(*q.ExpiresAt) {
		return models.QRCode{}, ErrQRExpired
	}
	if q.MaxUsage != nil && q.UsageCount >= *q.MaxUsage {
		return models.QRCode{}, ErrQRUsageExceeded
	}
	if redeem {
		if err := s.qrcodes.IncrementUsage(ctx, qrCodeID); err != nil {
			return models.QRCode{}, err
		}
		q.UsageCount++
	}
	return q, nil
}

func (s *MerchantService) ListQR(ctx context.Context, merchantID string) ([]models.QRCode, error) {
	return s.qrcodes.ListByMerchant(ctx, merchantID)
}

func normalizeBusinessType(t string) string {
	switch t = strings.ToLower(strings.TrimSpace(t)); t {
	case "retail", "restaurant", "grocery", "service", "online":
		return t
	default:
		return "other"
	}
}

// merchantID builds MERCH_<NAME>_<nnn> from the business name.
func merchantID(businessName string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(businessName) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == 10 {
			break
		}
	}
	return fmt.Sprintf("MERCH_%s_%s", b.String(), randomDigits(3))
}

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b)
}

func randomDigits(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(10))
		b[i] = byte('0' + idx.Int64())
	}
	return string(b)
}
