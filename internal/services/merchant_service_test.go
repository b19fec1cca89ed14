package services

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastpay/fastpay-backend/internal/auth"
	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMerchants struct {
	mu sync.Mutex
	m  []models.Merchant
}

func (s *memMerchants) Create(_ context.Context, m models.Merchant) (models.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.CreatedAt = time.Now()
	s.m = append(s.m, m)
	return m, nil
}

func (s *memMerchants) find(pred func(models.Merchant) bool) (models.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.m {
		if pred(m) {
			return m, nil
		}
	}
	return models.Merchant{}, repo.ErrNotFound
}

func (s *memMerchants) GetByAPIKey(_ context.Context, key string) (models.Merchant, error) {
	return s.find(func(m models.Merchant) bool { return m.APIKey == key })
}

func (s *memMerchants) GetByMerchantID(_ context.Context, id string) (models.Merchant, error) {
	return s.find(func(m models.Merchant) bool { return m.MerchantID == id })
}

func (s *memMerchants) GetByEmail(_ context.Context, email string) (models.Merchant, error) {
	return s.find(func(m models.Merchant) bool { return m.Email == email })
}

type memQRCodes struct {
	mu sync.Mutex
	m  map[string]models.QRCode
}

func newMemQRCodes() *memQRCodes { return &memQRCodes{m: map[string]models.QRCode{}} }

func (s *memQRCodes) Create(_ context.Context, q models.QRCode) (models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.CreatedAt = time.Now()
	s.m[q.QRCodeID] = q
	return q, nil
}

func (s *memQRCodes) GetByCodeID(_ context.Context, id string) (models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.m[id]
	if !ok {
		return models.QRCode{}, repo.ErrNotFound
	}
	return q, nil
}

func (s *memQRCodes) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.m[id]
	q.UsageCount++
	if q.MaxUsage != nil && q.UsageCount >= *q.MaxUsage {
		q.IsActive = false
	}
	s.m[id] = q
	return nil
}

func (s *memQRCodes) ListByMerchant(_ context.Context, merchantID string) ([]models.QRCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.QRCode
	for _, q := range s.m {
		if q.MerchantID == merchantID && q.IsActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func newMerchantService() (*MerchantService, *memMerchants, *memQRCodes) {
	merchants := &memMerchants{}
	qrcodes := newMemQRCodes()
	tokens := auth.NewTokenManager("test-secret", "fastpay-test", time.Hour, 24*time.Hour)
	return NewMerchantService(merchants, qrcodes, tokens), merchants, qrcodes
}

func registration() MerchantRegistration {
	return MerchantRegistration{
		BusinessName: "Sibeko's Spaza Shop",
		BusinessType: "retail",
		OwnerName:    "T. Sibeko",
		Phone:        "+268 7600 0000",
		Email:        "shop@example.sz",
	}
}

func TestRegisterGeneratesCredentials(t *testing.T) {
	svc, _, _ := newMerchantService()

	m, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^MERCH_[A-Z0-9]{1,10}_\d{3}$`), m.MerchantID)
	assert.True(t, strings.HasPrefix(m.APIKey, "fpk_"))
	assert.Len(t, m.APIKey, 4+32)
	assert.True(t, strings.HasPrefix(m.APISecret, "fps_"))
	assert.Len(t, m.APISecret, 4+48)
	assert.Equal(t, models.MerchantApproved, m.Status)
	// the stored hash verifies against the returned plaintext secret
	assert.NoError(t, auth.VerifySecret(m.APISecret, m.APISecretHash))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _ := newMerchantService()

	_, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), registration())
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newMerchantService()
	m, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), m.APIKey, m.APISecret)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.True(t, pair.ExpiresAt.After(time.Now()))

	_, err = svc.Login(context.Background(), m.APIKey, "fps_wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "fpk_unknown", m.APISecret)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateQRAndPayload(t *testing.T) {
	svc, _, _ := newMerchantService()
	m, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)

	amt := decimal.NewFromInt(250)
	exp := 30
	q, data, err := svc.CreateQR(context.Background(), m.MerchantID, QRCodeRequest{
		Amount: &amt, Description: "lunch", ExpiresInMinutes: &exp,
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^QR_[A-Z0-9]{8}$`), q.QRCodeID)
	assert.False(t, q.IsDynamic)
	require.NotNil(t, q.ExpiresAt)
	assert.True(t, strings.HasPrefix(data, "fastpay://"))

	// dynamic code when no amount is fixed
	dq, _, err := svc.CreateQR(context.Background(), m.MerchantID, QRCodeRequest{})
	require.NoError(t, err)
	assert.True(t, dq.IsDynamic)
}

func TestValidateQRLifecycle(t *testing.T) {
	svc, _, _ := newMerchantService()
	m, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)

	maxUse := 2
	q, _, err := svc.CreateQR(context.Background(), m.MerchantID, QRCodeRequest{MaxUsage: &maxUse})
	require.NoError(t, err)

	// two redemptions succeed, the third is refused
	_, err = svc.ValidateQR(context.Background(), q.QRCodeID, true)
	require.NoError(t, err)
	_, err = svc.ValidateQR(context.Background(), q.QRCodeID, true)
	require.NoError(t, err)
	_, err = svc.ValidateQR(context.Background(), q.QRCodeID, true)
	assert.ErrorIs(t, err, ErrQRInactive)

	_, err = svc.ValidateQR(context.Background(), "QR_MISSING1", false)
	assert.ErrorIs(t, err, ErrQRInactive)
}

func TestValidateQRExpired(t *testing.T) {
	svc, _, qrcodes := newMerchantService()
	m, err := svc.Register(context.Background(), registration())
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	_, err = qrcodes.Create(context.Background(), models.QRCode{
		QRCodeID: "QR_EXPIRED1", MerchantID: m.MerchantID, ExpiresAt: &past, IsActive: true,
	})
	require.NoError(t, err)

	_, err = svc.ValidateQR(context.Background(), "QR_EXPIRED1", false)
	assert.ErrorIs(t, err, ErrQRExpired)
}
