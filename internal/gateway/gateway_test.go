package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type merchantsStub struct {
	byKey map[string]models.Merchant
	byID  map[string]models.Merchant
}

func (s merchantsStub) Create(_ context.Context, m models.Merchant) (models.Merchant, error) {
	return m, nil
}

func (s merchantsStub) GetByAPIKey(_ context.Context, key string) (models.Merchant, error) {
	if m, ok := s.byKey[key]; ok {
		return m, nil
	}
	return models.Merchant{}, repo.ErrNotFound
}

func (s merchantsStub) GetByMerchantID(_ context.Context, id string) (models.Merchant, error) {
	if m, ok := s.byID[id]; ok {
		return m, nil
	}
	return models.Merchant{}, repo.ErrNotFound
}

func (s merchantsStub) GetByEmail(_ context.Context, _ string) (models.Merchant, error) {
	return models.Merchant{}, repo.ErrNotFound
}

func activeMerchant(id string) models.Merchant {
	return models.Merchant{MerchantID: id, Status: models.MerchantApproved, IsActive: true}
}

func TestAuthenticateByAPIKey(t *testing.T) {
	g := New(merchantsStub{byKey: map[string]models.Merchant{
		"fpk_good": activeMerchant("MERCH_SHOP_001"),
	}}, 10)

	m, err := g.Authenticate(context.Background(), "fpk_good", "")
	require.NoError(t, err)
	assert.Equal(t, "MERCH_SHOP_001", m.MerchantID)

	_, err = g.Authenticate(context.Background(), "fpk_wrong", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateSuspendedMerchant(t *testing.T) {
	suspended := activeMerchant("MERCH_BAD_001")
	suspended.Status = models.MerchantSuspended
	g := New(merchantsStub{byKey: map[string]models.Merchant{"fpk_s": suspended}}, 10)

	_, err := g.Authenticate(context.Background(), "fpk_s", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateLegacyMerchantID(t *testing.T) {
	g := New(merchantsStub{}, 10)

	m, err := g.Authenticate(context.Background(), "", "MERCH_LEGACY_042")
	require.NoError(t, err)
	assert.Equal(t, "MERCH_LEGACY_042", m.MerchantID)

	_, err = g.Authenticate(context.Background(), "", "random-id")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAllowSlidingWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	g := New(merchantsStub{}, 10).WithClock(func() time.Time { return now })

	for i := 0; i < 10; i++ {
		require.True(t, g.Allow("MERCH_A"), "request %d", i+1)
	}
	// 11th within the window is refused
	assert.False(t, g.Allow("MERCH_A"))
	// other merchants have their own budget
	assert.True(t, g.Allow("MERCH_B"))

	// window slides: a minute later the budget is back
	now = now.Add(61 * time.Second)
	assert.True(t, g.Allow("MERCH_A"))
}

func TestAllowUnlimitedWhenDisabled(t *testing.T) {
	g := New(merchantsStub{}, 0)
	for i := 0; i < 1000; i++ {
		require.True(t, g.Allow("MERCH_A"))
	}
}
