package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
)

var (
	ErrUnauthenticated = errors.New("invalid merchant credentials")
	ErrRateLimited     = errors.New("rate limit exceeded")
)

// Gateway authenticates inbound payment requests and applies a per-merchant
// sliding-window rate limit. It owns all rate-limit state; constructed once at
// startup and passed by handle into the API layer.
type Gateway struct {
	merchants repo.Merchants
	limit     int
	window    time.Duration

	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func New(merchants repo.Merchants, perMinute int) *Gateway {
	return &Gateway{
		merchants: merchants,
		limit:     perMinute,
		window:    time.Minute,
		hits:      make(map[string][]time.Time),
		now:       time.Now,
	}
}

// WithClock overrides the wall clock for tests.
func (g *Gateway) WithClock(now func() time.Time) *Gateway {
	g.now = now
	return g
}

// Authenticate resolves the calling merchant. An API key wins when present;
// otherwise a registered merchant id is accepted, and ids with the legacy
// MERCH_ prefix pass through unregistered (demo compatibility).
func (g *Gateway) Authenticate(ctx context.Context, apiKey, merchantID string) (models.Merchant, error) {
	if apiKey != "" {
		m, err := g.merchants.GetByAPIKey(ctx, apiKey)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return models.Merchant{}, ErrUnauthenticated
			}
			return models.Merchant{}, err
		}
		if !usable(m) {
			return models.Merchant{}, ErrUnauthenticated
		}
		return m, nil
	}

	m, err := g.merchants.GetByMerchantID(ctx, merchantID)
	if err == nil {
		if !usable(m) {
			return models.Merchant{}, ErrUnauthenticated
		}
		return m, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Merchant{}, err
	}
	if strings.HasPrefix(merchantID, "MERCH_") {
		return models.Merchant{MerchantID: merchantID, Status: models.MerchantApproved, IsActive: true}, nil
	}
	return models.Merchant{}, ErrUnauthenticated
}

// Allow records one request for the merchant and reports whether it fits the
// window. The limit is per merchant id, not global.
func (g *Gateway) Allow(merchantID string) bool {
	if g.limit <= 0 {
		return true
	}
	now := g.now()
	cutoff := now.Add(-g.window)

	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.hits[merchantID][:0]
	for _, ts := range g.hits[merchantID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= g.limit {
		g.hits[merchantID] = kept
		return false
	}
	g.hits[merchantID] = append(kept, now)
	return true
}

func usable(m models.Merchant) bool {
	return m.Status == models.MerchantApproved && m.IsActive
}
