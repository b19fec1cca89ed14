package risk

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/fastpay/fastpay-backend/internal/config"
	"github.com/fastpay/fastpay-backend/internal/models"
)

// Factor weights. Scores are additive over independent predicates and clamped
// to [0,1] afterwards.
const (
	weightHighAmount  = 0.30
	weightUnusualHour = 0.20
	weightNewMerchant = 0.10
	weightVelocity    = 0.40
	weightLocation    = 0.15
)

// History answers whether a merchant has prior completed payments.
type History interface {
	HasMerchantHistory(ctx context.Context, merchantID string) (bool, error)
}

type Engine struct {
	cfg     config.RiskConfig
	history History
	model   AnomalyModel
	now     func() time.Time
}

func NewEngine(cfg config.RiskConfig, history History, model AnomalyModel) *Engine {
	return &Engine{cfg: cfg, history: history, model: model, now: time.Now}
}

// WithClock overrides the wall clock, for deterministic hour-of-day tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Assess scores a payment request. It is pure over its inputs: every
// non-deterministic signal comes through the injected AnomalyModel.
func (e *Engine) Assess(ctx context.Context, paymentID string, req models.PaymentRequest) (models.RiskAssessment, error) {
	var (
		factors []string
		score   float64
	)

	if req.Amount.GreaterThan(e.cfg.HighAmountThreshold) {
		factors = append(factors, fmt.Sprintf("High amount: %s %s", req.Amount.StringFixed(2), req.Currency))
		score += weightHighAmount
	}

	hour := e.now().UTC().Hour()
	if e.cfg.UnusualHours[hour] {
		factors = append(factors, fmt.Sprintf("Unusual transaction time: %d:00", hour))
		score += weightUnusualHour
	}

	hasHistory, err := e.history.HasMerchantHistory(ctx, req.MerchantID)
	if err != nil {
		return models.RiskAssessment{}, fmt.Errorf("merchant history lookup: %w", err)
	}
	if !hasHistory {
		factors = append(factors, "New merchant - limited history")
		score += weightNewMerchant
	} else if e.model.VelocityFlag(req.MerchantID) {
		factors = append(factors, "High transaction velocity detected")
		score += weightVelocity
	}

	if req.CustomerLocation != "" && !e.knownLocation(req.CustomerLocation) {
		factors = append(factors, fmt.Sprintf("Unusual location: %s", req.CustomerLocation))
		score += weightLocation
	}

	// residual anomaly contribution, bounded to [0, 0.30]
	score += math.Min(math.Max(e.model.ResidualScore(), 0), residualCeiling)

	score = math.Min(score, 1.0)
	score = math.Round(score*1000) / 1000

	return models.RiskAssessment{
		PaymentID:      paymentID,
		RiskScore:      score,
		RiskFactors:    factors,
		Recommendation: Recommend(score),
	}, nil
}

func (e *Engine) knownLocation(loc string) bool {
	for _, known := range e.cfg.KnownLocations {
		if known == loc {
			return true
		}
	}
	return false
}

// Recommend maps a rounded score to a categorical verdict. Thresholds are
// inclusive at the upper bound: 0.300 is REVIEW, 0.700 is DECLINE.
func Recommend(score float64) models.Recommendation {
	switch {
	case score < 0.3:
		return models.RecommendApprove
	case score < 0.7:
		return models.RecommendReview
	default:
		return models.RecommendDecline
	}
}
