package services

import (
	"context"
	"math"

	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type AnalyticsService struct {
	payments repo.Payments
}

func NewAnalyticsService(payments repo.Payments) *AnalyticsService {
	return &AnalyticsService{payments: payments}
}

type DashboardSummary struct {
	TotalPayments      int64           `json:"total_payments"`
	CompletedPayments  int64           `json:"completed_payments"`
	SuccessRate        float64         `json:"success_rate"`
	TotalVolume        decimal.Decimal `json:"total_volume"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
}

type Dashboard struct {
	Summary                DashboardSummary `json:"summary"`
	SettlementDistribution map[string]int64 `json:"settlement_distribution"`
	RiskDistribution       map[string]int64 `json:"risk_distribution"`
}

func (s *AnalyticsService) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := s.payments.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	total := max64(stats.TotalPayments, 1)
	completed := max64(stats.CompletedPayments, 1)

	rate := float64(stats.CompletedPayments) / float64(total) * 100
	return Dashboard{
		Summary: DashboardSummary{
			TotalPayments:      stats.TotalPayments,
			CompletedPayments:  stats.CompletedPayments,
			SuccessRate:        math.Round(rate*10) / 10,
			TotalVolume:        stats.TotalVolume.Round(2),
			AverageTransaction: stats.TotalVolume.DivRound(decimal.NewFromInt(completed), 2),
		},
		SettlementDistribution: map[string]int64{
			"eswatini_switch": stats.EswatiniPayments,
			"visa_direct":     stats.VisaPayments,
		},
		RiskDistribution: map[string]int64{
			"low_risk":    stats.LowRisk,
			"medium_risk": stats.MediumRisk,
			"high_risk":   stats.HighRisk,
		},
	}, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
