package services

import (
	"context"
	"testing"

	"github.com/fastpay/fastpay-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsStub struct {
	memPayments
	stats models.DashboardStats
}

func (s *statsStub) Stats(context.Context) (models.DashboardStats, error) { return s.stats, nil }

func TestDashboard(t *testing.T) {
	svc := NewAnalyticsService(&statsStub{stats: models.DashboardStats{
		TotalPayments:     8,
		CompletedPayments: 6,
		TotalVolume:       decimal.RequireFromString("1500.50"),
		EswatiniPayments:  5,
		VisaPayments:      2,
		LowRisk:           4,
		MediumRisk:        3,
		HighRisk:          1,
	}})

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(8), d.Summary.TotalPayments)
	assert.Equal(t, 75.0, d.Summary.SuccessRate)
	assert.Equal(t, "1500.50", d.Summary.TotalVolume.StringFixed(2))
	assert.Equal(t, "250.08", d.Summary.AverageTransaction.StringFixed(2))
	assert.Equal(t, int64(5), d.SettlementDistribution["eswatini_switch"])
	assert.Equal(t, int64(1), d.RiskDistribution["high_risk"])
}

func TestDashboardEmpty(t *testing.T) {
	svc := NewAnalyticsService(&statsStub{})

	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	// divisions guard against zero totals
	assert.Equal(t, 0.0, d.Summary.SuccessRate)
	assert.Equal(t, "0.00", d.Summary.AverageTransaction.StringFixed(2))
}
