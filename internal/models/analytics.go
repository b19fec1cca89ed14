package models

import "github.com/shopspring/decimal"

// DashboardStats aggregates payment volume, rail distribution, and risk bands
// for the analytics endpoint.
type DashboardStats struct {
	TotalPayments     int64           `json:"total_payments"`
	CompletedPayments int64           `json:"completed_payments"`
	TotalVolume       decimal.Decimal `json:"total_volume"`
	EswatiniPayments  int64           `json:"eswatini_switch"`
	VisaPayments      int64           `json:"visa_direct"`
	LowRisk           int64           `json:"low_risk"`
	MediumRisk        int64           `json:"medium_risk"`
	HighRisk          int64           `json:"high_risk"`
}
