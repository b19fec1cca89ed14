package settlement

import (
	"github.com/fastpay/fastpay-backend/internal/config"
	"github.com/fastpay/fastpay-backend/internal/models"
)

// highRiskCutoff: above this score traffic always goes to the international
// rail, which carries the stronger downstream checks.
const highRiskCutoff = 0.7

// Router maps (amount, currency, risk score) to a settlement rail. It holds
// only static configuration and is safe for concurrent use.
type Router struct {
	local         config.RailConfig
	localCurrency string
}

func NewRouter(local config.RailConfig, localCurrency string) *Router {
	return &Router{local: local, localCurrency: localCurrency}
}

// SelectRail is pure: identical inputs always yield the same rail. Rules are
// evaluated in order, first match wins.
func (r *Router) SelectRail(req models.PaymentRequest, riskScore float64) models.SettlementRail {
	if riskScore > highRiskCutoff {
		return models.RailVisaDirect
	}
	if req.Currency == r.localCurrency && req.Amount.LessThanOrEqual(r.local.MaxAmount) {
		return models.RailEswatiniSwitch
	}
	return models.RailVisaDirect
}
