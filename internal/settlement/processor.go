package settlement

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/fastpay/fastpay-backend/internal/config"
	"github.com/fastpay/fastpay-backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Result is the rail's response payload. It is persisted verbatim as the
// payment's settlement_response and as the settlement ledger entry details.
type Result struct {
	Status         string          `json:"status"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	SettlementTime string          `json:"settlement_time,omitempty"`
	Fee            decimal.Decimal `json:"fee,omitempty"`
	NetAmount      decimal.Decimal `json:"net_amount,omitempty"`
	Rail           string          `json:"rail"`
	ErrorCode      string          `json:"error_code,omitempty"`
	Message        string          `json:"message,omitempty"`
}

func (r Result) Completed() bool { return r.Status == StatusCompleted }

// Payload flattens the result for jsonb storage and audit details.
func (r Result) Payload() map[string]any {
	m := map[string]any{"status": r.Status, "rail": r.Rail}
	if r.Completed() {
		m["transaction_id"] = r.TransactionID
		m["settlement_time"] = r.SettlementTime
		m["fee"] = r.Fee.StringFixed(2)
		m["net_amount"] = r.NetAmount.StringFixed(2)
	} else {
		m["error_code"] = r.ErrorCode
		m["message"] = r.Message
	}
	return m
}

// Processor simulates execution on a settlement rail. It holds no mutable
// state beyond the rail tables and its OutcomeSource, so independent payments
// may settle concurrently.
type Processor struct {
	rails    map[models.SettlementRail]config.RailConfig
	outcomes OutcomeSource
}

func NewProcessor(local, intl config.RailConfig, outcomes OutcomeSource) *Processor {
	return &Processor{
		rails: map[models.SettlementRail]config.RailConfig{
			local.Rail: local,
			intl.Rail:  intl,
		},
		outcomes: outcomes,
	}
}

// Settle executes one attempt on the chosen rail. No retries happen here;
// retry policy belongs to the caller.
func (p *Processor) Settle(ctx context.Context, req models.PaymentRequest, rail models.SettlementRail) (Result, error) {
	rc, ok := p.rails[rail]
	if !ok {
		return Result{}, fmt.Errorf("unknown settlement rail %q", rail)
	}

	if d := p.outcomes.Latency(rc.MinLatency, rc.MaxLatency); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-t.C:
		}
	}

	if !p.outcomes.Success(rc.SuccessRate) {
		return p.failure(rail, rc), nil
	}

	fee := req.Amount.Mul(rc.FeeRate).Round(2)
	return Result{
		Status:         StatusCompleted,
		TransactionID:  externalID(rail),
		SettlementTime: settlementTime(rail),
		Fee:            fee,
		NetAmount:      req.Amount.Sub(fee).Round(2),
		Rail:           rc.Name,
	}, nil
}

func (p *Processor) failure(rail models.SettlementRail, rc config.RailConfig) Result {
	res := Result{Status: StatusFailed, Rail: rc.Name}
	if rail == models.RailEswatiniSwitch {
		res.ErrorCode = "INSUFFICIENT_FUNDS"
		res.Message = "Transaction declined by issuing bank"
	} else {
		res.ErrorCode = "NETWORK_ERROR"
		res.Message = "Temporary network issue, please retry"
	}
	return res
}

func externalID(rail models.SettlementRail) string {
	prefix := "VD_"
	if rail == models.RailEswatiniSwitch {
		prefix = "ESW_"
	}
	u := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(u[:4]))
}

func settlementTime(rail models.SettlementRail) string {
	if rail == models.RailEswatiniSwitch {
		return "T+0"
	}
	return "T+1"
}
