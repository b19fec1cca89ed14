package settlement

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fastpay/fastpay-backend/internal/config"
	"github.com/fastpay/fastpay-backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRails() (config.RailConfig, config.RailConfig) {
	local := config.RailConfig{
		Rail:        models.RailEswatiniSwitch,
		Name:        "Eswatini National Payment Switch",
		MaxAmount:   decimal.NewFromInt(10000),
		Currencies:  []string{"SZL"},
		FeeRate:     decimal.RequireFromString("0.015"),
		SuccessRate: 0.95,
	}
	intl := config.RailConfig{
		Rail:        models.RailVisaDirect,
		Name:        "Visa Direct",
		MaxAmount:   decimal.NewFromInt(100000),
		Currencies:  []string{"SZL", "USD", "EUR"},
		FeeRate:     decimal.RequireFromString("0.025"),
		SuccessRate: 0.92,
	}
	return local, intl
}

func settleReq(amount int64) models.PaymentRequest {
	return models.PaymentRequest{Amount: decimal.NewFromInt(amount), Currency: "SZL"}
}

func TestSettleSuccessFeeArithmetic(t *testing.T) {
	local, intl := testRails()
	p := NewProcessor(local, intl, StubOutcomes{Succeed: true})

	tests := []struct {
		rail    models.SettlementRail
		wantFee string
		wantNet string
		prefix  string
		settles string
	}{
		{models.RailEswatiniSwitch, "15.00", "985.00", "ESW_", "T+0"},
		{models.RailVisaDirect, "25.00", "975.00", "VD_", "T+1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.rail), func(t *testing.T) {
			res, err := p.Settle(context.Background(), settleReq(1000), tt.rail)
			require.NoError(t, err)
			assert.True(t, res.Completed())
			assert.Equal(t, tt.wantFee, res.Fee.StringFixed(2))
			assert.Equal(t, tt.wantNet, res.NetAmount.StringFixed(2))
			assert.Equal(t, tt.settles, res.SettlementTime)
			assert.True(t, strings.HasPrefix(res.TransactionID, tt.prefix), "id %q", res.TransactionID)
		})
	}
}

func TestSettleFailureCodes(t *testing.T) {
	local, intl := testRails()
	p := NewProcessor(local, intl, StubOutcomes{Succeed: false})

	res, err := p.Settle(context.Background(), settleReq(100), models.RailEswatiniSwitch)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "INSUFFICIENT_FUNDS", res.ErrorCode)
	assert.NotEmpty(t, res.Message)

	res, err = p.Settle(context.Background(), settleReq(100), models.RailVisaDirect)
	require.NoError(t, err)
	assert.Equal(t, "NETWORK_ERROR", res.ErrorCode)
}

func TestSettleUnknownRail(t *testing.T) {
	local, intl := testRails()
	p := NewProcessor(local, intl, StubOutcomes{Succeed: true})

	_, err := p.Settle(context.Background(), settleReq(100), models.SettlementRail("carrier_pigeon"))
	assert.Error(t, err)
}

func TestSettleHonorsContextDuringLatency(t *testing.T) {
	local, intl := testRails()
	local.MinLatency = time.Second
	local.MaxLatency = 2 * time.Second
	p := NewProcessor(local, intl, NewSeededOutcomes(1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Settle(ctx, settleReq(100), models.RailEswatiniSwitch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSettleConcurrentPayments(t *testing.T) {
	local, intl := testRails()
	p := NewProcessor(local, intl, NewSeededOutcomes(7))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Settle(context.Background(), settleReq(1000), models.RailVisaDirect)
			assert.NoError(t, err)
			assert.Contains(t, []string{StatusCompleted, StatusFailed}, res.Status)
		}()
	}
	wg.Wait()
}

func TestResultPayload(t *testing.T) {
	ok := Result{
		Status: StatusCompleted, TransactionID: "ESW_DEADBEEF", SettlementTime: "T+0",
		Fee: decimal.RequireFromString("15"), NetAmount: decimal.RequireFromString("985"),
		Rail: "Eswatini National Payment Switch",
	}
	m := ok.Payload()
	assert.Equal(t, "15.00", m["fee"])
	assert.Equal(t, "985.00", m["net_amount"])
	assert.NotContains(t, m, "error_code")

	bad := Result{Status: StatusFailed, Rail: "Visa Direct", ErrorCode: "NETWORK_ERROR", Message: "retry"}
	m = bad.Payload()
	assert.Equal(t, "NETWORK_ERROR", m["error_code"])
	assert.NotContains(t, m, "fee")
}
