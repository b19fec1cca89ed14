package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastpay/fastpay-backend/internal/metrics"
	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
	"github.com/fastpay/fastpay-backend/internal/settlement"
	"github.com/fastpay/fastpay-backend/internal/worker"
)

// Assessor scores a payment request. May block (model latency) but is never
// invoked concurrently for the same payment.
type Assessor interface {
	Assess(ctx context.Context, paymentID string, req models.PaymentRequest) (models.RiskAssessment, error)
}

// RailSelector picks a settlement rail. Must be pure.
type RailSelector interface {
	SelectRail(req models.PaymentRequest, riskScore float64) models.SettlementRail
}

// Settler executes one settlement attempt on a rail.
type Settler interface {
	Settle(ctx context.Context, req models.PaymentRequest, rail models.SettlementRail) (settlement.Result, error)
}

// Coordinator drives a payment through
// PENDING -> RISK_CHECK -> PROCESSING -> COMPLETED|FAILED. Every stage outcome
// is persisted and appended to the transaction log; a run always ends in a
// terminal status, unhandled errors included.
type Coordinator struct {
	payments repo.Payments
	ledger   repo.Ledger
	risk     Assessor
	router   RailSelector
	settler  Settler
	pool     *worker.Pool
	deadline time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewCoordinator(
	payments repo.Payments,
	ledger repo.Ledger,
	risk Assessor,
	router RailSelector,
	settler Settler,
	pool *worker.Pool,
	deadline time.Duration,
	log *slog.Logger,
) *Coordinator {
	return &Coordinator{
		payments: payments,
		ledger:   ledger,
		risk:     risk,
		router:   router,
		settler:  settler,
		pool:     pool,
		deadline: deadline,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock for tests.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// Start schedules the pipeline run for a payment and returns immediately.
// Returns false when a run for this payment id is already in flight.
func (c *Coordinator) Start(paymentID string, req models.PaymentRequest) bool {
	return c.pool.SubmitKeyed(paymentID, func() { c.Run(paymentID, req) })
}

// Run executes the pipeline synchronously. Exposed for tests and for callers
// that manage their own scheduling; Start is the normal entry point.
func (c *Coordinator) Run(paymentID string, req models.PaymentRequest) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if c.deadline > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.deadline)
		defer cancel()
	}

	err := c.runGuarded(ctx, paymentID, req)
	if err != nil {
		c.failSystem(paymentID, err)
	}
}

// runGuarded converts panics into errors so no run can escape without a
// terminal status.
func (c *Coordinator) runGuarded(ctx context.Context, paymentID string, req models.PaymentRequest) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return c.runStages(ctx, paymentID, req)
}

func (c *Coordinator) runStages(ctx context.Context, paymentID string, req models.PaymentRequest) error {
	// PENDING -> RISK_CHECK
	if err := c.payments.SetStatus(ctx, paymentID, models.PaymentRiskCheck); err != nil {
		return fmt.Errorf("persist risk_check: %w", err)
	}

	assessment, err := c.risk.Assess(ctx, paymentID, req)
	if err != nil {
		return fmt.Errorf("risk assessment: %w", err)
	}
	if err := c.payments.SetRiskScore(ctx, paymentID, assessment.RiskScore); err != nil {
		return fmt.Errorf("persist risk score: %w", err)
	}
	if err := c.audit(ctx, paymentID, models.StageRiskEngine, models.StageCompleted, map[string]any{
		"risk_score":     assessment.RiskScore,
		"risk_factors":   assessment.RiskFactors,
		"recommendation": assessment.Recommendation,
	}); err != nil {
		return err
	}

	if assessment.Recommendation == models.RecommendDecline {
		if err := c.payments.Fail(ctx, paymentID, "Transaction declined due to high risk score", nil, c.now().UTC()); err != nil {
			return fmt.Errorf("persist decline: %w", err)
		}
		if err := c.audit(ctx, paymentID, models.StageRiskEngine, models.StageDeclined, map[string]any{
			"reason":     "High risk score",
			"risk_score": assessment.RiskScore,
		}); err != nil {
			return err
		}
		metrics.RiskDeclines.Inc()
		metrics.PaymentsTotal.WithLabelValues(string(models.PaymentFailed)).Inc()
		c.log.Info("payment declined", "payment_id", paymentID, "risk_score", assessment.RiskScore)
		return nil
	}

	// REVIEW proceeds to settlement, same as APPROVE.
	// RISK_CHECK -> PROCESSING
	if err := c.payments.SetStatus(ctx, paymentID, models.PaymentProcessing); err != nil {
		return fmt.Errorf("persist processing: %w", err)
	}

	rail := c.router.SelectRail(req, assessment.RiskScore)
	if err := c.payments.SetRail(ctx, paymentID, rail); err != nil {
		return fmt.Errorf("persist rail: %w", err)
	}
	if err := c.audit(ctx, paymentID, models.StageOrchestrator, models.StageRouting, map[string]any{
		"selected_rail": rail,
		"reason":        fmt.Sprintf("Amount: %s, Risk: %.3f", req.Amount.StringFixed(2), assessment.RiskScore),
	}); err != nil {
		return err
	}

	result, err := c.settler.Settle(ctx, req, rail)
	if err != nil {
		return fmt.Errorf("settlement on %s: %w", rail, err)
	}

	payload := result.Payload()
	metrics.SettlementsTotal.WithLabelValues(string(rail), result.Status).Inc()

	if result.Completed() {
		if err := c.payments.Complete(ctx, paymentID, payload, c.now().UTC()); err != nil {
			return fmt.Errorf("persist completion: %w", err)
		}
		if err := c.audit(ctx, paymentID, models.StageSettlement, models.StageCompleted, payload); err != nil {
			return err
		}
		metrics.PaymentsTotal.WithLabelValues(string(models.PaymentCompleted)).Inc()
		c.log.Info("payment completed", "payment_id", paymentID, "rail", rail, "external_id", result.TransactionID)
		return nil
	}

	if err := c.payments.Fail(ctx, paymentID, result.Message, payload, c.now().UTC()); err != nil {
		return fmt.Errorf("persist settlement failure: %w", err)
	}
	if err := c.audit(ctx, paymentID, models.StageSettlement, models.StageFailed, payload); err != nil {
		return err
	}
	metrics.PaymentsTotal.WithLabelValues(string(models.PaymentFailed)).Inc()
	c.log.Info("payment failed at settlement", "payment_id", paymentID, "rail", rail, "error_code", result.ErrorCode)
	return nil
}

func (c *Coordinator) audit(ctx context.Context, paymentID, stage, status string, details map[string]any) error {
	if err := c.ledger.Append(ctx, models.TransactionLogEntry{
		PaymentID: paymentID,
		Stage:     stage,
		Status:    status,
		Details:   details,
	}); err != nil {
		return fmt.Errorf("append %s entry: %w", stage, err)
	}
	return nil
}

// failSystem is the terminal catch-all: whatever went wrong, the payment ends
// FAILED with a system audit entry. It uses a fresh context because the run
// context may already be expired.
func (c *Coordinator) failSystem(paymentID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := "system error: " + cause.Error()
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = "timeout"
	}

	if err := c.payments.Fail(ctx, paymentID, msg, nil, c.now().UTC()); err != nil {
		c.log.Error("persist system failure", "payment_id", paymentID, "err", err)
	}
	if err := c.ledger.Append(ctx, models.TransactionLogEntry{
		PaymentID: paymentID,
		Stage:     models.StageSystem,
		Status:    models.StageError,
		Details:   map[string]any{"error": cause.Error()},
	}); err != nil {
		c.log.Error("append system entry", "payment_id", paymentID, "err", err)
	}
	metrics.PaymentsTotal.WithLabelValues(string(models.PaymentFailed)).Inc()
	c.log.Error("pipeline run failed", "payment_id", paymentID, "err", cause)
}
