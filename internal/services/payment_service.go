package services

import (
	"context"
	"strings"

	"github.com/fastpay/fastpay-backend/internal/api/validate"
	"github.com/fastpay/fastpay-backend/internal/models"
	repo "github.com/fastpay/fastpay-backend/internal/repository"
)

// PipelineStarter schedules the out-of-band pipeline run for a payment.
// Fire-and-forget: Create never blocks on pipeline completion.
type PipelineStarter interface {
	Start(paymentID string, req models.PaymentRequest) bool
}

type PaymentService struct {
	payments repo.Payments
	ledger   repo.Ledger
	pipeline PipelineStarter
	currency string
}

func NewPaymentService(payments repo.Payments, ledger repo.Ledger, pipeline PipelineStarter, defaultCurrency string) *PaymentService {
	return &PaymentService{payments: payments, ledger: ledger, pipeline: pipeline, currency: defaultCurrency}
}

// StatusView is what the status endpoint returns: the payment plus its
// ordered audit trail.
type StatusView struct {
	models.Payment
	TransactionLog []models.TransactionLogEntry `json:"transaction_log"`
}

// Create validates the request, persists the PENDING payment, records the
// gateway audit entry, and schedules the pipeline run. It returns as soon as
// the record exists; callers poll GetStatus for the terminal state.
func (s *PaymentService) Create(ctx context.Context, req models.PaymentRequest) (models.Payment, error) {
	if req.Currency == "" {
		req.Currency = s.currency
	}
	req.Currency = strings.ToUpper(req.Currency)
	if err := validateRequest(req); err != nil {
		return models.Payment{}, err
	}

	p, err := s.payments.Create(ctx, models.Payment{
		MerchantID: req.MerchantID,
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		Status:     models.PaymentPending,
	})
	if err != nil {
		return models.Payment{}, err
	}

	if err := s.ledger.Append(ctx, models.TransactionLogEntry{
		PaymentID: p.ID,
		Stage:     models.StageGateway,
		Status:    models.StageSuccess,
		Details:   map[string]any{"message": "Payment request validated and accepted"},
	}); err != nil {
		return models.Payment{}, err
	}

	s.pipeline.Start(p.ID, req)
	return p, nil
}

// GetStatus returns the payment plus its ordered transaction log, or
// repository.ErrNotFound for an unknown id.
func (s *PaymentService) GetStatus(ctx context.Context, id string) (StatusView, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	log, err := s.ledger.ListByPayment(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{Payment: p, TransactionLog: log}, nil
}

func validateRequest(req models.PaymentRequest) error {
	var errs validate.Errs
	for _, e := range []*validate.ErrField{
		validate.Required("merchant_id", req.MerchantID),
		validate.Required("customer_id", req.CustomerID),
		validate.Required("payment_method", req.PaymentMethod),
		validate.Positive("amount", req.Amount),
		validate.Currency("currency", req.Currency),
	} {
		if e != nil {
			errs = append(errs, *e)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
