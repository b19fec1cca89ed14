package models

import "time"

// Pipeline stage names as persisted in transaction_log. These are part of the
// stored-data contract, do not rename.
const (
	StageGateway      = "api_gateway"
	StageRiskEngine   = "risk_engine"
	StageOrchestrator = "orchestrator"
	StageSettlement   = "settlement"
	StageSystem       = "system"
)

// Stage statuses.
const (
	StageSuccess   = "success"
	StageCompleted = "completed"
	StageDeclined  = "declined"
	StageFailed    = "failed"
	StageError     = "error"
	StageRouting   = "routing"
)

// TransactionLogEntry is one immutable audit record for a pipeline stage.
// Entries are insert-only; replayed in timestamp order they reconstruct the
// payment's final state.
type TransactionLogEntry struct {
	ID        string         `json:"id"`
	PaymentID string         `json:"payment_id"`
	Stage     string         `json:"stage"`
	Status    string         `json:"status"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
