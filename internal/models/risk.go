package models

type Recommendation string

const (
	RecommendApprove Recommendation = "APPROVE"
	RecommendReview  Recommendation = "REVIEW"
	RecommendDecline Recommendation = "DECLINE"
)

// RiskAssessment is transient: it travels through the pipeline and into the
// risk_engine audit entry but is not persisted as its own row.
type RiskAssessment struct {
	PaymentID      string         `json:"payment_id"`
	RiskScore      float64        `json:"risk_score"`
	RiskFactors    []string       `json:"risk_factors"`
	Recommendation Recommendation `json:"recommendation"`
}
