package risk

import (
	"math/rand"
	"sync"
)

// residualCeiling bounds the pluggable model's residual contribution.
const residualCeiling = 0.30

// velocityFlagRate is the probability the seeded model flags a merchant with
// history for transaction velocity.
const velocityFlagRate = 0.10

// AnomalyModel supplies the two signals a real deployment would take from an
// external fraud model. Injecting it keeps Assess deterministic under test.
type AnomalyModel interface {
	// VelocityFlag reports whether the merchant's recent transaction
	// velocity looks anomalous.
	VelocityFlag(merchantID string) bool
	// ResidualScore returns an anomaly contribution in [0, 0.30].
	ResidualScore() float64
}

type seededModel struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededModel returns an AnomalyModel backed by a seeded generator. Safe
// for concurrent use.
func NewSeededModel(seed int64) AnomalyModel {
	return &seededModel{rng: rand.New(rand.NewSource(seed))}
}

func (m *seededModel) VelocityFlag(string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64() < velocityFlagRate
}

func (m *seededModel) ResidualScore() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64() * residualCeiling
}

// StubModel returns fixed values; used by tests and by deployments that want
// the model switched off (zero values).
type StubModel struct {
	Velocity bool
	Residual float64
}

func (s StubModel) VelocityFlag(string) bool { return s.Velocity }
func (s StubModel) ResidualScore() float64   { return s.Residual }
