package settlement

import (
	"math/rand"
	"sync"
	"time"
)

// OutcomeSource decides simulated settlement outcomes. Injectable so tests can
// force either branch; the production default is a seeded generator.
type OutcomeSource interface {
	// Success draws against the rail's configured success probability.
	Success(probability float64) bool
	// Latency picks a simulated processing delay in [min, max].
	Latency(min, max time.Duration) time.Duration
}

type seededOutcomes struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewSeededOutcomes(seed int64) OutcomeSource {
	return &seededOutcomes{rng: rand.New(rand.NewSource(seed))}
}

func (o *seededOutcomes) Success(p float64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Float64() < p
}

func (o *seededOutcomes) Latency(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return min + time.Duration(o.rng.Int63n(int64(max-min)))
}

// StubOutcomes always returns the configured outcome with zero latency.
type StubOutcomes struct{ Succeed bool }

func (s StubOutcomes) Success(float64) bool { return s.Succeed }

func (s StubOutcomes) Latency(time.Duration, time.Duration) time.Duration { return 0 }
