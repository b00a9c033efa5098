package pricing

import (
	"fmt"
	"math/rand"
	"sync"

	"tripfare/pkg/model"
)

const (
	SimulationNone   = "none"
	SimulationRandom = "random"
)

// DemandSimulator decides how many units were consumed since the last refresh.
// The result never exceeds available.
type DemandSimulator interface {
	Consume(kind model.ItemKind, available int) int
}

type NoopSimulator struct{}

func (NoopSimulator) Consume(model.ItemKind, int) int { return 0 }

// BoundedRandomSimulator consumes a uniform 0..MaxUnits units per refresh.
type BoundedRandomSimulator struct {
	mu       sync.Mutex
	rng      *rand.Rand
	maxUnits int
}

func NewBoundedRandomSimulator(rng *rand.Rand, maxUnits int) *BoundedRandomSimulator {
	return &BoundedRandomSimulator{rng: rng, maxUnits: maxUnits}
}

func (s *BoundedRandomSimulator) Consume(_ model.ItemKind, available int) int {
	if available <= 0 || s.maxUnits <= 0 {
		return 0
	}
	s.mu.Lock()
	n := s.rng.Intn(s.maxUnits + 1)
	s.mu.Unlock()
	return min(n, available)
}

func NewSimulator(mode string, maxUnits int, seed int64) (DemandSimulator, error) {
	switch mode {
	case SimulationNone, "":
		return NoopSimulator{}, nil
	case SimulationRandom:
		return NewBoundedRandomSimulator(rand.New(rand.NewSource(seed)), maxUnits), nil
	default:
		return nil, fmt.Errorf("unknown demand simulation mode %q", mode)
	}
}
