package recognition

import (
	"math/rand"
	"sync"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/camera"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory"
)

// MatchStrategy scores a captured frame against the candidate pool and
// returns the best candidate with its score in [0,1]. The pool is never
// empty when a strategy is invoked. Strategies are injectable so a real
// matcher can replace the placeholder without touching the engine.
type MatchStrategy interface {
	Match(frame camera.Frame, pool []directory.Employee) (directory.Employee, float64)
}

// MatchStrategyFunc adapts a plain function to MatchStrategy.
type MatchStrategyFunc func(frame camera.Frame, pool []directory.Employee) (directory.Employee, float64)

func (f MatchStrategyFunc) Match(frame camera.Frame, pool []directory.Employee) (directory.Employee, float64) {
	return f(frame, pool)
}

// RandomizedStrategy is the development placeholder: it picks an
// arbitrary pool member and draws a score uniformly from [0.6, 1.0).
// Nothing about it is a design requirement beyond the band.
type RandomizedStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomizedStrategy(seed int64) *RandomizedStrategy {
	return &RandomizedStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomizedStrategy) Match(frame camera.Frame, pool []directory.Employee) (directory.Employee, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate := pool[s.rng.Intn(len(pool))]
	score := 0.6 + s.rng.Float64()*0.4
	return candidate, score
}

// FixedStrategy always returns the given score against the first pool
// member. Test helper.
type FixedStrategy struct {
	Score float64
}

func (s FixedStrategy) Match(frame camera.Frame, pool []directory.Employee) (directory.Employee, float64) {
	return pool[0], s.Score
}
