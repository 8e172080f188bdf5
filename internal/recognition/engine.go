package recognition

import (
	"context"
	"time"

	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/camera"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/directory"

	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeNoMatch       Outcome = "no_match"
)

const (
	// DefaultThreshold separates success from low_confidence.
	DefaultThreshold = 0.75
	// DefaultMinLatency models processing time of the matcher.
	DefaultMinLatency = 1500 * time.Millisecond
)

// Attempt is the ephemeral result of evaluating one frame. It is never
// persisted on its own: it is either promoted to a punch record through
// the confirmation gate or discarded. Employee is nil unless the
// outcome is success; RawScore keeps the matcher's score for
// diagnostics even below the threshold.
type Attempt struct {
	Frame       camera.Frame
	Employee    *directory.Employee
	Confidence  float64
	RawScore    float64
	Outcome     Outcome
	EvaluatedAt time.Time
}

type Engine struct {
	strategy   MatchStrategy
	threshold  float64
	minLatency time.Duration
	logger     *zap.Logger
}

type Option func(*Engine)

func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

func WithMinLatency(d time.Duration) Option {
	return func(e *Engine) { e.minLatency = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l.Named("recognition.engine") }
}

func NewEngine(strategy MatchStrategy, opts ...Option) *Engine {
	e := &Engine{
		strategy:   strategy,
		threshold:  DefaultThreshold,
		minLatency: DefaultMinLatency,
		logger:     zap.L().Named("recognition.engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate scores the frame against the candidate pool. It blocks for
// at least the configured minimum latency and honors ctx cancellation,
// so a stopped session discards the result instead of waiting on it.
// An empty pool is a no_match, never an error.
func (e *Engine) Evaluate(ctx context.Context, frame camera.Frame, pool []directory.Employee) (Attempt, error) {
	if err := e.wait(ctx); err != nil {
		return Attempt{}, err
	}

	now := time.Now().UTC()

	if len(pool) == 0 {
		e.logger.Info("evaluation against empty pool", zap.String("frame_id", frame.ID))
		return Attempt{
			Frame:       frame,
			Outcome:     OutcomeNoMatch,
			Confidence:  0,
			RawScore:    0,
			EvaluatedAt: now,
		}, nil
	}

	candidate, score := e.strategy.Match(frame, pool)

	if score < e.threshold {
		e.logger.Info("match below threshold",
			zap.String("frame_id", frame.ID),
			zap.Float64("score", score),
			zap.Float64("threshold", e.threshold),
		)
		// the candidate is withheld below the threshold; downstream
		// treats this the same as no match
		return Attempt{
			Frame:       frame,
			Outcome:     OutcomeLowConfidence,
			Confidence:  score,
			RawScore:    score,
			EvaluatedAt: now,
		}, nil
	}

	matched := candidate
	e.logger.Info("match above threshold",
		zap.String("frame_id", frame.ID),
		zap.String("employee_id", matched.ID.String()),
		zap.Float64("score", score),
	)
	return Attempt{
		Frame:       frame,
		Employee:    &matched,
		Confidence:  score,
		RawScore:    score,
		Outcome:     OutcomeSuccess,
		EvaluatedAt: now,
	}, nil
}

func (e *Engine) wait(ctx context.Context) error {
	if e.minLatency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(e.minLatency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
