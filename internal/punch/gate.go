package punch

import (
	"sync"

	puncherrors "github.com/MisterMaquinas/Ponto-Dom-sub000/internal/punch/errors"
	"github.com/MisterMaquinas/Ponto-Dom-sub000/internal/recognition"
)

type GateState string

const (
	GateEmpty     GateState = "empty"
	GatePending   GateState = "pending"
	GateConfirmed GateState = "confirmed"
)

// ConfirmationGate holds one tentative recognition result until the
// operator confirms or rejects it. Only success attempts ever enter;
// low-confidence and no-match results are reported to the operator
// directly and never reach the gate.
type ConfirmationGate struct {
	mu      sync.Mutex
	state   GateState
	attempt recognition.Attempt
}

func NewConfirmationGate() *ConfirmationGate {
	return &ConfirmationGate{state: GateEmpty}
}

func (g *ConfirmationGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Offer places a success attempt into the gate. A new capture may not
// begin while an attempt is pending.
func (g *ConfirmationGate) Offer(attempt recognition.Attempt) error {
	if attempt.Outcome != recognition.OutcomeSuccess || attempt.Employee == nil {
		return puncherrors.ErrNotConfirmed
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GateEmpty {
		return puncherrors.ErrAttemptPending
	}
	g.state = GatePending
	g.attempt = attempt
	return nil
}

// Pending returns the held attempt without resolving it.
func (g *ConfirmationGate) Pending() (recognition.Attempt, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GatePending {
		return recognition.Attempt{}, false
	}
	return g.attempt, true
}

// Confirm resolves the pending attempt and hands it out exactly once.
// A second Confirm fails; one pending attempt yields at most one
// punch record.
func (g *ConfirmationGate) Confirm() (recognition.Attempt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.state {
	case GatePending:
		g.state = GateConfirmed
		return g.attempt, nil
	case GateConfirmed:
		return recognition.Attempt{}, puncherrors.ErrAlreadyConfirmed
	default:
		return recognition.Attempt{}, puncherrors.ErrNoPendingAttempt
	}
}

// Reject discards the pending attempt; the camera may resume for a new
// capture.
func (g *ConfirmationGate) Reject() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GatePending {
		return puncherrors.ErrNoPendingAttempt
	}
	g.state = GateEmpty
	g.attempt = recognition.Attempt{}
	return nil
}

// Reset empties the gate after the confirmed attempt was recorded.
func (g *ConfirmationGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GateEmpty
	g.attempt = recognition.Attempt{}
}
