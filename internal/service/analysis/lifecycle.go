package analysis

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of an analysis.
type State int

const (
	// StateReceived - Audio accepted, transcription pending.
	StateReceived State = iota
	// StateTranscribed - Transcript and rate available, feedback pending.
	StateTranscribed
	// StateCompleted - Both reports produced. Terminal.
	StateCompleted
	// StateFailed - A stage failed; no partial result is returned. Terminal.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateReceived:
		return "RECEIVED"
	case StateTranscribed:
		return "TRANSCRIBED"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (COMPLETED or FAILED).
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Stage names the pipeline step that runs in a non-terminal state.
func (s State) Stage() string {
	switch s {
	case StateReceived:
		return StageTranscription
	case StateTranscribed:
		return StageFeedback
	default:
		return ""
	}
}

// Pipeline stages reported in failure events.
const (
	StageTranscription = "transcription"
	StageFeedback      = "feedback"
)

// Errors for invalid state transitions.
var (
	ErrAnalysisClosed     = errors.New("analysis is closed")
	ErrAlreadyTranscribed = errors.New("analysis already transcribed")
	ErrNotTranscribed     = errors.New("cannot complete before transcription")
)

// Lifecycle manages the state machine for a single analysis.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	RECEIVED → TRANSCRIBED → COMPLETED
//	    │           │
//	    └───────────┴── Fail() ──→ FAILED
type Lifecycle struct {
	mu         sync.RWMutex
	analysisID string
	state      State
}

// NewLifecycle creates a new analysis lifecycle in RECEIVED state.
func NewLifecycle(analysisID string) *Lifecycle {
	return &Lifecycle{
		analysisID: analysisID,
		state:      StateReceived,
	}
}

// AnalysisID returns the analysis ID.
func (l *Lifecycle) AnalysisID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.analysisID
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsClosed returns true if the analysis is in a terminal state.
func (l *Lifecycle) IsClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// MarkTranscribed moves RECEIVED to TRANSCRIBED.
func (l *Lifecycle) MarkTranscribed() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateReceived:
		l.state = StateTranscribed
		return nil
	case StateTranscribed:
		return ErrAlreadyTranscribed
	case StateCompleted, StateFailed:
		return ErrAnalysisClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Complete moves TRANSCRIBED to COMPLETED.
func (l *Lifecycle) Complete() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateTranscribed:
		l.state = StateCompleted
		return nil
	case StateReceived:
		return ErrNotTranscribed
	case StateCompleted, StateFailed:
		return ErrAnalysisClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Fail transitions the analysis to FAILED and returns the stage that was running.
// Returns false if already in a terminal state.
func (l *Lifecycle) Fail() (stage string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return "", false
	}
	stage = l.state.Stage()
	l.state = StateFailed
	return stage, true
}
