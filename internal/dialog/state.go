package dialog

import (
	"time"

	"github.com/rs/zerolog"
)

// State is one of the fixed conversation states. Exactly one is active at
// any instant.
type State int

const (
	StateIdle State = iota
	StateListening
	StateProcessing
	StateSpeaking
	StateVerifyMobile
	StateVerifySecondary
	StateVerified
	StateVerifyFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateSpeaking:
		return "speaking"
	case StateVerifyMobile:
		return "verify_mobile"
	case StateVerifySecondary:
		return "verify_secondary"
	case StateVerified:
		return "verified"
	case StateVerifyFailed:
		return "verify_failed"
	default:
		return "unknown"
	}
}

// IsListening reports whether audio is actively buffered and evaluated for
// endpoints in this state. VerifyFailed stays listening-capable so retry
// flows driven by the controller's own attempt counter remain possible.
func (s State) IsListening() bool {
	switch s {
	case StateListening, StateVerifyMobile, StateVerifySecondary, StateVerifyFailed:
		return true
	}
	return false
}

// Machine is the conversation state machine. Guarded transitions only;
// unexpected event calls are silent no-ops so unrelated subsystems can call
// handlers defensively. All mutation happens on the single controller
// goroutine.
type Machine struct {
	state      State
	lastChange time.Time
	log        zerolog.Logger
}

// NewMachine creates a machine in StateIdle.
func NewMachine(log zerolog.Logger) *Machine {
	return &Machine{state: StateIdle, lastChange: time.Now(), log: log}
}

// State returns the active state.
func (m *Machine) State() State {
	return m.state
}

// LastChange returns when the state last changed.
func (m *Machine) LastChange() time.Time {
	return m.lastChange
}

// TransitionTo moves to the target state unconditionally. Used by the
// controller for dialogue-driven targets (e.g. back into VerifySecondary
// after a barge-in).
func (m *Machine) TransitionTo(target State) {
	m.log.Debug().
		Str("from", m.state.String()).
		Str("to", target.String()).
		Msg("state transition")
	m.state = target
	m.lastChange = time.Now()
}

// OnStart moves Idle to Listening.
func (m *Machine) OnStart() {
	if m.state == StateIdle {
		m.TransitionTo(StateListening)
	}
}

// OnUserFinishedSpeaking moves any listening-capable state to Processing.
func (m *Machine) OnUserFinishedSpeaking() {
	if m.state.IsListening() {
		m.TransitionTo(StateProcessing)
	}
}

// OnProcessingDone moves Processing to Speaking.
func (m *Machine) OnProcessingDone() {
	if m.state == StateProcessing {
		m.TransitionTo(StateSpeaking)
	}
}

// OnTTSFinished moves Speaking to Listening. Used only when no explicit
// next-state override is pending.
func (m *Machine) OnTTSFinished() {
	if m.state == StateSpeaking {
		m.TransitionTo(StateListening)
	}
}

// OnBargeIn moves Speaking to the given target.
func (m *Machine) OnBargeIn(target State) {
	if m.state == StateSpeaking {
		m.log.Info().Str("to", target.String()).Msg("user interrupted agent speech")
		m.TransitionTo(target)
	}
}
