package model

// Phase describes the countdown's current mode.
type Phase string

const (
	PhaseReady    Phase = "ready"
	PhaseRunning  Phase = "running"
	PhasePaused   Phase = "paused"
	PhaseCooldown Phase = "cooldown"
)

// ParsePhase converts a wire status into a Phase.
func ParsePhase(value string) (Phase, bool) {
	switch Phase(value) {
	case PhaseReady, PhaseRunning, PhasePaused, PhaseCooldown:
		return Phase(value), true
	}
	return "", false
}

// TimerState is an immutable snapshot of the countdown.
type TimerState struct {
	Phase            Phase
	TotalSeconds     int
	RemainingSeconds int
}

// NewTimerState returns a ready state for the given duration.
func NewTimerState(totalSeconds int) TimerState {
	if totalSeconds <= 0 {
		totalSeconds = DefaultDurationSeconds
	}
	return TimerState{
		Phase:            PhaseReady,
		TotalSeconds:     totalSeconds,
		RemainingSeconds: totalSeconds,
	}
}

// WithPhase returns a copy in the given phase. Ready and cooldown always
// carry a full remaining time.
func (state TimerState) WithPhase(phase Phase) TimerState {
	state.Phase = phase
	if phase == PhaseReady || phase == PhaseCooldown {
		state.RemainingSeconds = state.TotalSeconds
	}
	return state
}

// Valid reports whether the snapshot satisfies the timer invariants.
func (state TimerState) Valid() bool {
	if state.TotalSeconds <= 0 || state.RemainingSeconds < 0 {
		return false
	}
	if state.RemainingSeconds > state.TotalSeconds {
		return false
	}
	switch state.Phase {
	case PhaseReady, PhaseCooldown:
		return state.RemainingSeconds == state.TotalSeconds
	case PhaseRunning, PhasePaused:
		return true
	}
	return false
}
