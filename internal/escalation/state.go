package escalation

// State is the phase of an escalation.
type State int

const (
	// StateIdle is the state before the first round.
	StateIdle State = iota
	// StateNotifying raises the notification.
	StateNotifying
	// StateSoundLooping starts the sound.
	StateSoundLooping
	// StateProgramRunning starts the program.
	StateProgramRunning
	// StateAwaitingRepeat waits for the next round.
	StateAwaitingRepeat
	// StateAcknowledged is terminal: the user stopped the alert.
	StateAcknowledged
	// StateExhausted is terminal: no rounds are left. Actions of the last round
	// may still be running until acknowledged.
	StateExhausted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNotifying:
		return "notifying"
	case StateSoundLooping:
		return "sound-looping"
	case StateProgramRunning:
		return "program-running"
	case StateAwaitingRepeat:
		return "awaiting-repeat"
	case StateAcknowledged:
		return "acknowledged"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further rounds will run.
func (s State) Terminal() bool {
	return s == StateAcknowledged || s == StateExhausted
}
