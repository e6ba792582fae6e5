package timeline

// Kind says how a row's values are interpreted.
type Kind int

const (
	// KindState rows hold small state codes, one per sample.
	KindState Kind = iota

	// KindCounter rows hold numeric measurements.
	KindCounter
)

func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String. Unknown names map to KindState.
func ParseKind(s string) Kind {
	if s == "counter" {
		return KindCounter
	}
	return KindState
}

// State codes stored in KindState rows.
const (
	StateUnknown int64 = iota
	StateRunning
	StateSleeping
	StateWaiting
	StateBlocked
	StateIdle
	StateStopped
	StateZombie
)

var stateNames = map[int64]string{
	StateUnknown:  "unknown",
	StateRunning:  "running",
	StateSleeping: "sleeping",
	StateWaiting:  "waiting",
	StateBlocked:  "blocked",
	StateIdle:     "idle",
	StateStopped:  "stopped",
	StateZombie:   "zombie",
}

// StateName returns the display name of a state code.
func StateName(code int64) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return stateNames[StateUnknown]
}
