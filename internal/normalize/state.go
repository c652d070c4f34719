package normalize

// State is the normalization lifecycle state of a file.
type State int

const (
	StateIdle State = iota
	StateAnalyzing
	StateApplying
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAnalyzing:
		return "analyzing"
	case StateApplying:
		return "applying"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateApplying || s == StateSkipped || s == StateFailed
}
