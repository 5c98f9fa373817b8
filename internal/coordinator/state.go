package coordinator

// State is a station's position in its refresh cycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateProcessing
	StateRendering
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateProcessing:
		return "processing"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
