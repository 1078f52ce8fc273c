package clearing

// LifecycleState is a superset of the order book's own {Collecting,
// Revealing, Frozen} machine, for host-level orchestration of an epoch
// beyond what the CORE itself tracks (cmd/clearer uses this to drive
// oracle polling, solving, publication, and settlement without touching
// orderbook.Phase's narrower semantics).
type LifecycleState int

const (
	LifecycleCollect LifecycleState = iota
	LifecycleReveal
	LifecycleSolving
	LifecyclePublished
	LifecycleSettling
	LifecycleCompleted
)

func (s LifecycleState) String() string {
	switch s {
	case LifecycleCollect:
		return "Collect"
	case LifecycleReveal:
		return "Reveal"
	case LifecycleSolving:
		return "Solving"
	case LifecyclePublished:
		return "Published"
	case LifecycleSettling:
		return "Settling"
	case LifecycleCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// EpochLifecycle tracks the broader host-orchestration state of one epoch.
type EpochLifecycle struct {
	state LifecycleState
}

func NewEpochLifecycle() *EpochLifecycle {
	return &EpochLifecycle{state: LifecycleCollect}
}

func (l *EpochLifecycle) State() LifecycleState { return l.state }

// Advance moves the lifecycle forward by one step. It is a no-op past
// Completed.
func (l *EpochLifecycle) Advance() {
	if l.state < LifecycleCompleted {
		l.state++
	}
}
