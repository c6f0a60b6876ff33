package proc

// State represents the lifecycle state of a process.
type State int

// Process lifecycle states.
const (
	StateUnused State = iota
	StateEmbryo
	StateRunnable
	StateRunning
	StateSleeping
	StateZombie
)

var stateNames = map[State]string{
	StateUnused:   "unused",
	StateEmbryo:   "embryo",
	StateRunnable: "runnable",
	StateRunning:  "running",
	StateSleeping: "sleeping",
	StateZombie:   "zombie",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
