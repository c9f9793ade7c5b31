package containers

import "time"

// State is the lifecycle state of a container record.
type State int

const (
	StateAbsent State = iota
	StateStarting
	StateRunning
	StateStopped
	StateRemoving
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateRemoving:
		return "removing"
	default:
		return "unknown"
	}
}

// Record is the Container Manager's view of a single user's container.
// The manager is the sole owner; callers never mutate a Record directly.
type Record struct {
	UserID     string
	Image      string
	CreatedAt  time.Time
	LastUse    time.Time
	State      State
	containerID string
}

func (r *Record) snapshot() Record {
	return Record{
		UserID:      r.UserID,
		Image:       r.Image,
		CreatedAt:   r.CreatedAt,
		LastUse:     r.LastUse,
		State:       r.State,
		containerID: r.containerID,
	}
}
