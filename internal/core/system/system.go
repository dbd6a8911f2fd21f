package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain console lines, run commands
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: deferred command tasks
	PhaseOutput                  // 3: propagate encounter state to spectators
	PhasePersist                 // 4: flush log + telemetry sinks
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
