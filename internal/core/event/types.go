package event

// Telemetry is a fire-and-forget named event with a property bag.
// Emitted by telemetry.Tracker, consumed by telemetry.Recorder.
type Telemetry struct {
	Name  string
	Props map[string]any
}

// LogAppended is emitted for every event log entry so sinks outside the
// game loop (persistence, spectators) can follow the log.
type LogAppended struct {
	Seq  int
	Text string
}
