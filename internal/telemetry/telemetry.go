// Package telemetry reports named usage events. Reporting never blocks the
// caller and never fails visibly: events ride the bus and are buffered by a
// Recorder for the persist system.
package telemetry

import (
	"time"

	"github.com/initiative-tracker/server/internal/core/event"
	"go.uber.org/zap"
)

// Tracker is the sink handed to the commander.
type Tracker struct {
	bus *event.Bus
	log *zap.Logger
}

func NewTracker(bus *event.Bus, log *zap.Logger) *Tracker {
	return &Tracker{bus: bus, log: log}
}

// TrackEvent reports a named event with an optional property bag.
func (t *Tracker) TrackEvent(name string, props map[string]any) {
	t.log.Debug("telemetry", zap.String("event", name), zap.Any("props", props))
	event.Emit(t.bus, event.Telemetry{Name: name, Props: props})
}

// Record is one buffered telemetry event.
type Record struct {
	Name  string
	Props map[string]any
	At    time.Time
}

// Recorder collects telemetry events delivered by the bus.
// Game loop goroutine only.
type Recorder struct {
	pending []Record
	now     func() time.Time
}

// NewRecorder subscribes a recorder to bus.
func NewRecorder(bus *event.Bus) *Recorder {
	r := &Recorder{now: time.Now}
	event.Subscribe(bus, func(e event.Telemetry) {
		r.pending = append(r.pending, Record{Name: e.Name, Props: e.Props, At: r.now()})
	})
	return r
}

// TakeUnflushed returns records collected since the previous call.
func (r *Recorder) TakeUnflushed() []Record {
	out := r.pending
	r.pending = nil
	return out
}

// Requeue puts records back after a failed write.
func (r *Recorder) Requeue(records []Record) {
	if len(records) == 0 {
		return
	}
	r.pending = append(append([]Record(nil), records...), r.pending...)
}
