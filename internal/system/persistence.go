package system

import (
	"context"
	"time"

	coresys "github.com/initiative-tracker/server/internal/core/system"
	"github.com/initiative-tracker/server/internal/eventlog"
	"github.com/initiative-tracker/server/internal/telemetry"
	"go.uber.org/zap"
)

// EntryWriter stores encounter log entries. persist.EventLogRepo implements it.
type EntryWriter interface {
	WriteEntries(ctx context.Context, entries []eventlog.Entry) error
}

// RecordWriter stores telemetry records. persist.TelemetryRepo implements it.
type RecordWriter interface {
	WriteRecords(ctx context.Context, records []telemetry.Record) error
}

// PersistenceSystem periodically writes new log entries and telemetry records
// to the database. Phase 4 (Persist). Failed batches are requeued and retried
// on the next flush; nil writers discard.
type PersistenceSystem struct {
	eventLog  *eventlog.Log
	recorder  *telemetry.Recorder
	entries   EntryWriter
	records   RecordWriter
	log       *zap.Logger
	tickCount int
	interval  int // flush every N ticks
}

func NewPersistenceSystem(eventLog *eventlog.Log, recorder *telemetry.Recorder, entries EntryWriter, records RecordWriter, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		eventLog: eventLog,
		recorder: recorder,
		entries:  entries,
		records:  records,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes everything pending now. Called on shutdown as well.
func (s *PersistenceSystem) Flush() {
	s.flushEntries()
	s.flushRecords()
}

func (s *PersistenceSystem) flushEntries() {
	batch := s.eventLog.TakeUnflushed()
	if len(batch) == 0 || s.entries == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.entries.WriteEntries(ctx, batch); err != nil {
		s.log.Error("event log flush failed", zap.Int("entries", len(batch)), zap.Error(err))
		s.eventLog.Requeue(batch)
		return
	}
	s.log.Debug("event log flushed", zap.Int("entries", len(batch)))
}

func (s *PersistenceSystem) flushRecords() {
	batch := s.recorder.TakeUnflushed()
	if len(batch) == 0 || s.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.records.WriteRecords(ctx, batch); err != nil {
		s.log.Error("telemetry flush failed", zap.Int("records", len(batch)), zap.Error(err))
		s.recorder.Requeue(batch)
		return
	}
	s.log.Debug("telemetry flushed", zap.Int("records", len(batch)))
}
