// Package eventlog is the append-only encounter log shown to the game master.
package eventlog

import (
	"fmt"
	"time"

	"github.com/initiative-tracker/server/internal/core/event"
	"go.uber.org/zap"
)

// Entry is one line of the log.
type Entry struct {
	Seq  int
	Text string
	At   time.Time
}

// Log keeps every entry in memory and queues new ones for persistence.
// Game loop goroutine only.
type Log struct {
	entries   []Entry
	unflushed []Entry
	bus       *event.Bus
	log       *zap.Logger
	now       func() time.Time
}

// New creates a log. bus may be nil.
func New(bus *event.Bus, log *zap.Logger) *Log {
	return &Log{bus: bus, log: log, now: time.Now}
}

// AddEvent appends a free-text entry.
func (l *Log) AddEvent(text string) {
	e := Entry{Seq: len(l.entries) + 1, Text: text, At: l.now()}
	l.entries = append(l.entries, e)
	l.unflushed = append(l.unflushed, e)
	l.log.Info("encounter log", zap.Int("seq", e.Seq), zap.String("text", text))
	event.Emit(l.bus, event.LogAppended{Seq: e.Seq, Text: text})
}

// LogHPChange records damage (positive) or healing (negative) dealt to the
// named combatants. Zero is not logged.
func (l *Log) LogHPChange(amount int, names string) {
	switch {
	case amount > 0:
		l.AddEvent(fmt.Sprintf("%s took %d damage.", names, amount))
	case amount < 0:
		l.AddEvent(fmt.Sprintf("%s healed for %d.", names, -amount))
	}
}

// Entries returns a copy of every entry so far.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int { return len(l.entries) }

// TakeUnflushed returns entries added since the previous call and forgets them.
func (l *Log) TakeUnflushed() []Entry {
	out := l.unflushed
	l.unflushed = nil
	return out
}

// Requeue puts entries back in front of the unflushed buffer after a failed
// write so the next flush retries them.
func (l *Log) Requeue(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	l.unflushed = append(append([]Entry(nil), entries...), l.unflushed...)
}
