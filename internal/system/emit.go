package system

import (
	"time"

	coresys "github.com/initiative-tracker/server/internal/core/system"
	"github.com/initiative-tracker/server/internal/playerview"
	"github.com/initiative-tracker/server/internal/world"
	"go.uber.org/zap"
)

// EmitSystem publishes the player view when the encounter asked for it and
// flushes console output. Phase 3 (Output).
type EmitSystem struct {
	enc  *world.Encounter
	view *playerview.Publisher
	out  Output
	log  *zap.Logger
}

func NewEmitSystem(enc *world.Encounter, view *playerview.Publisher, out Output, log *zap.Logger) *EmitSystem {
	return &EmitSystem{enc: enc, view: view, out: out, log: log}
}

func (s *EmitSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *EmitSystem) Update(_ time.Duration) {
	// several changes in one tick collapse into one publish
	if s.enc.TakeEmitPending() {
		if err := s.view.Publish(s.enc); err != nil {
			s.log.Error("player view publish failed", zap.Error(err))
		}
	}
	s.out.FlushOutput()
}
