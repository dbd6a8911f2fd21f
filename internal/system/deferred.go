package system

import (
	"time"

	coresys "github.com/initiative-tracker/server/internal/core/system"
	"github.com/initiative-tracker/server/internal/handler"
	"go.uber.org/zap"
)

// DeferredSystem runs commander tasks queued outside the input phase.
// Phase 2 (Update).
type DeferredSystem struct {
	deps *handler.Deps
	out  Output
	log  *zap.Logger
}

func NewDeferredSystem(deps *handler.Deps, out Output, log *zap.Logger) *DeferredSystem {
	return &DeferredSystem{deps: deps, out: out, log: log}
}

func (s *DeferredSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *DeferredSystem) Update(_ time.Duration) {
	n := s.deps.Commander.FlushDeferred()
	if n == 0 {
		return
	}
	s.log.Debug("deferred tasks ran", zap.Int("count", n))
	handler.ShowPrompt(s.out, s.deps)
}
