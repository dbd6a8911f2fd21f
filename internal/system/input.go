package system

import (
	"time"

	coresys "github.com/initiative-tracker/server/internal/core/system"
	"github.com/initiative-tracker/server/internal/handler"
	"go.uber.org/zap"
)

// Output is the console side the systems write to.
type Output interface {
	handler.Output
	FlushOutput()
}

// InputSystem drains console lines and runs them as commands. Phase 0 (Input).
type InputSystem struct {
	lines      <-chan string
	out        Output
	deps       *handler.Deps
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(lines <-chan string, out Output, deps *handler.Deps, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		lines:      lines,
		out:        out,
		deps:       deps,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case line, ok := <-s.lines:
			if !ok {
				goto done
			}
			s.handle(line)
		default:
			goto done
		}
	}
done:

	// replies to this tick's lines go out before the later phases run
	s.out.FlushOutput()
}

// handle runs one line, then the tasks it deferred, then shows whatever
// prompt is now waiting. A panicking command is logged and dropped.
func (s *InputSystem) handle(line string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("console command panic recovered",
				zap.String("line", line),
				zap.Any("panic", r),
			)
			s.out.Send("Command failed, see the log.")
		}
	}()

	handler.HandleLine(s.out, line, s.deps)
	s.deps.Commander.FlushDeferred()
	handler.ShowPrompt(s.out, s.deps)
}
