package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for table-top rule formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
// Missing directories are skipped; every rule has a Go fallback.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core first, then house rules so they can override
	for _, sub := range []string{"core", "rules"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// --- Concentration Bridge ---

// ConcentrationDC calls Lua concentration_dc(damage).
// Falls back to the 5e rule: half the damage taken, minimum 10.
func (e *Engine) ConcentrationDC(damage int) int {
	dc, ok := e.callIntFunc("concentration_dc", damage)
	if !ok {
		return defaultConcentrationDC(damage)
	}
	return dc
}

func defaultConcentrationDC(damage int) int {
	return max(10, damage/2)
}

// --- Player View Bridge ---

// HPDescriptor calls Lua hp_descriptor(current, max) for the text shown to
// players in place of exact hit points.
func (e *Engine) HPDescriptor(current, maxHP int) string {
	fn := e.vm.GetGlobal("hp_descriptor")
	if fn == lua.LNil {
		return defaultHPDescriptor(current, maxHP)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(current), lua.LNumber(maxHP)); err != nil {
		e.log.Error("lua hp_descriptor error", zap.Error(err))
		return defaultHPDescriptor(current, maxHP)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	s, ok := result.(lua.LString)
	if !ok || s == "" {
		return defaultHPDescriptor(current, maxHP)
	}
	return string(s)
}

func defaultHPDescriptor(current, maxHP int) string {
	switch {
	case current <= 0:
		return "Defeated"
	case current < maxHP/2:
		return "Bloodied"
	case current < maxHP:
		return "Hurt"
	default:
		return "Healthy"
	}
}

// --- Lua helpers ---

// callIntFunc calls a Lua function with int args and returns an int result.
// ok is false when the function is missing, errors, or returns a non-number.
func (e *Engine) callIntFunc(name string, args ...int) (int, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Debug("lua function not found", zap.String("name", name))
		return 0, false
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number", zap.String("func", name))
		return 0, false
	}
	return int(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
