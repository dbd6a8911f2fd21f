package handler

import (
	"github.com/initiative-tracker/server/internal/commander"
	"github.com/initiative-tracker/server/internal/config"
	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/eventlog"
	"github.com/initiative-tracker/server/internal/playerview"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/telemetry"
	"github.com/initiative-tracker/server/internal/world"
	"go.uber.org/zap"
)

// Output is where command replies go. console.Console implements it.
type Output interface {
	Send(line string)
	Sendf(format string, a ...any)
}

// Deps holds shared dependencies injected into all console commands.
type Deps struct {
	Settings  *config.Settings
	Log       *zap.Logger
	Encounter *world.Encounter
	Commander *commander.Commander
	Prompts   *prompt.Queue
	Library   *data.StatBlockLibrary
	EventLog  *eventlog.Log
	Dice      *dice.Roller
	Telemetry *telemetry.Tracker
	View      *playerview.Publisher

	shownPrompt uint64 // last prompt printed by ShowPrompt
}
