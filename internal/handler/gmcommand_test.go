package handler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/initiative-tracker/server/internal/commander"
	"github.com/initiative-tracker/server/internal/config"
	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/eventlog"
	"github.com/initiative-tracker/server/internal/playerview"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/telemetry"
	"github.com/initiative-tracker/server/internal/world"
)

var (
	goblin = data.StatBlock{ID: "goblin", Name: "Goblin", HP: 7, AC: 15, InitiativeModifier: 2}
	ogre   = data.StatBlock{ID: "ogre", Name: "Ogre", HP: 59, AC: 11, InitiativeModifier: -1}
)

type recorder struct {
	lines []string
}

func (r *recorder) Send(line string) { r.lines = append(r.lines, line) }

func (r *recorder) Sendf(format string, a ...any) { r.Send(fmt.Sprintf(format, a...)) }

func (r *recorder) text() string { return strings.Join(r.lines, "\n") }

func (r *recorder) reset() { r.lines = nil }

// d20 always lands on 10.
type tenSource struct{}

func (tenSource) Intn(n int) int { return 9 % n }

type halfDamageRules struct{}

func (halfDamageRules) ConcentrationDC(damage int) int { return max(10, damage/2) }

type fixedDescriber struct{}

func (fixedDescriber) HPDescriptor(current, maxHP int) string { return "Hurt" }

func newDeps(t *testing.T) (*Deps, *recorder) {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{}
	cfg.PlayerView.AllowPlayerSuggestions = true
	cfg.Rules.AutoCheckConcentration = true
	settings := config.NewSettings(cfg)

	enc := world.NewEncounter()
	queue := prompt.NewQueue(log)
	elog := eventlog.New(nil, log)
	roller := dice.NewRoller(tenSource{})
	tracker := telemetry.NewTracker(nil, log)

	cmd := commander.New(commander.Deps{
		Roster:    enc,
		Prompts:   queue,
		Dice:      roller,
		EventLog:  elog,
		Telemetry: tracker,
		Settings:  settings,
		Rules:     halfDamageRules{},
		Editor:    NewStatBlockEditor(queue, log),
		Log:       log,
	})

	deps := &Deps{
		Settings:  settings,
		Log:       log,
		Encounter: enc,
		Commander: cmd,
		Prompts:   queue,
		Library:   data.NewStatBlockLibrary(goblin, ogre),
		EventLog:  elog,
		Dice:      roller,
		Telemetry: tracker,
		View:      playerview.NewPublisher(fixedDescriber{}, "", log),
	}
	return deps, &recorder{}
}

func lastLog(deps *Deps) string {
	entries := deps.EventLog.Entries()
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1].Text
}

func TestAddRollsInitiativeAndNumbers(t *testing.T) {
	deps, out := newDeps(t)

	HandleLine(out, ".add goblin 2", deps)
	require.Equal(t, 2, deps.Encounter.Len())
	assert.Equal(t, "Goblin 1", deps.Encounter.At(0).Name())
	assert.Equal(t, "Goblin 2", deps.Encounter.At(1).Name())
	assert.Equal(t, 12, deps.Encounter.At(0).Initiative)
	assert.Equal(t, "Goblin 1 (12), Goblin 2 (12) joined the encounter.", lastLog(deps))
	assert.True(t, deps.Encounter.TakeEmitPending())

	HandleLine(out, ".add dragon", deps)
	assert.Contains(t, out.text(), "Unknown stat block: dragon")
	HandleLine(out, ".add ogre 99", deps)
	assert.Contains(t, out.text(), "Count must be between 1 and 20.")
	assert.Equal(t, 2, deps.Encounter.Len())
}

func TestSelectAndDamageThroughPrompt(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add ogre", deps)
	HandleLine(out, ".add goblin", deps)
	// goblin rolls 12, ogre 9
	require.Equal(t, "Goblin", deps.Encounter.At(0).Name())

	HandleLine(out, ".select 1", deps)
	assert.Contains(t, out.text(), "Selected: Goblin")

	HandleLine(out, ".damage", deps)
	p := deps.Prompts.Current()
	require.NotNil(t, p)
	assert.Equal(t, prompt.KindApplyDamage, p.Kind)

	// bare text answers the first field
	HandleLine(out, "3", deps)
	assert.Equal(t, 4, deps.Encounter.At(0).CurrentHP)
	assert.Equal(t, "Goblin took 3 damage.", lastLog(deps))
	assert.Nil(t, deps.Prompts.Current())
}

func TestCommandRequirementsAreExplained(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add goblin 2", deps)

	HandleLine(out, ".damage", deps)
	assert.Contains(t, out.text(), "Apply Damage: select a combatant first.")
	assert.Nil(t, deps.Prompts.Current())

	HandleLine(out, ".select 1", deps)
	HandleLine(out, ".select 2 +", deps)
	HandleLine(out, ".statblock", deps)
	assert.Contains(t, out.text(), "Edit Stat Block: select exactly one combatant.")

	HandleLine(out, ".select 9", deps)
	assert.Contains(t, out.text(), "No combatant at position 9 (roster has 2).")

	HandleLine(out, ".fireball", deps)
	assert.Contains(t, out.text(), "Unknown command: .fireball")
}

func TestLinkCompletesOnNextSelect(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add goblin", deps)
	HandleLine(out, ".add ogre", deps)

	HandleLine(out, ".select 2", deps)
	HandleLine(out, ".link", deps)
	require.NotNil(t, deps.Prompts.Current())
	assert.True(t, deps.Commander.LinkPending())

	HandleLine(out, ".select 1", deps)
	assert.False(t, deps.Commander.LinkPending())
	assert.Nil(t, deps.Prompts.Current())
	a, b := deps.Encounter.At(0), deps.Encounter.At(1)
	assert.Equal(t, 12, a.Initiative)
	assert.Equal(t, 12, b.Initiative)
	assert.NotEmpty(t, a.InitiativeGroup)
	assert.Equal(t, a.InitiativeGroup, b.InitiativeGroup)
}

func TestParseAnswer(t *testing.T) {
	initiative := prompt.New(prompt.KindInitiative, "init", []prompt.Field{
		{ID: "initiative", Default: "12"},
		{ID: "breaklink", Default: "no"},
	}, nil)
	alias := prompt.New(prompt.KindAlias, "alias", []prompt.Field{{ID: "alias", Default: "Bob"}}, nil)

	tests := []struct {
		name string
		p    *prompt.Prompt
		in   string
		want map[string]string
	}{
		{"defaults", initiative, "", map[string]string{"initiative": "12", "breaklink": "no"}},
		{"bare value", initiative, "15", map[string]string{"initiative": "15", "breaklink": "no"}},
		{"named field", initiative, "breaklink=yes", map[string]string{"initiative": "12", "breaklink": "yes"}},
		{"both named", initiative, "initiative=3 breaklink=yes", map[string]string{"initiative": "3", "breaklink": "yes"}},
		{"lead and named", initiative, "8 breaklink=yes", map[string]string{"initiative": "8", "breaklink": "yes"}},
		{"spaces in value", alias, "alias=Big Bob", map[string]string{"alias": "Big Bob"}},
		{"unknown key is text", alias, "x=y", map[string]string{"alias": "x=y"}},
		{"explicit blank", alias, "alias=", map[string]string{"alias": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAnswer(tt.in, tt.p))
		})
	}

	assert.Nil(t, parseAnswer("anything", prompt.New(prompt.KindLinkInitiative, "link", nil, nil)))
}

func TestStatBlockEditorPatchesAndDeletes(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add ogre", deps)
	HandleLine(out, ".select 1", deps)

	HandleLine(out, ".statblock", deps)
	p := deps.Prompts.Current()
	require.NotNil(t, p)
	assert.Equal(t, prompt.KindStatBlock, p.Kind)
	assert.Contains(t, p.Message, "hp: 59")

	HandleLine(out, ".answer statblock={hp: 70, ac: 12}", deps)
	ogreNow := deps.Encounter.At(0)
	assert.Equal(t, 70, ogreNow.StatBlock.HP)
	assert.Equal(t, 12, ogreNow.StatBlock.AC)
	assert.Equal(t, "Ogre", ogreNow.StatBlock.Name)

	// an invalid edit leaves the stat block alone
	HandleLine(out, ".statblock", deps)
	HandleLine(out, ".answer statblock={hp: 0}", deps)
	assert.Equal(t, 70, deps.Encounter.At(0).StatBlock.HP)

	HandleLine(out, ".statblock", deps)
	HandleLine(out, ".answer delete=yes", deps)
	assert.Equal(t, 0, deps.Encounter.Len())
	assert.Equal(t, "Ogre removed from encounter.", lastLog(deps))
}

func TestShowPromptPrintsOnceAndFlushesRolls(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add goblin", deps)

	HandleLine(out, ".roll 1d20+1", deps)
	ShowPrompt(out, deps)
	assert.Contains(t, out.text(), "Rolled: 1d20+1 -> [10] + 1 = 11")
	assert.Nil(t, deps.Prompts.Current())

	HandleLine(out, ".select 1", deps)
	HandleLine(out, ".damage", deps)
	out.reset()
	ShowPrompt(out, deps)
	assert.Contains(t, out.text(), "? [apply_damage] Apply damage to Goblin")
	// default comes from the roll
	assert.Contains(t, out.text(), "damage: Damage (negative heals) [11]")

	out.reset()
	ShowPrompt(out, deps)
	assert.Empty(t, out.lines)

	HandleLine(out, ".answer", deps)
	assert.Equal(t, -4, deps.Encounter.At(0).CurrentHP)

	HandleLine(out, ".roll fireball", deps)
	assert.Contains(t, out.text(), "Cannot roll:")
}

func TestSuggestionsFollowSetting(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".add goblin", deps)

	HandleLine(out, ".allow off", deps)
	HandleLine(out, ".suggest Bob 5 1", deps)
	assert.Contains(t, out.text(), "Player suggestions are turned off")
	assert.Nil(t, deps.Prompts.Current())

	HandleLine(out, ".allow on", deps)
	HandleLine(out, ".suggest Bob 5 1", deps)
	p := deps.Prompts.Current()
	require.NotNil(t, p)
	assert.Equal(t, "Bob suggests applying 5 damage to Goblin.", p.Message)

	HandleLine(out, ".answer", deps)
	assert.Equal(t, 2, deps.Encounter.At(0).CurrentHP)
}

func TestDismissAndBareLines(t *testing.T) {
	deps, out := newDeps(t)

	HandleLine(out, "hello", deps)
	assert.Contains(t, out.text(), "Commands start with")
	HandleLine(out, ".dismiss", deps)
	assert.Contains(t, out.text(), "No prompt is waiting.")

	HandleLine(out, ".add goblin", deps)
	HandleLine(out, ".tag 1", deps)
	require.NotNil(t, deps.Prompts.Current())
	HandleLine(out, ".dismiss", deps)
	assert.Nil(t, deps.Prompts.Current())
	assert.Empty(t, deps.Encounter.At(0).Tags)
}

func TestEncounterLifecycle(t *testing.T) {
	deps, out := newDeps(t)

	HandleLine(out, ".start", deps)
	assert.Contains(t, out.text(), "Add combatants first.")
	HandleLine(out, ".turn", deps)
	assert.Contains(t, out.text(), "No encounter is running.")

	HandleLine(out, ".add goblin", deps)
	HandleLine(out, ".add ogre", deps)
	out.reset()
	HandleLine(out, ".start", deps)
	assert.Equal(t, []string{"Round 1: Goblin's turn."}, out.lines)

	out.reset()
	HandleLine(out, ".turn", deps)
	HandleLine(out, ".turn", deps)
	assert.Equal(t, []string{"Round 1: Ogre's turn.", "Round 2: Goblin's turn."}, out.lines)

	HandleLine(out, ".end", deps)
	assert.Equal(t, world.StateInactive, deps.Encounter.State())
	assert.Equal(t, "Encounter ended.", lastLog(deps))
}

func TestListAndView(t *testing.T) {
	deps, out := newDeps(t)
	HandleLine(out, ".list", deps)
	assert.Contains(t, out.text(), "The roster is empty.")

	HandleLine(out, ".add goblin", deps)
	HandleLine(out, ".select 1", deps)
	out.reset()
	HandleLine(out, ".list", deps)
	require.Len(t, out.lines, 1)
	assert.True(t, strings.HasPrefix(out.lines[0], " *  1. Goblin"))
	assert.Contains(t, out.lines[0], "HP 7/7")

	out.reset()
	HandleLine(out, ".view", deps)
	assert.Contains(t, out.text(), "name: Goblin")
	assert.Contains(t, out.text(), "hp: Hurt")
}
