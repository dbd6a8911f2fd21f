// Package commander interprets user and remote commands against the
// current combatant selection. Commands that need input enqueue a prompt and
// apply their effect from the prompt's completion callback.
package commander

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/world"
)

// Roster is the encounter the commander works on. *world.Encounter
// implements it.
type Roster interface {
	Combatants() []*world.Combatant
	Len() int
	At(i int) *world.Combatant
	IndexOf(c *world.Combatant) int
	RemoveCombatants(cs []*world.Combatant)
	MoveCombatant(c *world.Combatant, index int) int
	SortByInitiative()
	CleanInitiativeGroups()
	GroupMembers(c *world.Combatant) []*world.Combatant
	ActiveCombatant() *world.Combatant
	NextTurn()
	EndEncounter()
	CombatantCountsByName() map[string]int
	SetCombatantCountsByName(counts map[string]int)
	QueueEmitEncounter()
	OnCombatantsRemoved(fn func(removed []*world.Combatant))
}

type PromptQueue interface {
	Add(p *prompt.Prompt)
}

type DiceRoller interface {
	Roll(expr string) (dice.Result, error)
}

type EventLog interface {
	AddEvent(text string)
	LogHPChange(amount int, names string)
}

type Telemetry interface {
	TrackEvent(name string, props map[string]any)
}

// Settings is read at call time, never cached.
type Settings interface {
	AllowPlayerSuggestions() bool
	AutoCheckConcentration() bool
}

type ConcentrationRules interface {
	ConcentrationDC(damage int) int
}

// StatBlockEditor opens an editor for one stat block of the given kind
// ("combatant", "library"). save receives the edited block; remove is called
// when the user deletes the combatant.
type StatBlockEditor interface {
	EditStatBlock(kind string, sb data.StatBlock, save func(data.StatBlock), remove func())
}

// Deps holds the collaborators of a Commander.
type Deps struct {
	Roster    Roster
	Prompts   PromptQueue
	Dice      DiceRoller
	EventLog  EventLog
	Telemetry Telemetry
	Settings  Settings
	Rules     ConcentrationRules
	Editor    StatBlockEditor
	Log       *zap.Logger
}

// Commander owns the selection and the pending initiative link and exposes
// the command surface. Game loop goroutine only.
type Commander struct {
	roster    Roster
	prompts   PromptQueue
	dice      DiceRoller
	eventLog  EventLog
	telemetry Telemetry
	settings  Settings
	rules     ConcentrationRules
	editor    StatBlockEditor
	log       *zap.Logger

	selection  SelectionSet
	pending    pendingLink
	deferred   taskQueue
	latestRoll *dice.Result
}

func New(deps Deps) *Commander {
	c := &Commander{
		roster:    deps.Roster,
		prompts:   deps.Prompts,
		dice:      deps.Dice,
		eventLog:  deps.EventLog,
		telemetry: deps.Telemetry,
		settings:  deps.Settings,
		rules:     deps.Rules,
		editor:    deps.Editor,
		log:       deps.Log,
		pending:   linkIdle{},
	}
	c.roster.OnCombatantsRemoved(c.onCombatantsRemoved)
	return c
}

// Selection exposes the selection for derived signals and subscriptions.
func (c *Commander) Selection() *SelectionSet { return &c.selection }

// LatestRoll returns the last dice roll, or nil.
func (c *Commander) LatestRoll() *dice.Result { return c.latestRoll }

// Select selects combatant. When a link is pending, the pending combatant and
// this one are linked first and the waiting prompt is resolved; the
// selection then proceeds as usual.
func (c *Commander) Select(combatant *world.Combatant, additive bool) {
	if combatant == nil {
		return
	}
	if p, ok := c.pending.(awaitingSecond); ok {
		c.linkCombatantInitiatives([]*world.Combatant{combatant, p.combatant})
		if err := p.prompt.Resolve(nil); err != nil {
			c.log.Debug("link prompt already completed", zap.Uint64("prompt", p.prompt.ID))
		}
	}
	c.selection.Select(combatant, additive)
}

func (c *Commander) Deselect() {
	c.selection.DeselectAll()
}

func (c *Commander) SelectPrevious() {
	c.selection.SelectByOffset(c.roster, -1)
}

func (c *Commander) SelectNext() {
	c.selection.SelectByOffset(c.roster, 1)
}

// Remove removes every selected combatant from the roster in one pass.
func (c *Commander) Remove() {
	removing := c.selection.Items()
	if len(removing) == 0 {
		c.log.Debug("remove ignored: nothing selected")
		return
	}

	firstIndex := c.roster.IndexOf(removing[0])
	displayNames := joinNames(removing)
	gone := make(map[*world.Combatant]bool, len(removing))
	var statBlockNames []string
	for _, x := range removing {
		gone[x] = true
		statBlockNames = append(statBlockNames, x.StatBlock.Name)
	}

	// keep the turn off a combatant that is about to disappear. A surviving
	// group member already shares the turn, so no turn passes for it.
	if c.roster.Len() > len(removing) {
		visited := make(map[*world.Combatant]bool)
		for active := c.roster.ActiveCombatant(); gone[active] && !visited[active]; active = c.roster.ActiveCombatant() {
			if c.groupSurvives(active, gone) {
				break
			}
			visited[active] = true
			c.roster.NextTurn()
		}
	}

	c.roster.RemoveCombatants(removing)

	remaining := c.roster.Combatants()
	counts := c.roster.CombatantCountsByName()
	changed := false
	for _, name := range statBlockNames {
		if !anyNamed(remaining, name) {
			if _, ok := counts[name]; ok {
				delete(counts, name)
				changed = true
			}
		}
	}
	if changed {
		c.roster.SetCombatantCountsByName(counts)
	}

	if len(remaining) > 0 {
		idx := firstIndex
		if idx < 0 {
			idx = 0
		}
		if idx >= len(remaining) {
			idx = len(remaining) - 1
		}
		c.selection.Select(remaining[idx], false)
	} else {
		c.selection.DeselectAll()
		c.roster.EndEncounter()
	}

	c.eventLog.AddEvent(fmt.Sprintf("%s removed from encounter.", displayNames))
	c.telemetry.TrackEvent("CombatantsRemoved", map[string]any{"Names": statBlockNames})
	c.roster.QueueEmitEncounter()
}

// groupSurvives reports whether a member of x's initiative group is staying.
func (c *Commander) groupSurvives(x *world.Combatant, gone map[*world.Combatant]bool) bool {
	if x.InitiativeGroup == "" {
		return false
	}
	for _, m := range c.roster.GroupMembers(x) {
		if !gone[m] {
			return true
		}
	}
	return false
}

func anyNamed(cs []*world.Combatant, name string) bool {
	for _, x := range cs {
		if x.StatBlock.Name == name {
			return true
		}
	}
	return false
}

// onCombatantsRemoved keeps the selection and the pending link pointing at
// live combatants.
func (c *Commander) onCombatantsRemoved(removed []*world.Combatant) {
	c.selection.Prune(removed)
	if p, ok := c.pending.(awaitingSecond); ok && p.combatant != nil {
		for _, x := range removed {
			if x == p.combatant {
				p.combatant = nil
				c.pending = p
				break
			}
		}
	}
}

// MoveUp moves the first selected combatant one slot earlier in turn order.
func (c *Commander) MoveUp() {
	target := c.selection.First()
	if target == nil {
		return
	}
	idx := c.roster.IndexOf(target)
	if idx <= 0 {
		return
	}
	c.move(target, idx-1)
}

// MoveDown moves the first selected combatant one slot later in turn order.
func (c *Commander) MoveDown() {
	target := c.selection.First()
	if target == nil {
		return
	}
	idx := c.roster.IndexOf(target)
	if idx < 0 || idx >= c.roster.Len()-1 {
		return
	}
	c.move(target, idx+1)
}

func (c *Commander) move(target *world.Combatant, index int) {
	initiative := c.roster.MoveCombatant(target, index)
	c.eventLog.AddEvent(fmt.Sprintf("%s initiative set to %d.", target.Name(), initiative))
}

// liveTargets filters cs down to combatants still on the roster.
func (c *Commander) liveTargets(cs []*world.Combatant) []*world.Combatant {
	out := make([]*world.Combatant, 0, len(cs))
	for _, x := range cs {
		if x != nil && c.roster.IndexOf(x) >= 0 {
			out = append(out, x)
		}
	}
	return out
}
