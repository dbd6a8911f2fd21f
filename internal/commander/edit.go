package commander

import (
	"fmt"
	"strconv"

	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/world"
)

// AddTag opens the tag prompt for the selection. A non-nil combatant is
// selected first, replacing the selection.
func (c *Commander) AddTag(combatant *world.Combatant) {
	if combatant != nil {
		c.Select(combatant, false)
	}
	targets := c.selection.Items()
	if len(targets) == 0 {
		c.log.Debug("add tag ignored: nothing selected")
		return
	}

	p := prompt.New(prompt.KindTag,
		fmt.Sprintf("Add a tag to %s", joinNames(targets)),
		[]prompt.Field{
			{ID: "tag", Label: "Tag text"},
			{ID: "duration", Label: "Duration in rounds (blank = until removed)"},
		},
		func(r prompt.Response) {
			text, ok := r.Value("tag")
			if !ok {
				return
			}
			duration := 0
			if v, ok := r.Value("duration"); ok {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					duration = n
				}
			}
			live := c.liveTargets(targets)
			if len(live) == 0 {
				return
			}
			for _, t := range live {
				t.AddTag(world.Tag{Text: text, DurationRemaining: duration})
			}
			c.eventLog.AddEvent(fmt.Sprintf("%s added tag: \"%s\"", joinNames(live), text))
			c.roster.QueueEmitEncounter()
		})
	c.prompts.Add(p)
}

// EditInitiative opens an initiative prompt for each selected combatant.
func (c *Commander) EditInitiative() {
	for _, t := range c.selection.Items() {
		c.prompts.Add(c.initiativePrompt(t))
	}
}

func (c *Commander) initiativePrompt(target *world.Combatant) *prompt.Prompt {
	fields := []prompt.Field{{ID: "initiative", Label: "Initiative", Default: strconv.Itoa(target.Initiative)}}
	if target.InitiativeGroup != "" {
		fields = append(fields, prompt.Field{ID: "breaklink", Label: "Break initiative link? (yes/no)", Default: "no"})
	}
	return prompt.New(prompt.KindInitiative,
		fmt.Sprintf("Update initiative for %s", target.Name()),
		fields,
		func(r prompt.Response) {
			initiative, ok := c.intField(r, "initiative")
			if !ok || c.roster.IndexOf(target) < 0 {
				return
			}
			if target.InitiativeGroup != "" && r.Truthy("breaklink") {
				target.InitiativeGroup = ""
			}
			for _, m := range c.roster.GroupMembers(target) {
				m.Initiative = initiative
			}
			c.roster.CleanInitiativeGroups()
			c.roster.SortByInitiative()
			c.eventLog.AddEvent(fmt.Sprintf("%s initiative set to %d.", target.Name(), initiative))
			c.roster.QueueEmitEncounter()
		})
}

// SetAlias opens an alias prompt for each selected combatant.
func (c *Commander) SetAlias() {
	for _, t := range c.selection.Items() {
		c.prompts.Add(c.aliasPrompt(t))
	}
}

func (c *Commander) aliasPrompt(target *world.Combatant) *prompt.Prompt {
	return prompt.New(prompt.KindAlias,
		fmt.Sprintf("Change alias for %s (blank clears)", target.Name()),
		[]prompt.Field{{ID: "alias", Label: "Alias", Default: target.Alias}},
		func(r prompt.Response) {
			if r.Cancelled || c.roster.IndexOf(target) < 0 {
				return
			}
			old := target.Name()
			alias, _ := r.Value("alias")
			target.Alias = alias
			c.eventLog.AddEvent(fmt.Sprintf("%s alias changed to %s.", old, target.Name()))
			c.roster.QueueEmitEncounter()
		})
}

// EditStatBlock opens the stat block editor for a single selected combatant.
func (c *Commander) EditStatBlock() {
	if !c.selection.HasSingleSelection() {
		c.log.Debug("edit stat block ignored: needs exactly one selection")
		return
	}
	target := c.selection.First()
	c.editor.EditStatBlock("combatant", target.StatBlock,
		func(sb data.StatBlock) {
			target.StatBlock = sb
			c.roster.QueueEmitEncounter()
		},
		func() {
			// delete the edited combatant, not whatever is selected by now
			if len(c.liveTargets([]*world.Combatant{target})) == 0 {
				c.log.Debug("stat block delete ignored: combatant already removed")
				return
			}
			c.selection.Select(target, false)
			c.Remove()
		},
	)
}

// RollDice evaluates expr, remembers the result for the next damage prompt
// and shows it. Expression errors are returned unchanged.
func (c *Commander) RollDice(expr string) error {
	res, err := c.dice.Roll(expr)
	if err != nil {
		return err
	}
	c.latestRoll = &res
	c.prompts.Add(prompt.New(prompt.KindRoll,
		fmt.Sprintf("Rolled: %s -> %s", expr, res.FormattedString),
		[]prompt.Field{{ID: "total", Label: "Total", Default: strconv.Itoa(res.Total)}},
		nil,
	))
	c.telemetry.TrackEvent("DiceRolled", map[string]any{
		"Expression": expr,
		"Result":     res.FormattedString,
	})
	return nil
}
