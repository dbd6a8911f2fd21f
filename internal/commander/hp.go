package commander

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/world"
)

// EditHP asks for an amount of damage (negative heals) for the selection,
// pre-filled with the latest roll total.
func (c *Commander) EditHP() {
	targets := c.selection.Items()
	if len(targets) == 0 {
		c.log.Debug("edit hp ignored: nothing selected")
		return
	}
	names := joinNames(targets)
	def := ""
	if c.latestRoll != nil {
		def = strconv.Itoa(c.latestRoll.Total)
	}

	p := prompt.New(prompt.KindApplyDamage,
		fmt.Sprintf("Apply damage to %s", names),
		[]prompt.Field{{ID: "damage", Label: "Damage (negative heals)", Default: def}},
		func(r prompt.Response) {
			amount, ok := c.intField(r, "damage")
			if !ok {
				return
			}
			live := c.liveTargets(targets)
			if len(live) == 0 {
				return
			}
			c.applyDamage(live, amount)
			c.eventLog.LogHPChange(amount, joinNames(live))
			c.roster.QueueEmitEncounter()
		})
	c.prompts.Add(p)
}

// SuggestEditHP offers damage proposed by someone else, typically a player
// watching the player view. It returns false without prompting when
// suggestions are disabled.
func (c *Commander) SuggestEditHP(combatants []*world.Combatant, amount int, suggester string) bool {
	if !c.settings.AllowPlayerSuggestions() {
		return false
	}
	suggested := c.liveTargets(combatants)
	if len(suggested) == 0 {
		return false
	}

	p := prompt.New(prompt.KindAcceptDamage,
		fmt.Sprintf("%s suggests applying %d damage to %s.", suggester, amount, joinNames(suggested)),
		[]prompt.Field{{ID: "accept", Label: "Apply? (yes/no)", Default: "yes"}},
		func(r prompt.Response) {
			if !r.Truthy("accept") {
				return
			}
			live := c.liveTargets(suggested)
			if len(live) == 0 {
				return
			}
			c.applyDamage(live, amount)
			c.eventLog.LogHPChange(amount, joinNames(live))
			c.roster.QueueEmitEncounter()
		})
	c.prompts.Add(p)
	return true
}

// CheckConcentration queues a concentration check prompt. The prompt is
// enqueued by the next FlushDeferred, after the command or prompt callback
// that took the damage has finished.
func (c *Commander) CheckConcentration(combatant *world.Combatant, damage int) {
	if combatant == nil {
		return
	}
	c.deferred.Enqueue(func() {
		c.prompts.Add(c.concentrationPrompt(combatant, damage))
	})
}

func (c *Commander) concentrationPrompt(combatant *world.Combatant, damage int) *prompt.Prompt {
	dc := c.rules.ConcentrationDC(damage)
	return prompt.New(prompt.KindConcentration,
		fmt.Sprintf("%s DC %d concentration check (damage: %d)", combatant.Name(), dc, damage),
		[]prompt.Field{{ID: "result", Label: "pass / fail", Default: "pass"}},
		func(r prompt.Response) {
			v, ok := r.Value("result")
			if !ok || !strings.EqualFold(v, "fail") {
				return
			}
			if c.roster.IndexOf(combatant) < 0 {
				return
			}
			if combatant.RemoveTag(world.ConcentratingTag) {
				c.eventLog.AddEvent(fmt.Sprintf("%s lost concentration.", combatant.Name()))
				c.roster.QueueEmitEncounter()
			}
		})
}

// AddTemporaryHP asks for temporary hit points to grant the selection.
func (c *Commander) AddTemporaryHP() {
	targets := c.selection.Items()
	if len(targets) == 0 {
		c.log.Debug("temporary hp ignored: nothing selected")
		return
	}

	p := prompt.New(prompt.KindTemporaryHP,
		fmt.Sprintf("Grant temporary hit points to %s", joinNames(targets)),
		[]prompt.Field{{ID: "thp", Label: "Temporary HP"}},
		func(r prompt.Response) {
			thp, ok := c.intField(r, "thp")
			if !ok {
				return
			}
			live := c.liveTargets(targets)
			if len(live) == 0 {
				return
			}
			for _, t := range live {
				t.ApplyTemporaryHP(thp)
			}
			c.eventLog.AddEvent(fmt.Sprintf("%d temporary hit points granted to %s.", thp, joinNames(live)))
			c.telemetry.TrackEvent("TemporaryHPAdded", map[string]any{"Amount": thp})
			c.roster.QueueEmitEncounter()
		})
	c.prompts.Add(p)
}

// applyDamage applies amount to each target and schedules concentration
// checks for concentrating targets that took damage.
func (c *Commander) applyDamage(targets []*world.Combatant, amount int) {
	check := amount > 0 && c.settings.AutoCheckConcentration()
	for _, t := range targets {
		t.ApplyDamage(amount)
		if check && t.HasTag(world.ConcentratingTag) {
			c.CheckConcentration(t, amount)
		}
	}
}

// intField reads an integer field. Missing, blank or non-numeric input is
// treated like a cancellation.
func (c *Commander) intField(r prompt.Response, id string) (int, bool) {
	v, ok := r.Value(id)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.log.Debug("ignoring non-numeric prompt value", zap.String("field", id), zap.String("value", v))
		return 0, false
	}
	return n, true
}
