package commander

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/world"
)

const linkPromptMessage = "Select another combatant to link initiative. " +
	"Tip: select several combatants first, then link them to one shared initiative count."

// pendingLink is either linkIdle or awaitingSecond.
type pendingLink interface {
	isPendingLink()
}

type linkIdle struct{}

// awaitingSecond holds the first half of a two-step link. combatant is nil
// when nothing was selected or the combatant has since been removed.
type awaitingSecond struct {
	combatant *world.Combatant
	prompt    *prompt.Prompt
}

func (linkIdle) isPendingLink()       {}
func (awaitingSecond) isPendingLink() {}

// LinkPending reports whether a link is waiting for its second combatant.
func (c *Commander) LinkPending() bool {
	_, ok := c.pending.(awaitingSecond)
	return ok
}

// LinkInitiative links the selected combatants to one initiative count. With
// fewer than two selected it waits for the next Select instead.
func (c *Commander) LinkInitiative() {
	selected := c.selection.Items()
	if len(selected) >= 2 {
		waiting, ok := c.pending.(awaitingSecond)
		c.linkCombatantInitiatives(selected)
		if ok {
			if err := waiting.prompt.Resolve(nil); err != nil {
				c.log.Debug("link prompt already completed", zap.Uint64("prompt", waiting.prompt.ID))
			}
		}
		return
	}

	// at most one link may wait at a time
	if p, ok := c.pending.(awaitingSecond); ok {
		if err := p.prompt.Dismiss(); err != nil {
			c.pending = linkIdle{}
		}
	}

	var first *world.Combatant
	if len(selected) == 1 {
		first = selected[0]
	}
	var p *prompt.Prompt
	p = prompt.New(prompt.KindLinkInitiative, linkPromptMessage, nil, func(prompt.Response) {
		// completed without a second selection
		if w, ok := c.pending.(awaitingSecond); ok && w.prompt == p {
			c.pending = linkIdle{}
		}
	})
	c.pending = awaitingSecond{combatant: first, prompt: p}
	c.prompts.Add(p)
}

// linkCombatantInitiatives gives every combatant the highest initiative among
// them and a fresh shared group.
func (c *Commander) linkCombatantInitiatives(combatants []*world.Combatant) {
	c.pending = linkIdle{}

	group := make([]*world.Combatant, 0, len(combatants))
	for _, x := range combatants {
		if x == nil || containsCombatant(group, x) {
			continue
		}
		group = append(group, x)
	}
	if len(group) < 2 {
		c.log.Debug("initiative link needs two combatants", zap.Int("combatants", len(group)))
		return
	}

	highest := group[0].Initiative
	for _, x := range group[1:] {
		if x.Initiative > highest {
			highest = x.Initiative
		}
	}
	groupID := uuid.NewString()
	for _, x := range group {
		x.Initiative = highest
		x.InitiativeGroup = groupID
	}
	c.roster.CleanInitiativeGroups()
	c.roster.SortByInitiative()
	c.telemetry.TrackEvent("InitiativeLinked", nil)
}

func containsCombatant(cs []*world.Combatant, c *world.Combatant) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
