package world

import (
	"fmt"
	"strings"

	"github.com/initiative-tracker/server/internal/core/ecs"
	"github.com/initiative-tracker/server/internal/data"
)

// ConcentratingTag marks a combatant that must roll to keep a spell up
// whenever it takes damage.
const ConcentratingTag = "Concentrating"

// Tag is a free-text marker on a combatant. Duration counts rounds and ticks
// down at the end of the owner's turn; 0 means it never expires.
type Tag struct {
	Text              string
	DurationRemaining int
}

// Combatant holds in-memory state for one participant of the encounter.
// Accessed only from the game loop goroutine, so no locks.
type Combatant struct {
	ID         ecs.EntityID
	StatBlock  data.StatBlock
	IndexLabel int    // "Goblin 2"; 0 = the only one with this name
	Alias      string // overrides the display name when set

	CurrentHP   int
	TemporaryHP int

	Initiative      int
	InitiativeGroup string // shared by every member of a linked group, "" = none

	Tags []Tag
}

// Name returns the display name: alias first, then the stat block name with
// its numbering label.
func (c *Combatant) Name() string {
	if c.Alias != "" {
		return c.Alias
	}
	if c.IndexLabel > 0 {
		return fmt.Sprintf("%s %d", c.StatBlock.Name, c.IndexLabel)
	}
	return c.StatBlock.Name
}

func (c *Combatant) MaxHP() int {
	return c.StatBlock.HP
}

// ApplyDamage subtracts damage, draining temporary hit points first.
// Negative amounts heal, capped at MaxHP; temporary hit points are untouched.
func (c *Combatant) ApplyDamage(amount int) {
	if amount > 0 {
		thp := c.TemporaryHP - amount
		if thp < 0 {
			c.CurrentHP += thp
			thp = 0
		}
		c.TemporaryHP = thp
		return
	}
	c.CurrentHP -= amount
	if c.CurrentHP > c.MaxHP() {
		c.CurrentHP = c.MaxHP()
	}
}

// ApplyTemporaryHP grants temporary hit points. They do not stack: the
// higher of the current and granted pools is kept.
func (c *Combatant) ApplyTemporaryHP(amount int) {
	if amount < 0 {
		amount = 0
	}
	if amount > c.TemporaryHP {
		c.TemporaryHP = amount
	}
}

func (c *Combatant) AddTag(t Tag) {
	c.Tags = append(c.Tags, t)
}

// HasTag reports whether a tag with this text is present (case-insensitive).
func (c *Combatant) HasTag(text string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t.Text, text) {
			return true
		}
	}
	return false
}

// RemoveTag removes every tag with this text. Returns true if any was removed.
func (c *Combatant) RemoveTag(text string) bool {
	kept := c.Tags[:0]
	removed := false
	for _, t := range c.Tags {
		if strings.EqualFold(t.Text, text) {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	c.Tags = kept
	return removed
}

// tickTags counts down timed tags at the end of the combatant's turn.
func (c *Combatant) tickTags() {
	kept := c.Tags[:0]
	for _, t := range c.Tags {
		if t.DurationRemaining > 0 {
			t.DurationRemaining--
			if t.DurationRemaining == 0 {
				continue
			}
		}
		kept = append(kept, t)
	}
	c.Tags = kept
}

// IsDefeated reports whether the combatant is at or below 0 HP.
func (c *Combatant) IsDefeated() bool {
	return c.CurrentHP <= 0
}
