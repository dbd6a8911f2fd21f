package world

import (
	"sort"

	"github.com/initiative-tracker/server/internal/core/ecs"
	"github.com/initiative-tracker/server/internal/data"
)

// EncounterState is the turn-tracking phase of an encounter.
type EncounterState int

const (
	StateInactive EncounterState = iota // building the roster
	StateActive                         // turns are being taken
)

func (s EncounterState) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Encounter is the ordered roster of combatants plus turn state.
// Accessed only from the game loop goroutine, so no locks.
type Encounter struct {
	pool       *ecs.EntityPool
	combatants []*Combatant
	active     *Combatant
	state      EncounterState
	round      int

	// numbering per stat block name; reset by the commander once every
	// combatant with that name has left
	countsByName map[string]int

	// set by QueueEmitEncounter, consumed by EmitSystem
	emitPending bool

	onRemoved []func(removed []*Combatant)
}

func NewEncounter() *Encounter {
	return &Encounter{
		pool:         ecs.NewEntityPool(),
		combatants:   make([]*Combatant, 0, 16),
		countsByName: make(map[string]int),
	}
}

// AddCombatant creates a combatant from a stat block and appends it to the
// roster. A second combatant with the same name relabels the first as "1".
func (e *Encounter) AddCombatant(sb data.StatBlock, initiative int) *Combatant {
	n := e.countsByName[sb.Name] + 1
	e.countsByName[sb.Name] = n

	c := &Combatant{
		ID:         e.pool.Create(),
		StatBlock:  sb,
		CurrentHP:  sb.HP,
		Initiative: initiative,
	}
	if n > 1 {
		c.IndexLabel = n
		for _, other := range e.combatants {
			if other.StatBlock.Name == sb.Name && other.IndexLabel == 0 {
				other.IndexLabel = 1
			}
		}
	}
	e.combatants = append(e.combatants, c)
	return c
}

// Combatants returns a copy of the roster in turn order.
func (e *Encounter) Combatants() []*Combatant {
	out := make([]*Combatant, len(e.combatants))
	copy(out, e.combatants)
	return out
}

func (e *Encounter) Len() int { return len(e.combatants) }

// At returns the combatant at index i, or nil when i is out of range.
func (e *Encounter) At(i int) *Combatant {
	if i < 0 || i >= len(e.combatants) {
		return nil
	}
	return e.combatants[i]
}

// IndexOf returns the roster index of c, or -1.
func (e *Encounter) IndexOf(c *Combatant) int {
	if c == nil {
		return -1
	}
	for i, x := range e.combatants {
		if x == c {
			return i
		}
	}
	return -1
}

// Get looks a combatant up by identity.
func (e *Encounter) Get(id ecs.EntityID) *Combatant {
	for _, c := range e.combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// OnCombatantsRemoved registers a hook called after every removal.
func (e *Encounter) OnCombatantsRemoved(fn func(removed []*Combatant)) {
	e.onRemoved = append(e.onRemoved, fn)
}

// RemoveCombatants removes every given combatant in one pass, prunes
// initiative groups left with a single member, and notifies removal hooks.
func (e *Encounter) RemoveCombatants(cs []*Combatant) {
	if len(cs) == 0 {
		return
	}
	gone := make(map[*Combatant]bool, len(cs))
	for _, c := range cs {
		gone[c] = true
	}

	kept := e.combatants[:0]
	removed := make([]*Combatant, 0, len(cs))
	for _, c := range e.combatants {
		if gone[c] {
			removed = append(removed, c)
			e.pool.Destroy(c.ID)
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(e.combatants); i++ {
		e.combatants[i] = nil
	}
	e.combatants = kept

	if e.active != nil && gone[e.active] {
		e.active = e.turnHeir(e.active.InitiativeGroup)
	}

	e.CleanInitiativeGroups()

	for _, fn := range e.onRemoved {
		fn(removed)
	}
}

// turnHeir picks who holds the turn after the active combatant is removed: a
// surviving member of its initiative group keeps the shared turn, otherwise
// the top of the order.
func (e *Encounter) turnHeir(group string) *Combatant {
	if e.state != StateActive || len(e.combatants) == 0 {
		return nil
	}
	if group != "" {
		for _, c := range e.combatants {
			if c.InitiativeGroup == group {
				return c
			}
		}
	}
	return e.combatants[0]
}

// MoveCombatant moves c to index and returns its new initiative. Moving past
// a combatant with a better (or worse) score adopts that score so the manual
// order survives the next sort. The combatant leaves its initiative group.
func (e *Encounter) MoveCombatant(c *Combatant, index int) int {
	current := e.IndexOf(c)
	if current < 0 {
		return c.Initiative
	}
	if index < 0 {
		index = 0
	}
	if index >= len(e.combatants) {
		index = len(e.combatants) - 1
	}

	c.InitiativeGroup = ""
	e.CleanInitiativeGroups()

	newInitiative := c.Initiative
	passed := e.combatants[index]
	if index > current && passed.Initiative < c.Initiative {
		newInitiative = passed.Initiative
	}
	if index < current && passed.Initiative > c.Initiative {
		newInitiative = passed.Initiative
	}

	e.combatants = append(e.combatants[:current], e.combatants[current+1:]...)
	e.combatants = append(e.combatants[:index], append([]*Combatant{c}, e.combatants[index:]...)...)
	c.Initiative = newInitiative
	e.QueueEmitEncounter()
	return newInitiative
}

// SortByInitiative orders the roster by initiative (desc), then initiative
// modifier (desc), then initiative group so linked combatants stay adjacent.
// A group sorts by the best modifier among its members. Stable: full ties
// keep their current order.
func (e *Encounter) SortByInitiative() {
	groupMod := make(map[string]int)
	for _, c := range e.combatants {
		if c.InitiativeGroup == "" {
			continue
		}
		if m, ok := groupMod[c.InitiativeGroup]; !ok || c.StatBlock.InitiativeModifier > m {
			groupMod[c.InitiativeGroup] = c.StatBlock.InitiativeModifier
		}
	}
	tieBreak := func(c *Combatant) int {
		if c.InitiativeGroup != "" {
			return groupMod[c.InitiativeGroup]
		}
		return c.StatBlock.InitiativeModifier
	}

	sort.SliceStable(e.combatants, func(i, j int) bool {
		a, b := e.combatants[i], e.combatants[j]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		if ta, tb := tieBreak(a), tieBreak(b); ta != tb {
			return ta > tb
		}
		return a.InitiativeGroup < b.InitiativeGroup
	})
	e.QueueEmitEncounter()
}

// CleanInitiativeGroups clears group identifiers no longer shared by at
// least two combatants.
func (e *Encounter) CleanInitiativeGroups() {
	members := make(map[string]int)
	for _, c := range e.combatants {
		if c.InitiativeGroup != "" {
			members[c.InitiativeGroup]++
		}
	}
	for _, c := range e.combatants {
		if c.InitiativeGroup != "" && members[c.InitiativeGroup] < 2 {
			c.InitiativeGroup = ""
		}
	}
}

// GroupMembers returns every combatant sharing c's initiative group,
// c included. An ungrouped combatant is its own group.
func (e *Encounter) GroupMembers(c *Combatant) []*Combatant {
	if c.InitiativeGroup == "" {
		return []*Combatant{c}
	}
	var out []*Combatant
	for _, x := range e.combatants {
		if x.InitiativeGroup == c.InitiativeGroup {
			out = append(out, x)
		}
	}
	return out
}

func (e *Encounter) State() EncounterState { return e.state }
func (e *Encounter) Round() int            { return e.round }

// ActiveCombatant returns whose turn it is, or nil outside an active encounter.
func (e *Encounter) ActiveCombatant() *Combatant {
	return e.active
}

// StartEncounter sorts the roster and gives the first combatant the turn.
func (e *Encounter) StartEncounter() {
	if len(e.combatants) == 0 {
		return
	}
	e.SortByInitiative()
	e.state = StateActive
	e.round = 1
	e.active = e.combatants[0]
	e.QueueEmitEncounter()
}

// NextTurn ends the active combatant's turn and passes it on. Members of an
// initiative group share one turn, so the rest of the group is skipped.
func (e *Encounter) NextTurn() {
	if e.state != StateActive || len(e.combatants) == 0 {
		return
	}
	idx := e.IndexOf(e.active)
	if idx < 0 {
		e.active = e.combatants[0]
		e.QueueEmitEncounter()
		return
	}

	for _, c := range e.GroupMembers(e.active) {
		c.tickTags()
	}

	next := idx + 1
	if group := e.active.InitiativeGroup; group != "" {
		for next < len(e.combatants) && e.combatants[next].InitiativeGroup == group {
			next++
		}
	}
	if next >= len(e.combatants) {
		next = 0
		e.round++
	}
	e.active = e.combatants[next]
	e.QueueEmitEncounter()
}

// EndEncounter stops turn tracking. The roster is kept.
func (e *Encounter) EndEncounter() {
	e.state = StateInactive
	e.active = nil
	e.round = 0
	e.QueueEmitEncounter()
}

// CombatantCountsByName returns a copy of the per-name numbering counters.
func (e *Encounter) CombatantCountsByName() map[string]int {
	out := make(map[string]int, len(e.countsByName))
	for k, v := range e.countsByName {
		out[k] = v
	}
	return out
}

// SetCombatantCountsByName replaces the per-name numbering counters.
func (e *Encounter) SetCombatantCountsByName(counts map[string]int) {
	e.countsByName = make(map[string]int, len(counts))
	for k, v := range counts {
		e.countsByName[k] = v
	}
}

// QueueEmitEncounter marks the encounter for propagation to spectators at
// the end of the tick. Repeated calls within a tick coalesce.
func (e *Encounter) QueueEmitEncounter() {
	e.emitPending = true
}

// TakeEmitPending reports and clears the propagation flag.
func (e *Encounter) TakeEmitPending() bool {
	p := e.emitPending
	e.emitPending = false
	return p
}
