package commander

import (
	"strings"

	"github.com/initiative-tracker/server/internal/world"
)

// SelectionSet is the ordered, duplicate-free set of selected combatants.
// Every mutation recomputes the derived signals and notifies subscribers.
type SelectionSet struct {
	items []*world.Combatant
	subs  []func(*SelectionSet)
}

// Subscribe registers fn to run after every change to the set.
func (s *SelectionSet) Subscribe(fn func(*SelectionSet)) {
	s.subs = append(s.subs, fn)
}

func (s *SelectionSet) notify() {
	for _, fn := range s.subs {
		fn(s)
	}
}

// Select adds c to the set, first clearing it unless additive.
// A nil combatant leaves the set untouched.
func (s *SelectionSet) Select(c *world.Combatant, additive bool) {
	if c == nil {
		return
	}
	if !additive {
		s.items = s.items[:0]
	}
	if !s.Contains(c) {
		s.items = append(s.items, c)
	}
	s.notify()
}

func (s *SelectionSet) DeselectAll() {
	if len(s.items) == 0 {
		return
	}
	s.items = s.items[:0]
	s.notify()
}

// SelectByOffset replaces the selection with the combatant offset places
// from the first selected one, clamped to the roster. With nothing selected
// the search starts from index -1, so either direction lands on the first
// combatant. An empty roster leaves the set untouched.
func (s *SelectionSet) SelectByOffset(roster Roster, offset int) {
	n := roster.Len()
	if n == 0 {
		return
	}
	idx := -1
	if len(s.items) > 0 {
		idx = roster.IndexOf(s.items[0])
	}
	idx += offset
	if idx < 0 {
		idx = 0
	} else if idx >= n {
		idx = n - 1
	}
	s.Select(roster.At(idx), false)
}

// Prune drops every combatant in removed.
func (s *SelectionSet) Prune(removed []*world.Combatant) {
	gone := make(map[*world.Combatant]bool, len(removed))
	for _, c := range removed {
		gone[c] = true
	}
	kept := s.items[:0]
	for _, c := range s.items {
		if !gone[c] {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(s.items) {
		return
	}
	for i := len(kept); i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = kept
	s.notify()
}

func (s *SelectionSet) Contains(c *world.Combatant) bool {
	for _, x := range s.items {
		if x == c {
			return true
		}
	}
	return false
}

// Items returns a copy of the selection in selection order.
func (s *SelectionSet) Items() []*world.Combatant {
	out := make([]*world.Combatant, len(s.items))
	copy(out, s.items)
	return out
}

// First returns the earliest selected combatant, or nil.
func (s *SelectionSet) First() *world.Combatant {
	if len(s.items) == 0 {
		return nil
	}
	return s.items[0]
}

func (s *SelectionSet) Len() int                   { return len(s.items) }
func (s *SelectionSet) HasSelection() bool         { return len(s.items) > 0 }
func (s *SelectionSet) HasSingleSelection() bool   { return len(s.items) == 1 }
func (s *SelectionSet) HasMultipleSelection() bool { return len(s.items) > 1 }

// DisplayNames joins the selected names with ", " in selection order.
func (s *SelectionSet) DisplayNames() string {
	return joinNames(s.items)
}

func joinNames(cs []*world.Combatant) string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name()
	}
	return strings.Join(names, ", ")
}
