package commander

import (
	"fmt"

	"go.uber.org/zap"
)

// Requirement is the selection a command needs before it runs.
type Requirement int

const (
	RequireNone            Requirement = iota
	RequireSelection                   // at least one combatant
	RequireSingleSelection             // exactly one combatant
)

func (r Requirement) String() string {
	switch r {
	case RequireNone:
		return "none"
	case RequireSelection:
		return "selection"
	case RequireSingleSelection:
		return "single"
	default:
		return fmt.Sprintf("Unknown(%d)", int(r))
	}
}

// Command is one entry of the combatant command list.
type Command struct {
	ID          string
	Description string
	KeyBinding  string
	Requires    Requirement
	Run         func()
}

// Commands returns the combatant command list in display order.
func (c *Commander) Commands() []Command {
	return []Command{
		{ID: "select-next", Description: "Select Next Combatant", KeyBinding: "j", Run: c.SelectNext},
		{ID: "select-previous", Description: "Select Previous Combatant", KeyBinding: "k", Run: c.SelectPrevious},
		{ID: "deselect", Description: "Clear Selection", KeyBinding: "esc", Run: c.Deselect},
		{ID: "apply-damage", Description: "Apply Damage", KeyBinding: "t", Requires: RequireSelection, Run: c.EditHP},
		{ID: "add-temporary-hp", Description: "Add Temporary HP", KeyBinding: "alt+t", Requires: RequireSelection, Run: c.AddTemporaryHP},
		{ID: "add-tag", Description: "Add Tag", KeyBinding: "g", Requires: RequireSelection, Run: func() { c.AddTag(nil) }},
		{ID: "remove", Description: "Remove from Encounter", KeyBinding: "del", Requires: RequireSelection, Run: c.Remove},
		{ID: "set-alias", Description: "Rename", KeyBinding: "f2", Requires: RequireSelection, Run: c.SetAlias},
		{ID: "edit-initiative", Description: "Edit Initiative", KeyBinding: "alt+i", Requires: RequireSelection, Run: c.EditInitiative},
		{ID: "link-initiative", Description: "Link Initiative", KeyBinding: "alt+l", Run: c.LinkInitiative},
		{ID: "move-up", Description: "Move Up", KeyBinding: "alt+u", Requires: RequireSelection, Run: c.MoveUp},
		{ID: "move-down", Description: "Move Down", KeyBinding: "alt+d", Requires: RequireSelection, Run: c.MoveDown},
		{ID: "edit-statblock", Description: "Edit Stat Block", KeyBinding: "e", Requires: RequireSingleSelection, Run: c.EditStatBlock},
	}
}

func (c *Commander) satisfies(r Requirement) bool {
	switch r {
	case RequireSelection:
		return c.selection.HasSelection()
	case RequireSingleSelection:
		return c.selection.HasSingleSelection()
	default:
		return true
	}
}

// Dispatch runs the command with the given id or key binding. Unknown
// commands and unmet selection requirements are ignored; a panicking
// command is recovered and reported as an error.
func (c *Commander) Dispatch(id string) (handled bool, err error) {
	for _, cmd := range c.Commands() {
		if cmd.ID != id && cmd.KeyBinding != id {
			continue
		}
		if !c.satisfies(cmd.Requires) {
			c.log.Debug("command requirement not met",
				zap.String("command", cmd.ID),
				zap.String("requires", cmd.Requires.String()),
				zap.Int("selected", c.selection.Len()),
			)
			return false, nil
		}
		if err := c.safeCall(cmd); err != nil {
			return false, err
		}
		return true, nil
	}
	c.log.Debug("unknown command", zap.String("command", id))
	return false, nil
}

func (c *Commander) safeCall(cmd Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("command panic recovered",
				zap.String("command", cmd.ID),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("command %s panicked: %v", cmd.ID, rec)
		}
	}()
	cmd.Run()
	return nil
}
