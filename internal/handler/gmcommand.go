package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/initiative-tracker/server/internal/commander"
	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/world"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const maxAddCount = 20

// commandIDs maps console verbs onto the commander's command list.
var commandIDs = map[string]string{
	"next":      "select-next",
	"prev":      "select-previous",
	"deselect":  "deselect",
	"damage":    "apply-damage",
	"thp":       "add-temporary-hp",
	"remove":    "remove",
	"alias":     "set-alias",
	"init":      "edit-initiative",
	"link":      "link-initiative",
	"up":        "move-up",
	"down":      "move-down",
	"statblock": "edit-statblock",
}

// HandleLine processes one console line. Lines without the "." prefix answer
// the current prompt.
func HandleLine(out Output, line string, deps *Deps) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if HandleGMCommand(out, line, deps) {
		return
	}
	if deps.Prompts.Current() == nil {
		out.Send("Commands start with \".\"  Type .help for the list.")
		return
	}
	gmAnswer(out, line, deps)
}

// HandleGMCommand processes a "." prefixed command.
// Returns true if the text was a command (consumed), false otherwise.
func HandleGMCommand(out Output, text string, deps *Deps) bool {
	if !strings.HasPrefix(text, ".") {
		return false
	}

	body := strings.TrimSpace(text[1:])
	parts := strings.Fields(body)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	rest := strings.TrimSpace(body[len(parts[0]):])

	deps.Log.Debug("console command", zap.String("cmd", cmd), zap.Strings("args", args))

	if id, ok := commandIDs[cmd]; ok {
		gmDispatch(out, id, deps)
		return true
	}

	switch cmd {
	case "help":
		gmHelp(out)
	case "add":
		gmAdd(out, args, deps)
	case "library", "lib":
		gmLibrary(out, deps)
	case "start":
		gmStart(out, deps)
	case "end":
		gmEnd(out, deps)
	case "turn":
		gmTurn(out, deps)
	case "list", "ls":
		gmList(out, deps)
	case "select", "sel":
		gmSelect(out, args, deps)
	case "tag":
		gmTag(out, args, deps)
	case "roll", "r":
		gmRoll(out, rest, deps)
	case "suggest":
		gmSuggest(out, args, deps)
	case "allow":
		gmAllow(out, args, deps)
	case "answer", "a":
		gmAnswer(out, rest, deps)
	case "dismiss":
		gmDismiss(out, deps)
	case "log":
		gmLog(out, args, deps)
	case "view":
		gmView(out, deps)
	default:
		out.Send("Unknown command: ." + cmd + "  Type .help for the list.")
	}

	return true
}

func gmHelp(out Output) {
	out.Send("=== Commands ===")
	out.Send(".add <statblock> [count]  add combatants, rolling initiative")
	out.Send(".library  list stat block ids")
	out.Send(".start / .end  start or end the encounter")
	out.Send(".turn  pass the turn")
	out.Send(".list  show the roster")
	out.Send(".select <n> [+]  select by roster position (+ adds to the selection)")
	out.Send(".next / .prev / .deselect  move or clear the selection")
	out.Send(".damage  apply damage (negative heals) to the selection")
	out.Send(".thp  grant temporary hit points")
	out.Send(".tag [n]  tag the selection, or combatant n")
	out.Send(".init / .alias / .statblock  edit the selection")
	out.Send(".link  link initiative (select a second combatant to finish)")
	out.Send(".up / .down  move the selection in turn order")
	out.Send(".remove  remove the selection from the encounter")
	out.Send(".roll <expr>  roll dice, e.g. .roll 2d6+3")
	out.Send(".suggest <who> <amount> <n>...  queue a player damage suggestion")
	out.Send(".allow on|off  accept or refuse player suggestions")
	out.Send(".answer k=v ... | <value>  answer the current prompt (missing fields use defaults)")
	out.Send(".dismiss  cancel the current prompt")
	out.Send(".log [n]  show the last n log entries")
	out.Send(".view  show the player view")
}

// gmDispatch runs a commander command and explains why nothing happened.
func gmDispatch(out Output, id string, deps *Deps) {
	handled, err := deps.Commander.Dispatch(id)
	if err != nil {
		out.Sendf("Command failed: %v", err)
		return
	}
	if !handled {
		for _, c := range deps.Commander.Commands() {
			if c.ID != id {
				continue
			}
			if c.Requires == commander.RequireSingleSelection {
				out.Sendf("%s: select exactly one combatant.", c.Description)
			} else {
				out.Sendf("%s: select a combatant first.", c.Description)
			}
			return
		}
		return
	}
	switch id {
	case "select-next", "select-previous", "deselect", "remove":
		sendSelection(out, deps)
	}
}

func sendSelection(out Output, deps *Deps) {
	sel := deps.Commander.Selection()
	if !sel.HasSelection() {
		out.Send("Nothing selected.")
		return
	}
	out.Send("Selected: " + sel.DisplayNames())
}

// combatantAt resolves a 1-based roster position.
func combatantAt(out Output, arg string, deps *Deps) *world.Combatant {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > deps.Encounter.Len() {
		out.Sendf("No combatant at position %s (roster has %d).", arg, deps.Encounter.Len())
		return nil
	}
	return deps.Encounter.At(n - 1)
}

func gmAdd(out Output, args []string, deps *Deps) {
	if len(args) < 1 {
		out.Send("Usage: .add <statblock> [count]")
		return
	}
	sb := deps.Library.Get(args[0])
	if sb == nil {
		out.Send("Unknown stat block: " + args[0] + "  (see .library)")
		return
	}
	count := 1
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > maxAddCount {
			out.Sendf("Count must be between 1 and %d.", maxAddCount)
			return
		}
		count = n
	}

	added := make([]*world.Combatant, 0, count)
	for i := 0; i < count; i++ {
		res, err := deps.Dice.Roll(fmt.Sprintf("1d20%+d", sb.InitiativeModifier))
		if err != nil {
			out.Sendf("Initiative roll failed: %v", err)
			break
		}
		added = append(added, deps.Encounter.AddCombatant(*sb, res.Total))
	}
	if len(added) == 0 {
		return
	}
	deps.Encounter.SortByInitiative()

	names := make([]string, len(added))
	for i, c := range added {
		names[i] = fmt.Sprintf("%s (%d)", c.Name(), c.Initiative)
	}
	deps.EventLog.AddEvent(strings.Join(names, ", ") + " joined the encounter.")
	deps.Telemetry.TrackEvent("CombatantsAdded", map[string]any{
		"Name":  sb.Name,
		"Count": len(added),
	})
	deps.Encounter.QueueEmitEncounter()
}

func gmLibrary(out Output, deps *Deps) {
	ids := deps.Library.IDs()
	if len(ids) == 0 {
		out.Send("The stat block library is empty.")
		return
	}
	for _, id := range ids {
		sb := deps.Library.Get(id)
		out.Sendf("%-16s %s (HP %d, AC %d)", id, sb.Name, sb.HP, sb.AC)
	}
}

func gmStart(out Output, deps *Deps) {
	if deps.Encounter.Len() == 0 {
		out.Send("Add combatants first.")
		return
	}
	deps.Encounter.StartEncounter()
	deps.EventLog.AddEvent("Encounter started.")
	deps.Telemetry.TrackEvent("EncounterStarted", map[string]any{"Combatants": deps.Encounter.Len()})
	sendTurn(out, deps)
}

func gmEnd(out Output, deps *Deps) {
	if deps.Encounter.State() != world.StateActive {
		out.Send("No encounter is running.")
		return
	}
	rounds := deps.Encounter.Round()
	deps.Encounter.EndEncounter()
	deps.EventLog.AddEvent("Encounter ended.")
	deps.Telemetry.TrackEvent("EncounterEnded", map[string]any{"Rounds": rounds})
}

func gmTurn(out Output, deps *Deps) {
	if deps.Encounter.State() != world.StateActive {
		out.Send("No encounter is running. Use .start")
		return
	}
	deps.Encounter.NextTurn()
	sendTurn(out, deps)
}

func sendTurn(out Output, deps *Deps) {
	if active := deps.Encounter.ActiveCombatant(); active != nil {
		out.Sendf("Round %d: %s's turn.", deps.Encounter.Round(), active.Name())
	}
}

func gmList(out Output, deps *Deps) {
	roster := deps.Encounter.Combatants()
	if len(roster) == 0 {
		out.Send("The roster is empty.")
		return
	}
	active := deps.Encounter.ActiveCombatant()
	sel := deps.Commander.Selection()
	for i, c := range roster {
		marker := " "
		if c == active {
			marker = ">"
		}
		if sel.Contains(c) {
			marker += "*"
		} else {
			marker += " "
		}
		hp := fmt.Sprintf("%d/%d", c.CurrentHP, c.MaxHP())
		if c.TemporaryHP > 0 {
			hp += fmt.Sprintf(" (+%d)", c.TemporaryHP)
		}
		line := fmt.Sprintf("%s %2d. %-20s init %3d  HP %-12s AC %d", marker, i+1, c.Name(), c.Initiative, hp, c.StatBlock.AC)
		if c.InitiativeGroup != "" {
			line += "  linked"
		}
		if len(c.Tags) > 0 {
			tags := make([]string, len(c.Tags))
			for j, t := range c.Tags {
				tags[j] = t.Text
				if t.DurationRemaining > 0 {
					tags[j] += fmt.Sprintf(" (%d)", t.DurationRemaining)
				}
			}
			line += "  [" + strings.Join(tags, ", ") + "]"
		}
		out.Send(line)
	}
}

func gmSelect(out Output, args []string, deps *Deps) {
	if len(args) < 1 {
		out.Send("Usage: .select <n> [+]")
		return
	}
	c := combatantAt(out, args[0], deps)
	if c == nil {
		return
	}
	additive := len(args) >= 2 && args[1] == "+"
	deps.Commander.Select(c, additive)
	sendSelection(out, deps)
}

func gmTag(out Output, args []string, deps *Deps) {
	if len(args) >= 1 {
		c := combatantAt(out, args[0], deps)
		if c == nil {
			return
		}
		deps.Commander.AddTag(c)
		return
	}
	gmDispatch(out, "add-tag", deps)
}

func gmRoll(out Output, expr string, deps *Deps) {
	if expr == "" {
		out.Send("Usage: .roll <expr>  e.g. .roll 2d6+3")
		return
	}
	if err := deps.Commander.RollDice(expr); err != nil {
		if errors.Is(err, dice.ErrInvalidExpression) {
			out.Sendf("Cannot roll: %v", err)
			return
		}
		out.Sendf("Roll failed: %v", err)
	}
}

func gmSuggest(out Output, args []string, deps *Deps) {
	if len(args) < 3 {
		out.Send("Usage: .suggest <who> <amount> <n>...")
		return
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		out.Send("Invalid amount: " + args[1])
		return
	}
	targets := make([]*world.Combatant, 0, len(args)-2)
	for _, a := range args[2:] {
		c := combatantAt(out, a, deps)
		if c == nil {
			return
		}
		targets = append(targets, c)
	}
	if !deps.Commander.SuggestEditHP(targets, amount, args[0]) {
		out.Send("Player suggestions are turned off (.allow on).")
	}
}

func gmAllow(out Output, args []string, deps *Deps) {
	if len(args) < 1 {
		out.Sendf("Player suggestions: %s", onOff(deps.Settings.AllowPlayerSuggestions()))
		return
	}
	switch strings.ToLower(args[0]) {
	case "on", "yes", "true":
		deps.Settings.SetAllowPlayerSuggestions(true)
	case "off", "no", "false":
		deps.Settings.SetAllowPlayerSuggestions(false)
	default:
		out.Send("Usage: .allow on|off")
		return
	}
	out.Sendf("Player suggestions: %s", onOff(deps.Settings.AllowPlayerSuggestions()))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func gmAnswer(out Output, rest string, deps *Deps) {
	p := deps.Prompts.Current()
	if p == nil {
		out.Send("No prompt is waiting.")
		return
	}
	deps.Prompts.ResolveCurrent(parseAnswer(rest, p))
}

func gmDismiss(out Output, deps *Deps) {
	if !deps.Prompts.DismissCurrent() {
		out.Send("No prompt is waiting.")
	}
}

func gmLog(out Output, args []string, deps *Deps) {
	n := 10
	if len(args) >= 1 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}
	entries := deps.EventLog.Entries()
	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	for _, e := range entries {
		out.Sendf("%4d %s  %s", e.Seq, e.At.Format("15:04:05"), e.Text)
	}
}

func gmView(out Output, deps *Deps) {
	raw, err := yaml.Marshal(deps.View.Build(deps.Encounter))
	if err != nil {
		out.Sendf("Cannot render player view: %v", err)
		return
	}
	for _, line := range strings.Split(strings.TrimRight(string(raw), "\n"), "\n") {
		out.Send(line)
	}
}
