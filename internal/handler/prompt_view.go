package handler

import (
	"regexp"
	"strings"

	"github.com/initiative-tracker/server/internal/prompt"
)

var answerKeyRe = regexp.MustCompile(`(?:^|\s)([a-z_]+)=`)

// parseAnswer turns ".answer" text into prompt values. "key=value" pairs
// name fields explicitly; bare text fills the first field. Fields left out
// take their defaults, so an empty answer accepts every default.
func parseAnswer(rest string, p *prompt.Prompt) map[string]string {
	if len(p.Fields) == 0 {
		return nil
	}
	known := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		known[f.ID] = true
	}

	type mark struct {
		key        string
		start, end int
	}
	var marks []mark
	for _, m := range answerKeyRe.FindAllStringSubmatchIndex(rest, -1) {
		if key := rest[m[2]:m[3]]; known[key] {
			marks = append(marks, mark{key: key, start: m[0], end: m[1]})
		}
	}

	values := make(map[string]string, len(p.Fields))
	lead := rest
	if len(marks) > 0 {
		lead = rest[:marks[0].start]
	}
	if lead = strings.TrimSpace(lead); lead != "" {
		values[p.Fields[0].ID] = lead
	}
	for i, m := range marks {
		stop := len(rest)
		if i+1 < len(marks) {
			stop = marks[i+1].start
		}
		values[m.key] = strings.TrimSpace(rest[m.end:stop])
	}

	for _, f := range p.Fields {
		if _, ok := values[f.ID]; !ok {
			values[f.ID] = f.Default
		}
	}
	return values
}

// ShowPrompt prints the current prompt once. Roll results carry nothing to
// answer: they are printed and resolved on the spot.
func ShowPrompt(out Output, deps *Deps) {
	for {
		p := deps.Prompts.Current()
		if p == nil || p.ID == deps.shownPrompt {
			return
		}
		if p.Kind == prompt.KindRoll {
			out.Send(p.Message)
			deps.Prompts.ResolveCurrent(nil)
			continue
		}
		deps.shownPrompt = p.ID
		sendPrompt(out, p, deps.Prompts.Len()-1)
		return
	}
}

func sendPrompt(out Output, p *prompt.Prompt, queued int) {
	out.Sendf("? [%s] %s", p.Kind, p.Message)
	for _, f := range p.Fields {
		if f.Default != "" {
			out.Sendf("    %s: %s [%s]", f.ID, f.Label, f.Default)
		} else {
			out.Sendf("    %s: %s", f.ID, f.Label)
		}
	}
	if queued > 0 {
		out.Sendf("    (%d more waiting)", queued)
	}
	out.Send("    .answer k=v ... | .dismiss")
}
