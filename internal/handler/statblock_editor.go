package handler

import (
	"fmt"
	"strings"

	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/prompt"
	"go.uber.org/zap"
)

// StatBlockEditor edits stat blocks through the prompt queue. The statblock
// field takes YAML applied over the current values, so "{hp: 21, ac: 15}"
// changes only those keys.
type StatBlockEditor struct {
	prompts *prompt.Queue
	log     *zap.Logger
}

func NewStatBlockEditor(prompts *prompt.Queue, log *zap.Logger) *StatBlockEditor {
	return &StatBlockEditor{prompts: prompts, log: log}
}

// EditStatBlock queues the editor prompt. save receives the edited stat
// block; remove runs when the delete field is truthy.
func (e *StatBlockEditor) EditStatBlock(kind string, sb data.StatBlock, save func(data.StatBlock), remove func()) {
	current, err := data.MarshalStatBlock(sb)
	if err != nil {
		e.log.Error("stat block editor", zap.String("name", sb.Name), zap.Error(err))
		return
	}

	msg := fmt.Sprintf("Edit %s stat block %s\n      %s", kind, sb.Name,
		strings.ReplaceAll(strings.TrimRight(current, "\n"), "\n", "\n      "))
	e.prompts.Add(prompt.New(prompt.KindStatBlock, msg,
		[]prompt.Field{
			{ID: "statblock", Label: "YAML changes, e.g. {hp: 21, ac: 15}"},
			{ID: "delete", Label: "Delete instead? (yes/no)", Default: "no"},
		},
		func(r prompt.Response) {
			if r.Cancelled {
				return
			}
			if r.Truthy("delete") {
				if remove != nil {
					remove()
				}
				return
			}
			raw, ok := r.Value("statblock")
			if !ok {
				return
			}
			edited, err := sb.Patch([]byte(raw))
			if err != nil {
				e.log.Warn("stat block edit rejected", zap.String("name", sb.Name), zap.Error(err))
				return
			}
			save(edited)
		}))
}
