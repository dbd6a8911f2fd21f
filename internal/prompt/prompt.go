package prompt

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrResolved is returned when a prompt that already completed is resolved
// or dismissed again.
var ErrResolved = errors.New("prompt already resolved")

// Kind names what a prompt asks for. Used for display and for tests.
type Kind string

const (
	KindDefault        Kind = "default"
	KindLinkInitiative Kind = "link_initiative"
	KindApplyDamage    Kind = "apply_damage"
	KindTemporaryHP    Kind = "temporary_hp"
	KindAcceptDamage   Kind = "accept_damage"
	KindConcentration  Kind = "concentration"
	KindTag            Kind = "tag"
	KindInitiative     Kind = "initiative"
	KindAlias          Kind = "alias"
	KindStatBlock      Kind = "statblock"
	KindRoll           Kind = "roll"
)

// Field is one user-supplied input of a prompt.
type Field struct {
	ID      string
	Label   string
	Default string
}

// Response carries the submitted field values, or Cancelled when the user
// dismissed the prompt. A programmatic resolution with no payload has nil
// Values and Cancelled false.
type Response struct {
	Values    map[string]string
	Cancelled bool
}

// Value returns the trimmed value of a field; ok is false when the field is
// missing or blank.
func (r Response) Value(id string) (string, bool) {
	if r.Cancelled || r.Values == nil {
		return "", false
	}
	v := strings.TrimSpace(r.Values[id])
	if v == "" {
		return "", false
	}
	return v, true
}

// Truthy reports whether a field holds a yes-like value.
func (r Response) Truthy(id string) bool {
	v, ok := r.Value(id)
	if !ok {
		return false
	}
	switch strings.ToLower(v) {
	case "y", "yes", "true", "1", "on", "accept", "ok":
		return true
	}
	return false
}

var nextID atomic.Uint64

// Prompt is a one-shot request for user input. The completion callback runs
// at most once, either on Resolve or on Dismiss.
type Prompt struct {
	ID      uint64
	Kind    Kind
	Message string
	Fields  []Field

	onComplete func(Response)
	done       bool
}

// New builds a prompt. onComplete may be nil for informational prompts.
func New(kind Kind, message string, fields []Field, onComplete func(Response)) *Prompt {
	return &Prompt{
		ID:         nextID.Add(1),
		Kind:       kind,
		Message:    message,
		Fields:     fields,
		onComplete: onComplete,
	}
}

// Done reports whether the prompt has completed.
func (p *Prompt) Done() bool { return p.done }

// Resolve completes the prompt with the given values (nil = no payload).
func (p *Prompt) Resolve(values map[string]string) error {
	return p.complete(Response{Values: values})
}

// Dismiss completes the prompt as cancelled.
func (p *Prompt) Dismiss() error {
	return p.complete(Response{Cancelled: true})
}

func (p *Prompt) complete(r Response) error {
	if p.done {
		return ErrResolved
	}
	p.done = true
	if p.onComplete != nil {
		p.onComplete(r)
	}
	return nil
}

// Default returns a field's default value.
func (p *Prompt) Default(id string) string {
	for _, f := range p.Fields {
		if f.ID == id {
			return f.Default
		}
	}
	return ""
}
