// Package playerview renders what spectating players may see of the
// encounter. Exact hit points are shown only for player characters.
package playerview

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/initiative-tracker/server/internal/world"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// HPDescriber turns hidden hit points into a coarse description.
// scripting.Engine implements it.
type HPDescriber interface {
	HPDescriptor(current, maxHP int) string
}

// Snapshot is the player-facing encounter document.
type Snapshot struct {
	State      string          `yaml:"state"`
	Round      int             `yaml:"round"`
	Active     string          `yaml:"active,omitempty"`
	Combatants []CombatantView `yaml:"combatants"`
}

type CombatantView struct {
	Name       string   `yaml:"name"`
	Initiative int      `yaml:"initiative"`
	HP         string   `yaml:"hp"`
	Tags       []string `yaml:"tags,omitempty"`
	Active     bool     `yaml:"active,omitempty"`
}

// Publisher builds snapshots and writes them out. Game loop goroutine only.
type Publisher struct {
	describer HPDescriber
	path      string // "" = memory only
	last      []byte
	published int
	log       *zap.Logger
}

func NewPublisher(describer HPDescriber, path string, log *zap.Logger) *Publisher {
	return &Publisher{describer: describer, path: path, log: log}
}

// Build renders the encounter for players.
func (p *Publisher) Build(enc *world.Encounter) Snapshot {
	snap := Snapshot{
		State: enc.State().String(),
		Round: enc.Round(),
	}
	active := enc.ActiveCombatant()
	if active != nil {
		snap.Active = active.Name()
	}
	for _, c := range enc.Combatants() {
		v := CombatantView{
			Name:       c.Name(),
			Initiative: c.Initiative,
			HP:         p.hpText(c),
			Active:     c == active,
		}
		for _, t := range c.Tags {
			v.Tags = append(v.Tags, t.Text)
		}
		snap.Combatants = append(snap.Combatants, v)
	}
	return snap
}

func (p *Publisher) hpText(c *world.Combatant) string {
	if c.StatBlock.IsPlayerCharacter() {
		hp := strconv.Itoa(c.CurrentHP) + "/" + strconv.Itoa(c.MaxHP())
		if c.TemporaryHP > 0 {
			hp += fmt.Sprintf(" (+%d)", c.TemporaryHP)
		}
		return hp
	}
	return p.describer.HPDescriptor(c.CurrentHP, c.MaxHP())
}

// Publish renders and stores the snapshot, writing it to the configured
// file when there is one.
func (p *Publisher) Publish(enc *world.Encounter) error {
	out, err := yaml.Marshal(p.Build(enc))
	if err != nil {
		return fmt.Errorf("marshal player view: %w", err)
	}
	p.last = out
	p.published++

	if p.path == "" {
		return nil
	}
	tmp := p.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("player view dir: %w", err)
	}
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write player view: %w", err)
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replace player view: %w", err)
	}
	p.log.Debug("player view published", zap.String("path", p.path), zap.Int("combatants", enc.Len()))
	return nil
}

// Last returns the most recently published document.
func (p *Publisher) Last() []byte { return p.last }

// Published counts successful renders.
func (p *Publisher) Published() int { return p.published }
