package data

import (
	"fmt"
	"maps"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatBlock is the static rules data a combatant is created from.
// Player characters set Player to "player"; everything else is an NPC.
type StatBlock struct {
	ID                 string         `yaml:"id"`
	Name               string         `yaml:"name"`
	Source             string         `yaml:"source,omitempty"`
	Type               string         `yaml:"type,omitempty"` // "Medium humanoid (goblinoid)"
	Player             string         `yaml:"player,omitempty"`
	HP                 int            `yaml:"hp"`
	AC                 int            `yaml:"ac"`
	InitiativeModifier int            `yaml:"initiative_modifier"`
	Abilities          map[string]int `yaml:"abilities,omitempty"`
	Description        string         `yaml:"description,omitempty"`
}

// IsPlayerCharacter reports whether the stat block belongs to a player.
func (s StatBlock) IsPlayerCharacter() bool {
	return s.Player == "player"
}

// Validate checks the fields every combatant relies on.
func (s StatBlock) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("statblock %q: name is required", s.ID)
	}
	if s.HP <= 0 {
		return fmt.Errorf("statblock %q: hp must be positive", s.Name)
	}
	return nil
}

// ParseStatBlock decodes a single YAML stat block document.
func ParseStatBlock(raw []byte) (StatBlock, error) {
	var sb StatBlock
	if err := yaml.Unmarshal(raw, &sb); err != nil {
		return StatBlock{}, fmt.Errorf("parse statblock: %w", err)
	}
	if err := sb.Validate(); err != nil {
		return StatBlock{}, err
	}
	return sb, nil
}

// MarshalStatBlock encodes a stat block as YAML (editor payload).
func MarshalStatBlock(sb StatBlock) (string, error) {
	out, err := yaml.Marshal(sb)
	if err != nil {
		return "", fmt.Errorf("marshal statblock: %w", err)
	}
	return string(out), nil
}

// Patch applies a YAML document over a copy of s. Keys missing from raw keep
// their current values; the result must still validate.
func (s StatBlock) Patch(raw []byte) (StatBlock, error) {
	out := s
	out.Abilities = maps.Clone(s.Abilities)
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return StatBlock{}, fmt.Errorf("patch statblock: %w", err)
	}
	if err := out.Validate(); err != nil {
		return StatBlock{}, err
	}
	return out, nil
}

type statBlockFile struct {
	StatBlocks []StatBlock `yaml:"statblocks"`
}

// StatBlockLibrary holds all library stat blocks indexed by lower-cased ID.
type StatBlockLibrary struct {
	blocks map[string]*StatBlock
}

func NewStatBlockLibrary(blocks ...StatBlock) *StatBlockLibrary {
	l := &StatBlockLibrary{blocks: make(map[string]*StatBlock, len(blocks))}
	for i := range blocks {
		sb := blocks[i]
		l.blocks[strings.ToLower(sb.ID)] = &sb
	}
	return l
}

// Get returns the stat block with the given ID, or nil.
func (l *StatBlockLibrary) Get(id string) *StatBlock {
	return l.blocks[strings.ToLower(id)]
}

// Count returns the number of stat blocks in the library.
func (l *StatBlockLibrary) Count() int {
	return len(l.blocks)
}

// IDs returns all stat block IDs, sorted.
func (l *StatBlockLibrary) IDs() []string {
	ids := make([]string, 0, len(l.blocks))
	for _, sb := range l.blocks {
		ids = append(ids, sb.ID)
	}
	sort.Strings(ids)
	return ids
}

// LoadStatBlockLibrary loads stat blocks from a YAML file.
func LoadStatBlockLibrary(path string) (*StatBlockLibrary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statblocks: %w", err)
	}
	var f statBlockFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse statblocks: %w", err)
	}
	for _, sb := range f.StatBlocks {
		if sb.ID == "" {
			return nil, fmt.Errorf("statblock %q: id is required", sb.Name)
		}
		if err := sb.Validate(); err != nil {
			return nil, err
		}
	}
	return NewStatBlockLibrary(f.StatBlocks...), nil
}
