package playerview

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/initiative-tracker/server/internal/data"
	"github.com/initiative-tracker/server/internal/world"
)

type bands struct{}

func (bands) HPDescriptor(current, maxHP int) string {
	if current < maxHP {
		return "Hurt"
	}
	return "Healthy"
}

func testEncounter() *world.Encounter {
	enc := world.NewEncounter()
	pc := enc.AddCombatant(data.StatBlock{ID: "aria", Name: "Aria", Player: "player", HP: 31}, 18)
	pc.ApplyTemporaryHP(4)
	gob := enc.AddCombatant(data.StatBlock{ID: "goblin", Name: "Goblin", HP: 7}, 12)
	gob.ApplyDamage(3)
	gob.AddTag(world.Tag{Text: "Prone"})
	enc.StartEncounter()
	return enc
}

func TestBuildHidesMonsterHP(t *testing.T) {
	p := NewPublisher(bands{}, "", zap.NewNop())
	snap := p.Build(testEncounter())

	assert.Equal(t, "active", snap.State)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, "Aria", snap.Active)
	require.Len(t, snap.Combatants, 2)
	assert.Equal(t, "31/31 (+4)", snap.Combatants[0].HP)
	assert.True(t, snap.Combatants[0].Active)
	assert.Equal(t, "Hurt", snap.Combatants[1].HP)
	assert.Equal(t, []string{"Prone"}, snap.Combatants[1].Tags)
}

func TestPublishWritesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view", "encounter.yaml")
	p := NewPublisher(bands{}, path, zap.NewNop())

	require.NoError(t, p.Publish(testEncounter()))
	assert.Equal(t, 1, p.Published())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Last(), raw)

	var back Snapshot
	require.NoError(t, yaml.Unmarshal(raw, &back))
	assert.Equal(t, "Goblin", back.Combatants[1].Name)
}
