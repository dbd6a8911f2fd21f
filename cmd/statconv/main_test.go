package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initiative-tracker/server/internal/data"
)

func TestParseValues(t *testing.T) {
	got := parseValues(`INSERT INTO monsters VALUES ('ogre', 'Ogre''s Kin', 'Large giant', 59, NULL);`)
	assert.Equal(t, []string{"ogre", "Ogre's Kin", "Large giant", "59", ""}, got)
	assert.Nil(t, parseValues("SELECT 1;"))
}

func TestAbilityModifier(t *testing.T) {
	for score, want := range map[int]int{1: -5, 8: -1, 9: -1, 10: 0, 11: 0, 14: 2, 20: 5} {
		assert.Equal(t, want, abilityModifier(score), "score %d", score)
	}
}

func TestConvertRows(t *testing.T) {
	rows := [][]string{
		{"Goblin", "Goblin", "Small humanoid", "7", "15", "8", "14", "10", "10", "8", "8", "0", "Nimble Escape."},
		{"aria", "Aria", "Half-elf wizard", "31", "12", "9", "16", "14", "18", "12", "11", "1"},
		{"short", "Short"},
		{"ghost", "Ghost", "Undead", "0", "11", "7", "13", "10", "10", "12", "17"},
		{"goblin", "Goblin Again", "Small humanoid", "7", "15", "8", "14", "10", "10", "8", "8"},
	}
	blocks, skipped := convertRows(rows, "Basic Rules")
	require.Len(t, blocks, 2)
	assert.Len(t, skipped, 3)

	aria, goblin := blocks[0], blocks[1]
	assert.Equal(t, "aria", aria.ID)
	assert.True(t, aria.IsPlayerCharacter())
	assert.Equal(t, 3, aria.InitiativeModifier)

	assert.Equal(t, "goblin", goblin.ID)
	assert.False(t, goblin.IsPlayerCharacter())
	assert.Equal(t, 2, goblin.InitiativeModifier)
	assert.Equal(t, "Basic Rules", goblin.Source)
	assert.Equal(t, "Nimble Escape.", goblin.Description)
	assert.Equal(t, 14, goblin.Abilities["dex"])
}

func TestConvertedLibraryLoads(t *testing.T) {
	dir := t.TempDir()
	dump := filepath.Join(dir, "monsters.sql")
	require.NoError(t, os.WriteFile(dump, []byte(
		"-- monsters\n"+
			"INSERT INTO monsters VALUES ('wolf', 'Wolf', 'Medium beast', 11, 13, 12, 15, 12, 3, 12, 6, 0, NULL);\n"+
			"INSERT INTO monsters VALUES ('ogre', 'Ogre', 'Large giant', 59, 11, 19, 8, 16, 5, 7, 7, 0, NULL);\n",
	), 0o644))

	rows, err := parseAllInserts(dump)
	require.NoError(t, err)
	blocks, skipped := convertRows(rows, "")
	assert.Empty(t, skipped)

	out := filepath.Join(dir, "yaml", "statblocks.yaml")
	require.NoError(t, writeYAML(out, libraryYAML{StatBlocks: blocks}, "# test"))

	lib, err := data.LoadStatBlockLibrary(out)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Count())
	assert.Equal(t, -1, lib.Get("ogre").InitiativeModifier)
}
