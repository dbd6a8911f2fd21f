package commander

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/initiative-tracker/server/internal/dice"
	"github.com/initiative-tracker/server/internal/prompt"
	"github.com/initiative-tracker/server/internal/world"
)

func TestEditHPAppliesDamageToEveryTarget(t *testing.T) {
	f := newFixture(t)
	a := f.add(knight, 10)
	b := f.add(goblin, 10)

	f.cmd.Select(a, false)
	f.cmd.Select(b, true)
	f.cmd.EditHP()
	p := f.queue.Current()
	require.NotNil(t, p)
	assert.Equal(t, prompt.KindApplyDamage, p.Kind)
	assert.Equal(t, "", p.Default("damage"))

	require.True(t, f.queue.ResolveCurrent(map[string]string{"damage": "5"}))
	assert.Equal(t, 5, a.CurrentHP)
	assert.Equal(t, 2, b.CurrentHP)
	assert.Equal(t, []string{"Knight, Goblin took 5 damage."}, f.logTexts())
	assert.True(t, f.roster.TakeEmitPending())
}

func TestEditHPIgnoresEmptyOrInvalidInput(t *testing.T) {
	for _, values := range []map[string]string{
		nil,
		{},
		{"damage": ""},
		{"damage": "   "},
		{"damage": "lots"},
	} {
		f := newFixture(t)
		a := f.add(knight, 10)
		f.cmd.Select(a, false)
		f.cmd.EditHP()

		require.True(t, f.queue.ResolveCurrent(values))
		assert.Equal(t, 10, a.CurrentHP)
		assert.Empty(t, f.logTexts())
		assert.False(t, f.roster.TakeEmitPending())
	}
}

func TestEditHPDismissedIsNoop(t *testing.T) {
	f := newFixture(t)
	a := f.add(knight, 10)
	f.cmd.Select(a, false)
	f.cmd.EditHP()

	require.True(t, f.queue.DismissCurrent())
	assert.Equal(t, 10, a.CurrentHP)
	assert.Empty(t, f.logTexts())
}

func TestEditHPHealsWithNegativeAmount(t *testing.T) {
	f := newFixture(t)
	a := f.add(wizard, 10)
	a.ApplyDamage(12)
	f.cmd.Select(a, false)
	f.cmd.EditHP()

	require.True(t, f.queue.ResolveCurrent(map[string]string{"damage": "-5"}))
	assert.Equal(t, 23, a.CurrentHP)
	assert.Equal(t, []string{"Wizard healed for 5."}, f.logTexts())
}

func TestEditHPDefaultsToLatestRoll(t *testing.T) {
	f := newFixture(t)
	a := f.add(ogre, 10)
	f.dice.result = dice.Result{Expression: "2d6+3", Total: 9, FormattedString: "[4,2] + 3 = 9"}
	require.NoError(t, f.cmd.RollDice("2d6+3"))
	require.True(t, f.queue.DismissCurrent())

	f.cmd.Select(a, false)
	f.cmd.EditHP()
	assert.Equal(t, "9", f.queue.Current().Default("damage"))
}

func TestEditHPSkipsCombatantsRemovedWhilePrompting(t *testing.T) {
	f := newFixture(t)
	a := f.add(knight, 10)
	b := f.add(goblin, 10)
	f.cmd.Select(a, false)
	f.cmd.Select(b, true)
	f.cmd.EditHP()

	f.roster.RemoveCombatants([]*world.Combatant{b})
	require.True(t, f.queue.ResolveCurrent(map[string]string{"damage": "3"}))
	assert.Equal(t, 7, a.CurrentHP)
	assert.Equal(t, []string{"Knight took 3 damage."}, f.logTexts())
}

func TestEditHPWithoutSelectionOpensNothing(t *testing.T) {
	f := newFixture(t)
	f.add(knight, 10)
	f.cmd.EditHP()
	f.cmd.AddTemporaryHP()
	assert.Equal(t, 0, f.queue.Len())
}

func TestConcentrationCheckIsDeferredUntilAfterDamage(t *testing.T) {
	f := newFixture(t)
	w := f.add(wizard, 10)
	w.AddTag(world.Tag{Text: world.ConcentratingTag})
	g := f.add(goblin, 10)
	g.AddTag(world.Tag{Text: "Prone"})

	f.cmd.Select(w, false)
	f.cmd.Select(g, true)
	f.cmd.EditHP()
	require.True(t, f.queue.ResolveCurrent(map[string]string{"damage": "22"}))

	// damage is applied and logged before the check exists
	assert.Equal(t, []string{"Wizard, Goblin took 22 damage."}, f.logTexts())
	assert.Equal(t, 0, f.queue.Len())
	assert.Equal(t, 1, f.cmd.DeferredPending())

	assert.Equal(t, 1, f.cmd.FlushDeferred())
	check := f.queue.Current()
	require.NotNil(t, check)
	assert.Equal(t, prompt.KindConcentration, check.Kind)
	assert.Equal(t, "Wizard DC 11 concentration check (damage: 22)", check.Message)

	require.True(t, f.queue.ResolveCurrent(map[string]string{"result": "FAIL"}))
	assert.False(t, w.HasTag(world.ConcentratingTag))
	assert.Equal(t, "Wizard lost concentration.", f.logTexts()[1])
}

func TestConcentrationCheckPassKeepsTag(t *testing.T) {
	f := newFixture(t)
	w := f.add(wizard, 10)
	w.AddTag(world.Tag{Text: world.ConcentratingTag})

	f.cmd.CheckConcentration(w, 4)
	f.cmd.FlushDeferred()
	assert.Contains(t, f.queue.Current().Message, "DC 10")

	require.True(t, f.queue.ResolveCurrent(map[string]string{"result": "pass"}))
	assert.True(t, w.HasTag(world.ConcentratingTag))
	assert.Empty(t, f.logTexts())
}

func TestConcentrationAutoCheckCanBeDisabled(t *testing.T) {
	f := newFixture(t)
	f.settings.concentration = false
	w := f.add(wizard, 10)
	w.AddTag(world.Tag{Text: world.ConcentratingTag})

	f.cmd.Select(w, false)
	f.cmd.EditHP()
	f.queue.ResolveCurrent(map[string]string{"damage": "8"})
	assert.Equal(t, 0, f.cmd.DeferredPending())

	f.settings.concentration = true
	f.cmd.EditHP()
	f.queue.ResolveCurrent(map[string]string{"damage": "-3"})
	assert.Equal(t, 0, f.cmd.DeferredPending(), "healing never triggers a check")
}

func TestSuggestEditHPRespectsSetting(t *testing.T) {
	f := newFixture(t)
	a := f.add(goblin, 10)
	f.settings.suggestions = false

	assert.False(t, f.cmd.SuggestEditHP([]*world.Combatant{a}, 4, "Sam"))
	assert.Equal(t, 0, f.queue.Len())

	f.settings.suggestions = true
	assert.True(t, f.cmd.SuggestEditHP([]*world.Combatant{a}, 4, "Sam"))
	p := f.queue.Current()
	require.NotNil(t, p)
	assert.Equal(t, prompt.KindAcceptDamage, p.Kind)
	assert.Equal(t, "Sam suggests applying 4 damage to Goblin.", p.Message)

	require.True(t, f.queue.ResolveCurrent(map[string]string{"accept": "yes"}))
	assert.Equal(t, 3, a.CurrentHP)
	assert.Equal(t, []string{"Goblin took 4 damage."}, f.logTexts())
}

func TestSuggestEditHPRejected(t *testing.T) {
	f := newFixture(t)
	a := f.add(goblin, 10)

	require.True(t, f.cmd.SuggestEditHP([]*world.Combatant{a}, 4, "Sam"))
	require.True(t, f.queue.ResolveCurrent(map[string]string{"accept": "no"}))
	assert.Equal(t, 7, a.CurrentHP)

	require.True(t, f.cmd.SuggestEditHP([]*world.Combatant{a}, 4, "Sam"))
	require.True(t, f.queue.DismissCurrent())
	assert.Equal(t, 7, a.CurrentHP)
	assert.Empty(t, f.logTexts())

	assert.False(t, f.cmd.SuggestEditHP(nil, 4, "Sam"))
}

func TestAddTemporaryHP(t *testing.T) {
	f := newFixture(t)
	a := f.add(knight, 10)
	b := f.add(goblin, 10)
	f.cmd.Select(a, false)
	f.cmd.Select(b, true)

	f.cmd.AddTemporaryHP()
	require.True(t, f.queue.ResolveCurrent(map[string]string{"thp": "6"}))
	assert.Equal(t, 6, a.TemporaryHP)
	assert.Equal(t, 6, b.TemporaryHP)
	assert.Equal(t, []string{"6 temporary hit points granted to Knight, Goblin."}, f.logTexts())
	require.Len(t, f.telemetry.events, 1)
	assert.Equal(t, "TemporaryHPAdded", f.telemetry.events[0].name)
	assert.Equal(t, 6, f.telemetry.events[0].props["Amount"])

	f.cmd.AddTemporaryHP()
	require.True(t, f.queue.ResolveCurrent(map[string]string{"thp": ""}))
	assert.Len(t, f.logTexts(), 1)
}
