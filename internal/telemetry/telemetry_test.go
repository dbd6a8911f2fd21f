package telemetry

import (
	"testing"

	"github.com/initiative-tracker/server/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTrackedEventsReachRecorderNextTick(t *testing.T) {
	bus := event.NewBus()
	rec := NewRecorder(bus)
	tr := NewTracker(bus, zap.NewNop())

	tr.TrackEvent("TemporaryHPAdded", map[string]any{"Amount": 5})
	tr.TrackEvent("InitiativeLinked", nil)
	assert.Empty(t, rec.TakeUnflushed())

	bus.SwapBuffers()
	bus.DispatchAll()

	got := rec.TakeUnflushed()
	require.Len(t, got, 2)
	assert.Equal(t, "TemporaryHPAdded", got[0].Name)
	assert.Equal(t, 5, got[0].Props["Amount"])
	assert.Equal(t, "InitiativeLinked", got[1].Name)
	assert.False(t, got[1].At.IsZero())

	rec.Requeue(got[:1])
	assert.Len(t, rec.TakeUnflushed(), 1)
}

func TestTrackerWithoutBus(t *testing.T) {
	tr := NewTracker(nil, zap.NewNop())
	assert.NotPanics(t, func() { tr.TrackEvent("DiceRolled", nil) })
}
