package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsDeliveredNextTick(t *testing.T) {
	b := NewBus()
	var got []string
	Subscribe(b, func(ev Telemetry) { got = append(got, ev.Name) })

	Emit(b, Telemetry{Name: "DiceRolled"})
	Emit(b, Telemetry{Name: "InitiativeLinked"})
	assert.Equal(t, 2, b.Pending())

	// nothing is delivered before the swap
	b.DispatchAll()
	assert.Empty(t, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"DiceRolled", "InitiativeLinked"}, got)
	assert.Zero(t, b.Pending())

	// front buffer is consumed
	b.DispatchAll()
	assert.Len(t, got, 2)
}

func TestEmitOnNilBusIsDropped(t *testing.T) {
	assert.NotPanics(t, func() { Emit[Telemetry](nil, Telemetry{Name: "x"}) })
}

func TestHandlersAreTyped(t *testing.T) {
	b := NewBus()
	var tele, logs int
	Subscribe(b, func(Telemetry) { tele++ })
	Subscribe(b, func(LogAppended) { logs++ })

	Emit(b, LogAppended{Seq: 1, Text: "Goblin 1 removed from encounter."})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Zero(t, tele)
	assert.Equal(t, 1, logs)
}
