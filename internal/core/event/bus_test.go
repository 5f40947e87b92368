package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type spawned struct{ ID int }
type despawned struct{ ID int }

func TestBusDeliversNextFrame(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(ev spawned) { got = append(got, ev.ID) })

	Emit(b, spawned{ID: 1})
	Emit(b, spawned{ID: 2})
	assert.Equal(t, 2, Pending[spawned](b))

	b.DispatchAll()
	assert.Empty(t, got, "events emitted this frame are not visible yet")

	b.SwapBuffers()
	assert.Zero(t, Pending[spawned](b))
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []int{1, 2}, got, "a frame's events are delivered once")
}

func TestBusTypeOrder(t *testing.T) {
	b := NewBus()
	var order []string
	Subscribe(b, func(despawned) { order = append(order, "despawned") })
	Subscribe(b, func(spawned) { order = append(order, "spawned") })

	Emit(b, despawned{})
	Emit(b, spawned{})
	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []string{"despawned", "spawned"}, order)
}

func TestBusDrain(t *testing.T) {
	b := NewBus()
	Emit(b, spawned{ID: 7})
	assert.Nil(t, Drain[spawned](b))

	b.SwapBuffers()
	assert.Equal(t, []spawned{{ID: 7}}, Drain[spawned](b))
	assert.Nil(t, Drain[spawned](b))
	assert.Nil(t, Drain[despawned](b))
}
