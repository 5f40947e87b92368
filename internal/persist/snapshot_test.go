package persist

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct{ closed bool }

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestCaptureRestore(t *testing.T) {
	src := ecs.NewWorld()
	a := src.CreateEntity()
	require.NoError(t, component.NodeType.Add(a, &component.Node{Position: mgl64.Vec3{1, 2, 3}, Scale: 2}))
	require.NoError(t, component.ScriptType.Add(a, &component.Script{Handler: "walk", Params: map[string]float64{"speed": 4}}))
	require.NoError(t, component.LifetimeType.Add(a, &component.Lifetime{Remaining: 3 * time.Second}))

	b := src.CreateEntity()
	require.NoError(t, component.RenderableType.Add(b, &component.Renderable{Mesh: "crate", Visible: true, Resource: &closer{}}))
	require.NoError(t, b.Disable())

	dying := src.CreateEntity()
	require.NoError(t, dying.Kill())

	snap, err := Capture(src, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), snap.Frame)
	assert.False(t, snap.TakenAt.IsZero())
	require.Len(t, snap.Entities, 2)
	assert.Equal(t, a.ID().Index(), snap.Entities[0].Index)
	assert.Equal(t, a.ID().Generation(), snap.Entities[0].Generation)
	assert.False(t, snap.Entities[1].Enabled)

	dst := ecs.NewWorld()
	restored, err := Restore(dst, snap)
	require.NoError(t, err)
	require.Len(t, restored, 2)

	ra, rb := restored[0], restored[1]
	node := component.NodeType.MustGet(ra)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, node.Position)
	assert.Equal(t, 2.0, node.Scale)
	assert.Equal(t, ra, node.Entity())
	assert.Equal(t, map[string]float64{"speed": 4}, component.ScriptType.MustGet(ra).Params)
	lt := component.LifetimeType.MustGet(ra)
	assert.Equal(t, 3*time.Second, lt.Remaining)
	assert.Equal(t, 3*time.Second, lt.Total)

	assert.False(t, rb.Enabled())
	r := component.RenderableType.MustGet(rb)
	assert.Equal(t, "crate", r.Mesh)
	assert.True(t, r.Visible)
	assert.Nil(t, r.Resource, "native resources are not captured")
}

func TestRestoreUnknownComponent(t *testing.T) {
	w := ecs.NewWorld()
	snap := &Snapshot{Entities: []EntityRecord{
		{Index: 0, Generation: 1, Enabled: true, Components: []ComponentRecord{{Name: "node", Payload: []byte(`{"scale":1}`)}}},
		{Index: 1, Generation: 1, Enabled: true, Components: []ComponentRecord{{Name: "mystery"}}},
	}}

	restored, err := Restore(w, snap)
	assert.ErrorIs(t, err, ecs.ErrComponentNotRegistered)
	require.Len(t, restored, 1)
	assert.True(t, restored[0].Valid())

	w.Refresh()
	assert.Equal(t, 1, w.Len(), "the failed entity is killed")
}

func TestRestoreBadPayload(t *testing.T) {
	w := ecs.NewWorld()
	snap := &Snapshot{Entities: []EntityRecord{
		{Enabled: true, Components: []ComponentRecord{{Name: "velocity", Payload: []byte(`{"linear":"fast"}`)}}},
	}}
	_, err := Restore(w, snap)
	assert.ErrorContains(t, err, "decode velocity")
}
