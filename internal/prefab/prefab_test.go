package prefab

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/devkit/internal/component"
	"github.com/l1jgo/devkit/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefabs = `
prefabs:
  - name: mover
    components:
      node:
        position: [1, 2, 3]
      velocity:
        linear: [1, 0, 0]
      lifetime:
        remaining: 3s
  - name: statue
    disabled: true
    components:
      node: ~
      frozen:
        reason: decorative
  - name: empty
scenes:
  - name: default
    spawn:
      - prefab: mover
        count: 2
      - prefab: statue
`

func TestParseLibrary(t *testing.T) {
	lib, err := ParseLibrary([]byte(testPrefabs))
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Count())

	mover, ok := lib.Get("mover")
	require.True(t, ok)
	names := make([]string, 0, len(mover.Components))
	for _, c := range mover.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"node", "velocity", "lifetime"}, names, "file order is kept")

	_, ok = lib.Scene("default")
	assert.True(t, ok)
}

func TestParseLibraryErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown component",
			doc:  "prefabs:\n  - name: a\n    components:\n      teleporter: {}\n",
		},
		{
			name: "bad payload",
			doc:  "prefabs:\n  - name: a\n    components:\n      node:\n        position: [1, 2]\n",
		},
		{
			name: "duplicate prefab",
			doc:  "prefabs:\n  - name: a\n  - name: a\n",
		},
		{
			name: "missing name",
			doc:  "prefabs:\n  - components: {}\n",
		},
		{
			name: "scene references unknown prefab",
			doc:  "prefabs:\n  - name: a\nscenes:\n  - name: s\n    spawn:\n      - prefab: b\n",
		},
		{
			name: "components not a mapping",
			doc:  "prefabs:\n  - name: a\n    components: [node]\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLibrary([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSpawn(t *testing.T) {
	lib, err := ParseLibrary([]byte(testPrefabs))
	require.NoError(t, err)
	w := ecs.NewWorld()

	e, err := lib.Spawn(w, "mover")
	require.NoError(t, err)

	node, err := component.NodeType.Get(e)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, node.Position)
	assert.Equal(t, e, node.Entity(), "owner back-reference is bound on attach")

	lt, err := component.LifetimeType.Get(e)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, lt.Remaining)
	assert.Equal(t, 3*time.Second, lt.Total)

	// Every spawn decodes fresh instances.
	e2, err := lib.Spawn(w, "mover")
	require.NoError(t, err)
	node2 := component.NodeType.MustGet(e2)
	node2.Position = mgl64.Vec3{}
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, node.Position)

	statue, err := lib.Spawn(w, "statue")
	require.NoError(t, err)
	assert.False(t, statue.Enabled())
	assert.True(t, component.FrozenType.Has(statue))

	_, err = lib.Spawn(w, "nope")
	assert.Error(t, err)
}

func TestSpawnScene(t *testing.T) {
	lib, err := ParseLibrary([]byte(testPrefabs))
	require.NoError(t, err)
	w := ecs.NewWorld()

	ents, err := lib.SpawnScene(w, "default")
	require.NoError(t, err)
	assert.Len(t, ents, 3)
	assert.Equal(t, 3, w.Len())

	_, err = lib.SpawnScene(w, "missing")
	assert.Error(t, err)
}

func TestLoadLibrary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefabs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPrefabs), 0o644))

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	assert.Equal(t, 3, lib.Count())

	_, err = LoadLibrary(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
