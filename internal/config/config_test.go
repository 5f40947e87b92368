package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[world]
frame_rate = "20ms"
max_frames = 30

[logging]
level = "debug"

[database]
enabled = true
snapshot_every = 10
`))
	require.NoError(t, err)

	assert.Equal(t, 20*time.Millisecond, cfg.World.FrameRate)
	assert.Equal(t, 30, cfg.World.MaxFrames)
	assert.Equal(t, 1024, cfg.World.InitialCapacity, "untouched keys keep defaults")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, 10, cfg.Database.SnapshotEvery)
	assert.Equal(t, "data/prefabs.yaml", cfg.Prefabs.Path)
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "syntax", data: `[world`},
		{name: "zero frame rate", data: "[world]\nframe_rate = \"0s\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devkit.toml")
	require.NoError(t, os.WriteFile(path, []byte("[prefabs]\nscene = \"arena\"\nwatch = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "arena", cfg.Prefabs.Scene)
	assert.True(t, cfg.Prefabs.Watch)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
