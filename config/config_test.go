package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemaviz/erd"
	"schemaviz/layout"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "layout", cfg.View.Mode)
	assert.Equal(t, 80, cfg.View.Cols)
	assert.Equal(t, -800.0, cfg.Layout.Charge)
	assert.Equal(t, 150.0, cfg.Layout.LinkDistance)
	assert.Equal(t, 30.0, cfg.Layout.CollisionRadius)
	assert.Equal(t, 16*time.Millisecond, cfg.Layout.Interval)
	assert.Equal(t, "source", cfg.Diagram.Engine)
	assert.Equal(t, erd.DefaultCLIPath, cfg.Diagram.MMDCPath)
	assert.Equal(t, 30*time.Second, cfg.Diagram.Timeout)
	assert.Equal(t, uint32(3), cfg.Diagram.MaxFailures)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, layout.DefaultConfig(), cfg.LayoutSettings())
	assert.Equal(t, erd.DefaultConfig(), cfg.DiagramSettings())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemaviz.yaml")
	content := `
view:
  mode: table
layout:
  charge: -400
  link_distance: 90
  seed: 7
diagram:
  engine: mmdc
  format: png
  timeout: 5s
server:
  addr: ":9000"
log:
  development: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SCHEMAVIZ_LAYOUT_LINK_DISTANCE", "120")
	t.Setenv("SCHEMAVIZ_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "table", cfg.View.Mode)
	assert.Equal(t, -400.0, cfg.Layout.Charge)
	assert.Equal(t, 120.0, cfg.Layout.LinkDistance, "environment wins over file")
	assert.Equal(t, "mmdc", cfg.Diagram.Engine)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)

	lc := cfg.LayoutSettings()
	assert.Equal(t, int64(7), lc.Seed)
	assert.Equal(t, 120.0, lc.LinkDistance)

	assert.Equal(t, erd.OutputPNG, cfg.DiagramSettings().Format)
	assert.Equal(t, 5*time.Second, cfg.CLIEngineSettings().Timeout)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"engine", "SCHEMAVIZ_DIAGRAM_ENGINE", "graphviz"},
		{"format", "SCHEMAVIZ_DIAGRAM_FORMAT", "gif"},
		{"radius", "SCHEMAVIZ_LAYOUT_COLLISION_RADIUS", "0"},
		{"cols", "SCHEMAVIZ_VIEW_COLS", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(tt.env, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
