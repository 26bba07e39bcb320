package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/dropgraph/pkg/dropgraph/config"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.False(t, config.New(nil).Has("x"))
	assert.True(t, config.New(map[string]any{"x": nil}).Has("x"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"name": "alice"}, "alice"},
		{"key missing", map[string]any{"other": "value"}, "default"},
		{"empty string", map[string]any{"name": ""}, ""},
		{"wrong type int", map[string]any{"name": 123}, "default"},
		{"nil map", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("name", "default"))
		})
	}
}

func TestBool(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		defaultVal bool
		want       bool
	}{
		{"true", true, false, true},
		{"false", false, true, false},
		{"string true", "true", false, true},
		{"string false", "false", true, false},
		{"other string", "yes", true, true},
		{"int", 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"flag": tt.value})
			assert.Equal(t, tt.want, cfg.Bool("flag", tt.defaultVal))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"string", "1m30s", 90 * time.Second},
		{"int seconds", 5, 5 * time.Second},
		{"int64 seconds", int64(2), 2 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"duration", 3 * time.Millisecond, 3 * time.Millisecond},
		{"bad string", "soon", time.Hour},
		{"wrong type", true, time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"timeout": tt.value})
			assert.Equal(t, tt.want, cfg.Duration("timeout", time.Hour))
		})
	}
}

func TestWith(t *testing.T) {
	base := config.New(map[string]any{"a": "1"})
	next := base.With("b", "2")

	assert.False(t, base.Has("b"), "With does not modify the receiver")
	assert.Equal(t, "1", next.String("a", ""))
	assert.Equal(t, "2", next.String("b", ""))
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte("delivery: concurrent\nmetrics: true\nawait_timeout: 10s\n"))
	require.NoError(t, err)
	assert.Equal(t, "concurrent", cfg.String("delivery", ""))
	assert.True(t, cfg.Bool("metrics", false))
	assert.Equal(t, 10*time.Second, cfg.Duration("await_timeout", 0))

	_, err = config.FromYAML([]byte("delivery: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"log_level": "debug", "await_timeout": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.String("log_level", ""))
	assert.Equal(t, 3*time.Second, cfg.Duration("await_timeout", 0), "JSON numbers are seconds")

	_, err = config.FromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "cfg.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("status_store: sqlite\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.String("status_store", ""))

	jsonPath := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tracing": true}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, cfg.Bool("tracing", false))

	tomlPath := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o600))
	_, err = config.FromFile(tomlPath)
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	base := config.New(map[string]any{"delivery": "sequential", "metrics": true})
	cfg := config.FromEnv(base, []string{
		"DROPGRAPH_DELIVERY=concurrent",
		"DROPGRAPH_AUTO_COMPLETE=true",
		"DROPGRAPH_=ignored",
		"HOME=/root",
		"MALFORMED",
	})

	assert.Equal(t, "concurrent", cfg.String("delivery", ""))
	assert.True(t, cfg.Bool("auto_complete", false))
	assert.True(t, cfg.Bool("metrics", false))
	assert.False(t, cfg.Has("home"))
	assert.False(t, cfg.Has(""))
	assert.Equal(t, "sequential", base.String("delivery", ""), "base is untouched")
}
