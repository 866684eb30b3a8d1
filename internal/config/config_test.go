package config

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/reactor/internal/errors"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var re *errors.Error
	require.True(t, stderrors.As(err, &re), "expected *errors.Error, got %T", err)
	return re.Code
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestNew(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultMaxUpdateCount, cfg.MaxUpdateCount)
	assert.True(t, cfg.Async)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultDevtoolsAddr, cfg.Devtools.Addr)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
	assert.Equal(t, DefaultSnapshotDir, cfg.Snapshot.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, ConfigFileName))
	require.Error(t, err)
	assert.Equal(t, "R101", errorCode(t, err))

	path := writeConfig(t, dir, `{
  "maxUpdateCount": 10,
  "async": false,
  "silent": true,
  "log": {"level": "debug", "format": "json"},
  "devtools": {"enabled": true},
  "snapshot": {"bucket": "snaps", "prefix": "dev/"}
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.MaxUpdateCount)
	assert.False(t, cfg.Async)
	assert.True(t, cfg.DevMode, "absent fields keep their defaults")
	assert.True(t, cfg.Silent)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Devtools.Enabled)
	assert.Equal(t, DefaultDevtoolsAddr, cfg.Devtools.Addr)
	assert.Equal(t, "snaps", cfg.Snapshot.Bucket)
	assert.Equal(t, "dev/", cfg.Snapshot.Prefix)
	assert.Equal(t, path, cfg.Path())
	assert.NoError(t, cfg.Validate())
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `{"async": `)
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, "R100", errorCode(t, err))
}

func TestLoadFromDir(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	cfg, err := LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Path(), "defaults are used without a file")
	assert.Equal(t, DefaultMaxUpdateCount, cfg.MaxUpdateCount)

	writeConfig(t, root, `{"maxUpdateCount": 7}`)
	cfg, err = LoadFromDir(nested)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxUpdateCount)

	found, err := FindProjectRoot(nested)
	require.NoError(t, err)
	want, _ := filepath.Abs(root)
	assert.Equal(t, want, found)
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Metrics.Enabled = true
	cfg.Snapshot.Bucket = "b"

	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, cfg.SaveTo(path))
	assert.Equal(t, path, cfg.Path())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Metrics.Enabled)
	assert.Equal(t, "b", loaded.Snapshot.Bucket)
	assert.True(t, Exists(dir))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"REACTOR_MAX_UPDATE_COUNT":  "25",
		"REACTOR_ASYNC":             "false",
		"REACTOR_DEV_MODE":          "0",
		"REACTOR_LOG_LEVEL":         "warn",
		"REACTOR_DEVTOOLS_ENABLED":  "true",
		"REACTOR_DEVTOOLS_ADDR":     ":9000",
		"REACTOR_METRICS_NAMESPACE": "app",
		"REACTOR_SNAPSHOT_BUCKET":   "bucket",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := New()
	require.NoError(t, cfg.ApplyEnv(lookup))

	assert.Equal(t, 25, cfg.MaxUpdateCount)
	assert.False(t, cfg.Async)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Devtools.Enabled)
	assert.Equal(t, ":9000", cfg.Devtools.Addr)
	assert.Equal(t, "app", cfg.Metrics.Namespace)
	assert.Equal(t, "bucket", cfg.Snapshot.Bucket)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	env := map[string]string{
		"REACTOR_MAX_UPDATE_COUNT": "lots",
		"REACTOR_SILENT":           "maybe",
		"REACTOR_LOG_LEVEL":        "debug",
	}
	cfg := New()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	require.Error(t, err)
	assert.Equal(t, "R100", errorCode(t, err))
	assert.Equal(t, DefaultMaxUpdateCount, cfg.MaxUpdateCount)
	assert.False(t, cfg.Silent)
	assert.Equal(t, "debug", cfg.Log.Level, "valid overrides still apply")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero max update count", func(c *Config) { c.MaxUpdateCount = 0 }},
		{"unknown log level", func(c *Config) { c.Log.Level = "loud" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"devtools without addr", func(c *Config) {
			c.Devtools.Enabled = true
			c.Devtools.Addr = ""
		}},
		{"prefix without bucket", func(c *Config) { c.Snapshot.Prefix = "x/" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, "R100", errorCode(t, err))
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "n", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"n":1`)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestRuntime(t *testing.T) {
	cfg := New()
	cfg.MaxUpdateCount = 3
	cfg.Async = false
	cfg.Silent = true
	cfg.Performance = true

	rc := cfg.Runtime()
	assert.Equal(t, 3, rc.MaxUpdateCount)
	assert.False(t, rc.Async)
	assert.True(t, rc.DevMode)
	assert.True(t, rc.Silent)
	assert.True(t, rc.Performance)
}
