package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/component"
	"github.com/vango-dev/reactor/pkg/scheduler"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reactor.json"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "REACTOR_"

	// DefaultMaxUpdateCount is the per-flush re-queue cap.
	DefaultMaxUpdateCount = scheduler.DefaultMaxUpdateCount

	// DefaultLogLevel is the default slog level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default slog handler.
	DefaultLogFormat = "text"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7070"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "reactor"

	// DefaultSnapshotDir is where snapshots go when no bucket is set.
	DefaultSnapshotDir = "snapshots"
)

// Config represents the complete reactor.json configuration.
type Config struct {
	// MaxUpdateCount caps how often one computation may be re-queued in a
	// single flush.
	MaxUpdateCount int `json:"maxUpdateCount,omitempty"`

	// Async defers flushes to the next tick. When false every change
	// flushes immediately.
	Async bool `json:"async"`

	// DevMode enables warnings.
	DevMode bool `json:"devMode"`

	// Silent suppresses warnings even in dev mode.
	Silent bool `json:"silent,omitempty"`

	// Performance logs render and patch timings.
	Performance bool `json:"performance,omitempty"`

	Log      LogConfig      `json:"log,omitempty"`
	Devtools DevtoolsConfig `json:"devtools,omitempty"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
	Snapshot SnapshotConfig `json:"snapshot,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// SnapshotConfig selects where POST /snapshot writes. A non-empty Bucket
// selects S3, otherwise files are written to Dir.
type SnapshotConfig struct {
	Dir    string `json:"dir,omitempty"`
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		MaxUpdateCount: DefaultMaxUpdateCount,
		Async:          true,
		DevMode:        true,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Snapshot: SnapshotConfig{
			Dir: DefaultSnapshotDir,
		},
	}
}

// Load reads configuration from the specified file path. Fields missing
// from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R101").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Run 'reactor config init' to write the defaults")
		}
		return nil, errors.New("R100").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("R100").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromDir loads reactor.json from dir or its nearest parent that has
// one. When none exists the defaults are returned.
func LoadFromDir(dir string) (*Config, error) {
	root, err := FindProjectRoot(dir)
	if err != nil {
		return New(), nil
	}
	return Load(filepath.Join(root, ConfigFileName))
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("R100").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R100").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.MaxUpdateCount == 0 {
		c.MaxUpdateCount = DefaultMaxUpdateCount
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = DefaultSnapshotDir
	}
}

// ApplyEnv overrides fields from REACTOR_* variables using lookup, which is
// normally os.LookupEnv. Unparseable values are reported as R100.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var bad []string
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				bad = append(bad, EnvPrefix+name+"="+v)
				return
			}
			*dst = b
		}
	}

	if v, ok := lookup(EnvPrefix + "MAX_UPDATE_COUNT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			bad = append(bad, EnvPrefix+"MAX_UPDATE_COUNT="+v)
		} else {
			c.MaxUpdateCount = n
		}
	}
	boolean("ASYNC", &c.Async)
	boolean("DEV_MODE", &c.DevMode)
	boolean("SILENT", &c.Silent)
	boolean("PERFORMANCE", &c.Performance)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	boolean("DEVTOOLS_ENABLED", &c.Devtools.Enabled)
	str("DEVTOOLS_ADDR", &c.Devtools.Addr)
	boolean("METRICS_ENABLED", &c.Metrics.Enabled)
	str("METRICS_NAMESPACE", &c.Metrics.Namespace)
	str("SNAPSHOT_DIR", &c.Snapshot.Dir)
	str("SNAPSHOT_BUCKET", &c.Snapshot.Bucket)
	str("SNAPSHOT_PREFIX", &c.Snapshot.Prefix)

	if len(bad) > 0 {
		return errors.New("R100").
			WithDetail("Invalid environment override: " + strings.Join(bad, ", "))
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxUpdateCount < 1 {
		return errors.New("R100").
			WithDetail("maxUpdateCount must be at least 1")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("R100").
			WithDetail("log.format must be \"text\" or \"json\", got " + strconv.Quote(c.Log.Format))
	}
	if c.Devtools.Enabled && c.Devtools.Addr == "" {
		return errors.New("R100").
			WithDetail("devtools.addr is required when devtools are enabled")
	}
	if c.Snapshot.Prefix != "" && c.Snapshot.Bucket == "" {
		return errors.New("R100").
			WithDetail("snapshot.prefix is only used with snapshot.bucket")
	}
	return nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("R100").
			WithDetail("log.level must be debug, info, warn or error, got " + strconv.Quote(c.Log.Level))
	}
	return level, nil
}

// Logger builds the slog logger described by Log, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Runtime returns the runtime-facing configuration.
func (c *Config) Runtime() component.Config {
	return component.Config{
		MaxUpdateCount: c.MaxUpdateCount,
		Async:          c.Async,
		DevMode:        c.DevMode,
		Silent:         c.Silent,
		Performance:    c.Performance,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the one holding
// reactor.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R101").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
