// Package config loads shrink.toml, the settings file of the shrink CLI.
// Command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"shrinker/internal/trace"
)

// FileName is the settings file looked up from the working directory
// upwards.
const FileName = "shrink.toml"

// Config is the decoded shrink.toml.
type Config struct {
	// Path is the file the config was read from; empty for defaults.
	Path string `toml:"-"`

	Jobs           int  `toml:"jobs"`
	MaxDiagnostics int  `toml:"max_diagnostics"`
	Timings        bool `toml:"timings"`

	Program ProgramConfig `toml:"program"`
	Trace   TraceConfig   `toml:"trace"`
}

// ProgramConfig names the model files relative to the config file.
type ProgramConfig struct {
	Model string   `toml:"model"`
	Steps []string `toml:"steps"`
}

// TraceConfig mirrors the --trace* flags.
type TraceConfig struct {
	Level     string `toml:"level"`
	Mode      string `toml:"mode"`
	Format    string `toml:"format"`
	Output    string `toml:"output"`
	RingSize  int    `toml:"ring_size"`
	Heartbeat string `toml:"heartbeat"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Jobs:           runtime.GOMAXPROCS(0),
		MaxDiagnostics: 100,
		Trace: TraceConfig{
			Level:    "off",
			Mode:     "ring",
			Format:   "auto",
			RingSize: 4096,
		},
	}
}

// Find walks from startDir to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest shrink.toml above startDir, or the defaults
// when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Load decodes path over the defaults and validates the result. Unknown
// keys are an error so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.MaxDiagnostics < 0 {
		return fmt.Errorf("max_diagnostics must not be negative, got %d", c.MaxDiagnostics)
	}
	if _, err := c.Trace.Tracer(); err != nil {
		return err
	}
	return nil
}

// Resolve returns p relative to the config file's directory. Absolute
// paths and defaults without a file are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), filepath.FromSlash(p))
}

// Tracer converts the trace section to a trace.Config.
func (t TraceConfig) Tracer() (trace.Config, error) {
	level, err := trace.ParseLevel(t.Level)
	if err != nil {
		return trace.Config{}, fmt.Errorf("trace.level: %w", err)
	}
	mode, err := trace.ParseMode(t.Mode)
	if err != nil {
		return trace.Config{}, fmt.Errorf("trace.mode: %w", err)
	}
	format, err := trace.ParseFormat(t.Format)
	if err != nil {
		return trace.Config{}, fmt.Errorf("trace.format: %w", err)
	}
	if t.RingSize < 0 {
		return trace.Config{}, fmt.Errorf("trace.ring_size must not be negative, got %d", t.RingSize)
	}
	var heartbeat time.Duration
	if t.Heartbeat != "" {
		heartbeat, err = time.ParseDuration(t.Heartbeat)
		if err != nil {
			return trace.Config{}, fmt.Errorf("trace.heartbeat: %w", err)
		}
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: t.Output,
		RingSize:   t.RingSize,
		Heartbeat:  heartbeat,
	}, nil
}
