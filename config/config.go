// Package config resolves the process configuration for the freezer: the
// base directory under which every frozen object's data lives.
//
// Resolution order, weakest first: built-in default (~/.cryo), the YAML
// config file (~/.cryo.yaml, if present), then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in the user's home directory.
const DefaultFileName = ".cryo.yaml"

// Config holds the process-wide freezer settings.
type Config struct {
	// BaseDir is the root under which databases/ and tmp/ are created.
	BaseDir string `yaml:"basedir" env:"CRYO_BASEDIR"`
}

// Error reports configuration that cannot be resolved, such as a missing
// base directory.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Message, e.Err)
	}
	return "config: " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Default resolves the configuration for this process: home-relative
// defaults, overlaid by ~/.cryo.yaml when it exists, overlaid by environment
// variables.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, &Error{Message: "no home directory for default base dir", Err: err}
	}
	cfg := Config{BaseDir: filepath.Join(home, ".cryo")}

	path := filepath.Join(home, DefaultFileName)
	if _, statErr := os.Stat(path); statErr == nil {
		cfg, err = load(path, cfg)
		if err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, &Error{Message: "parse environment", Err: err}
	}
	return cfg, cfg.Validate()
}

// Load reads a YAML config file, applies environment overrides, and
// validates the result.
func Load(path string) (Config, error) {
	cfg, err := load(path, Config{})
	if err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, &Error{Message: "parse environment", Err: err}
	}
	return cfg, cfg.Validate()
}

func load(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Message: fmt.Sprintf("read %s", path), Err: err}
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &Error{Message: fmt.Sprintf("parse %s", path), Err: err}
	}
	return cfg, nil
}

// Validate checks that the configuration names a usable base directory.
func (c Config) Validate() error {
	if c.BaseDir == "" {
		return &Error{Message: "no base directory configured"}
	}
	return nil
}

// DatabasesDir returns the directory holding root object directories.
func (c Config) DatabasesDir() string {
	return filepath.Join(c.BaseDir, "databases")
}

// TmpDir returns the directory for temporary files.
func (c Config) TmpDir() string {
	return filepath.Join(c.BaseDir, "tmp")
}

// EnsureLayout creates the base directory tree (databases/ and tmp/),
// tolerating directories that already exist.
func (c Config) EnsureLayout() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, dir := range []string{c.BaseDir, c.DatabasesDir(), c.TmpDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &Error{Message: fmt.Sprintf("create %s", dir), Err: err}
		}
	}
	return nil
}
