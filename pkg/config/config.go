// Package config provides configuration file support for chronicle.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chronicle-project/chronicle/pkg/fsutil"
)

// Config represents the chronicle configuration.
type Config struct {
	// TrackedPaths are directory names or glob patterns whose writes are
	// worth escalating. Writes anywhere else are discarded by the filter.
	TrackedPaths []string `yaml:"tracked_paths"`

	// TrackedCommands are substrings of Bash commands worth escalating.
	TrackedCommands []string `yaml:"tracked_commands"`

	// GuardEnvVars name environment variables whose presence means an
	// orchestrated run loop is already tracking this working tree.
	GuardEnvVars []string `yaml:"guard_env_vars"`

	// TaskCommand is the task CLI observed inside sessions ("cub" by default).
	TaskCommand string `yaml:"task_command"`

	// IOTimeout bounds every blocking operation (log append, transcript
	// read, ledger write) as a duration string like "5s".
	IOTimeout string        `yaml:"io_timeout"`
	Logging   LoggingConfig `yaml:"logging"`
}

// Timeout parses IOTimeout, falling back to 5s on absent or bad values.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.IOTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// LoggingConfig configures the side-channel logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is the side-channel log path relative to the workspace root.
	// Stdout belongs to the hook protocol, so hooks never log there.
	File string `yaml:"file"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TrackedPaths: []string{
			"plans", "specs", "captures", "src", "internal", "cmd", "pkg", ".chronicle",
		},
		TrackedCommands: []string{
			"task claim", "task close", "git commit", "git add",
		},
		GuardEnvVars: []string{"CHRONICLE_ORCHESTRATED", "CUB_RUN_ID"},
		TaskCommand:  "cub",
		IOTimeout:    "5s",
		Logging: LoggingConfig{
			Level: "info",
			File:  "chronicle.log",
		},
	}
}

// Path returns the config file path for a workspace root.
func Path(root string) string {
	return filepath.Join(root, ".chronicle", "config.yaml")
}

// Load loads configuration from .chronicle/config.yaml.
// Returns default config if the file doesn't exist.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to .chronicle/config.yaml.
func Save(root string, cfg *Config) error {
	cfgPath := Path(root)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := fsutil.AtomicWrite(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
