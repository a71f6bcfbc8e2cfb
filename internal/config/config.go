package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/npmwatch/npmwatch/internal/logger"
)

// Config is the full run configuration: the supervised script plus ambient
// settings. Immutable once handed to the supervisor.
type Config struct {
	Script      string `mapstructure:"script"`       // npm script name (default "start")
	WorkDir     string `mapstructure:"cwd"`          // working directory of the child
	Restart     bool   `mapstructure:"restart"`      // restart on exit
	MaxRestarts int    `mapstructure:"max_restarts"` // cap on attempts; -1 = unlimited
	Bin         string `mapstructure:"bin"`          // package-script runner (default "npm")

	MetricsListen string `mapstructure:"metrics_listen"` // e.g. ":9464"; empty = disabled
	HistoryDSN    string `mapstructure:"history"`        // sqlite DSN for attempt history; empty = disabled

	Log      logger.Config      `mapstructure:"log"`
	ChildLog logger.ChildConfig `mapstructure:"child_log"`
}

func Default() Config {
	return Config{
		Script:      "start",
		WorkDir:     ".",
		MaxRestarts: -1,
		Bin:         "npm",
	}
}

// Load reads a TOML config file into a Config starting from defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalize fills defaults and reconciles dependent fields. With restart
// disabled the attempt cap is forced to zero so the loop runs exactly once.
func (c *Config) Normalize() {
	if c.Script == "" {
		c.Script = "start"
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Bin == "" {
		c.Bin = "npm"
	}
	if !c.Restart {
		c.MaxRestarts = 0
	}
}

// Validate checks the parts that must hold before supervision starts.
func (c *Config) Validate() error {
	st, err := os.Stat(c.WorkDir)
	if err != nil {
		return fmt.Errorf("working directory does not exist: %s", c.WorkDir)
	}
	if !st.IsDir() {
		return fmt.Errorf("working directory is not a directory: %s", c.WorkDir)
	}
	return nil
}

// HasManifest reports whether WorkDir contains a package.json. Its absence
// is worth a warning but does not prevent supervision.
func (c *Config) HasManifest() bool {
	_, err := os.Stat(filepath.Join(c.WorkDir, "package.json"))
	return err == nil
}
