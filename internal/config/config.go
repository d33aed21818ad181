// Package config defines the typed runtime configuration and its loader.
//
// Configuration layering, lowest to highest precedence: built-in defaults,
// an optional YAML config file, JOBSHERPA_* environment variables, and
// command-line flags bound by the cmd package.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	// Workspace is the base directory job directories are created under.
	Workspace string `mapstructure:"workspace"`

	// KBDir is the root of the knowledge base directory tree.
	KBDir string `mapstructure:"kb_dir"`

	// UserProfile is the path to the user's profile YAML file.
	UserProfile string `mapstructure:"user_profile"`

	// SystemProfile names the system profile to run against.
	SystemProfile string `mapstructure:"system_profile"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
}

// SchedulerConfig bounds scheduler CLI invocations.
type SchedulerConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`

	// Profile selects the output encoding: "structured" (JSON) or
	// "console".
	Profile string `mapstructure:"profile"`
}

// ServerConfig configures the status API server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("workspace", filepath.Join(home, "jobsherpa-workspace"))
	v.SetDefault("kb_dir", filepath.Join(home, ".jobsherpa", "kb"))
	v.SetDefault("user_profile", filepath.Join(home, ".jobsherpa", "profile.yaml"))
	v.SetDefault("system_profile", "")

	v.SetDefault("scheduler.timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "console")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// Load resolves the configuration from v. When cfgFile is non-empty it
// must exist; otherwise an optional config file is searched for under
// ~/.jobsherpa/.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("JOBSHERPA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jobsherpa"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	return &cfg, nil
}
