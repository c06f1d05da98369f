package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. SITEKIT_TERMINUS.
	EnvPrefix = "SITEKIT"

	// UpstreamCITemplate identifies the stock build-tools CI templates.
	UpstreamCITemplate = "pantheon-systems/tbt-ci-templates"
	// DefaultCITemplate replaces the stock CI templates on project create.
	DefaultCITemplate = "git@github.com:lcatlett/tbt-ci-templates.git"
)

// Config represents the sitekit configuration file
type Config struct {
	// SiteName overrides the site name derived from the project directory.
	SiteName string `mapstructure:"site_name" yaml:"site_name,omitempty"`
	// Terminus is the command line used to invoke terminus.
	Terminus string `mapstructure:"terminus" yaml:"terminus"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Strict makes failed operations exit non-zero instead of only logging.
	Strict bool `mapstructure:"strict" yaml:"strict"`

	UpstreamCITemplate string `mapstructure:"upstream_ci_template" yaml:"upstream_ci_template"`
	CITemplate         string `mapstructure:"ci_template" yaml:"ci_template"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Terminus:           "terminus",
		LogLevel:           "info",
		UpstreamCITemplate: UpstreamCITemplate,
		CITemplate:         DefaultCITemplate,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("site_name", d.SiteName)
	v.SetDefault("terminus", d.Terminus)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("upstream_ci_template", d.UpstreamCITemplate)
	v.SetDefault("ci_template", d.CITemplate)
}

// Load reads the config file at path, layered over defaults and SITEKIT_*
// environment variables. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to the specified path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Dir returns the sitekit home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sitekit"
	}
	return filepath.Join(home, ".sitekit")
}

// GetConfigPath returns the path to the sitekit config file
func GetConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// GetStatePath returns the path to the scaffold journal
func GetStatePath() string {
	return filepath.Join(Dir(), "state.json")
}
