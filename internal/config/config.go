// Copyright (c) 2026 gitswitch contributors
// gitswitch - Git identity and SSH key switcher
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads gitswitch settings from defaults, YAML files, the
// environment and command-line flags, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/gitswitch/internal/model"
)

// Config is the resolved application configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	SSH struct {
		Dir     string `mapstructure:"dir" yaml:"dir"`
		KeyName string `mapstructure:"key_name" yaml:"key_name"`
	} `mapstructure:"ssh" yaml:"ssh"`
	Keygen struct {
		// Mode is one of "auto", "ssh-keygen" or "native".
		Mode string `mapstructure:"mode" yaml:"mode"`
	} `mapstructure:"keygen" yaml:"keygen"`
	Git struct {
		Binary string `mapstructure:"binary" yaml:"binary"`
	} `mapstructure:"git" yaml:"git"`
	Language string `mapstructure:"language" yaml:"language"`
}

// KeyPaths returns the resident key file paths derived from the SSH settings.
func (c Config) KeyPaths() model.KeyPaths {
	return model.NewKeyPaths(c.SSH.Dir, c.SSH.KeyName)
}

// Defaults returns the default values keyed by their viper key.
func Defaults() map[string]any {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dsn := filepath.Join(home, ".gitswitch.db")
	if dir, err := os.UserConfigDir(); err == nil {
		dsn = filepath.Join(dir, "gitswitch", "gitswitch.db")
	}
	return map[string]any{
		"database.type": "sqlite",
		"database.dsn":  dsn,
		"ssh.dir":       filepath.Join(home, ".ssh"),
		"ssh.key_name":  "id_ed25519",
		"keygen.mode":   "auto",
		"git.binary":    "git",
		"language":      "en",
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	var configDir string
	var err error

	if system {
		switch runtime.GOOS {
		case "windows":
			configDir = filepath.Join(os.Getenv("ProgramData"), "gitswitch")
		default:
			configDir = "/etc/gitswitch"
		}
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("could not get user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "gitswitch")
	}

	return filepath.Join(configDir, "gitswitch.yaml"), nil
}

// LoadConfig resolves a T from defaults, config files, GITSWITCH_* environment
// variables and the flags of cmd. A missing config file is reported as
// viper.ConfigFileNotFoundError together with a fully populated T.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, explicitPath *string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("gitswitch")
	v.SetConfigType("yaml")

	// An explicit --config path wins over the search paths below.
	if explicitPath != nil {
		v.SetConfigFile(*explicitPath)
	}

	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
		notFound = err
	}

	v.SetEnvPrefix("gitswitch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}

	return c, notFound
}

// WriteConfigFile persists c to the user (or system) config path, creating
// the directory when needed.
func WriteConfigFile[T any](c *T, system bool) error {
	path, err := GetConfigPath(system)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0o600)
}
