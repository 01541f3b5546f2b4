package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from the given YAML file, falling back to
// the default search paths and built-in defaults when no file is found.
// Every key can be overridden through GVMD_* environment variables.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.gvmd")
		v.AddConfigPath("/etc/gvmd")
	}

	v.SetEnvPrefix("GVMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.port", 5000)
	v.SetDefault("server.http.debug", false)

	// Database defaults
	v.SetDefault("database.path", "./data/gvmd.db")

	// Runtime defaults
	v.SetDefault("runtime.binary", "lxc")
	v.SetDefault("runtime.image", "ubuntu:22.04")
	v.SetDefault("runtime.storage_pool", "btrpool")
	v.SetDefault("runtime.timeout_seconds", 120)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "change-this-in-production")
	v.SetDefault("auth.token_ttl_hours", 24)

	// Bootstrap defaults
	v.SetDefault("bootstrap.admin_credits", 10000)
}
