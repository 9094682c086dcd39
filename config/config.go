// Package config loads the sagaflowctl CLI's configuration via viper, the
// same engine and env-binding idiom as the teacher's internal/config
// (LoadConfig), trimmed to what a workflow-execution CLI actually needs:
// how to reach Redis for --persist, and run defaults (sync or async runner,
// whether to serve metrics). Docker/Security sections are dropped entirely since
// this CLI runs no containers and serves no HTTP API (see SPEC_FULL.md §9).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Redis RedisConfig `mapstructure:"redis"`
	Run   RunConfig   `mapstructure:"run"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RunConfig struct {
	DefaultMode     string `mapstructure:"default_mode"`
	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
}

// Load reads sagaflowctl.yaml from the working directory or $HOME/.sagaflow,
// falling back to defaults, and applies AGENTAINER-style env overrides under
// the SAGAFLOW prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("sagaflowctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.sagaflow")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("run.default_mode", "sync")
	v.SetDefault("run.metrics_enabled", false)

	v.SetEnvPrefix("SAGAFLOW")
	v.AutomaticEnv()
	v.BindEnv("redis.host", "SAGAFLOW_REDIS_HOST")
	v.BindEnv("redis.port", "SAGAFLOW_REDIS_PORT")
	v.BindEnv("run.default_mode", "SAGAFLOW_RUN_DEFAULT_MODE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("sagaflowctl: read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("sagaflowctl: unmarshal config: %w", err)
	}
	return cfg, nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
