package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables (prefix CONCORD_) and
// an optional config.yaml in the working directory. Environment variables
// take precedence. Returns a validated Config or an error describing which
// field failed.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("CONCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("review.thin_threshold", 0.6)
	v.SetDefault("review.conflict_threshold", 0.7)
	v.SetDefault("review.default_page_size", 20)
	v.SetDefault("review.max_page_size", 100)

	// Empty defaults register the keys with viper so AutomaticEnv can fill
	// them from CONCORD_DATABASE_URL and friends; validation rejects the
	// empties that remain.
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("scheduler.desired_retention", 0.0)
	v.SetDefault("scheduler.max_interval_days", 0)
	v.SetDefault("scheduler.growth_rate", 0.0)
	v.SetDefault("scheduler.forget_stability_factor", 0.0)
	v.SetDefault("scheduler.initial_stability_good", 0.0)
	v.SetDefault("scheduler.initial_stability_again", 0.0)
	v.SetDefault("scheduler.relearn_step_minutes", 0)
	v.SetDefault("scheduler.lapse_difficulty_penalty", 0.0)
	v.SetDefault("scheduler.recall_difficulty_bonus", 0.0)
}
