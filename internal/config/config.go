package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Review    ReviewConfig    `mapstructure:"review"    validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication settings. Tokens are issued elsewhere;
// the secret is only used to validate them.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// ReviewConfig contains queue-selection settings. The thin and conflict
// thresholds gate the advisory scores written by external collaborators.
type ReviewConfig struct {
	ThinThreshold     float64 `mapstructure:"thin_threshold"     validate:"gte=0,lte=1"`
	ConflictThreshold float64 `mapstructure:"conflict_threshold" validate:"gte=0,lte=1"`
	DefaultPageSize   int     `mapstructure:"default_page_size"  validate:"required,gt=0"`
	MaxPageSize       int     `mapstructure:"max_page_size"      validate:"required,gt=0"`
}

// SchedulerConfig overrides scheduling-algorithm constants. Every field is
// optional; zero values keep the algorithm defaults. Kept configurable so the
// constants can be calibrated against a reference implementation.
type SchedulerConfig struct {
	DesiredRetention       float64 `mapstructure:"desired_retention"        validate:"gte=0,lt=1"`
	MaxIntervalDays        int     `mapstructure:"max_interval_days"        validate:"gte=0"`
	GrowthRate             float64 `mapstructure:"growth_rate"              validate:"gte=0"`
	ForgetStabilityFactor  float64 `mapstructure:"forget_stability_factor"  validate:"gte=0,lte=1"`
	InitialStabilityGood   float64 `mapstructure:"initial_stability_good"   validate:"gte=0"`
	InitialStabilityAgain  float64 `mapstructure:"initial_stability_again"  validate:"gte=0"`
	RelearnStepMinutes     int     `mapstructure:"relearn_step_minutes"     validate:"gte=0"`
	LapseDifficultyPenalty float64 `mapstructure:"lapse_difficulty_penalty" validate:"gte=0"`
	RecallDifficultyBonus  float64 `mapstructure:"recall_difficulty_bonus"  validate:"gte=0"`
}
