package config

import (
	"errors"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "WORKLINK"
	configFileName = "worklink"
)

// Config is the root configuration of the link service.
type Config struct {
	Env      string         `mapstructure:"env"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Links    LinksConfig    `mapstructure:"links"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres or sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// BlockedStatusTTL bounds how stale a cached blocked status may get when a
	// blocker changes state outside this service.
	BlockedStatusTTL time.Duration `mapstructure:"blocked_status_ttl"`
}

type ServerConfig struct {
	HTTPPort        string        `mapstructure:"http_port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	// Insecure accepts any bearer token and uses it as the user id.
	Insecure bool `mapstructure:"insecure"`
	// Tokens maps static access tokens to user ids.
	Tokens map[string]string `mapstructure:"tokens"`
}

type JobsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// SweepSchedule is the cron spec of the dangling link sweeper.
	SweepSchedule  string `mapstructure:"sweep_schedule"`
	SweepBatchSize int    `mapstructure:"sweep_batch_size"`
}

type LinksConfig struct {
	// CycleCheckMaxDepth limits the blocking cycle search, 0 means unlimited.
	CycleCheckMaxDepth int `mapstructure:"cycle_check_max_depth"`
	// BulkOnDuplicate is reject or skip.
	BulkOnDuplicate string `mapstructure:"bulk_on_duplicate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".tmp/db/worklink.db")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.blocked_status_ttl", 30*time.Second)
	v.SetDefault("server.http_port", "4021")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("auth.insecure", false)
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.sweep_schedule", "@every 10m")
	v.SetDefault("jobs.sweep_batch_size", 500)
	v.SetDefault("links.cycle_check_max_depth", 0)
	v.SetDefault("links.bulk_on_duplicate", "skip")
}

// LoadConfig reads worklink.yml (if present) and WORKLINK_* environment variables.
// A .env file in the working directory is loaded on import.
func LoadConfig() *Config {
	cfg, err := LoadConfigFrom("")
	if err != nil {
		logrus.Fatalf("error loading config: %v", err)
	}

	return cfg
}

// LoadConfigFrom reads the config from the given file, or searches the default
// locations when path is empty.
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./.tmp")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var (
	ErrUnknownDatabaseDriver  = errors.New("unknown database driver, expected postgres or sqlite")
	ErrMissingDatabaseDSN     = errors.New("missing database dsn")
	ErrMissingHTTPPort        = errors.New("missing server http port")
	ErrInvalidDuplicatePolicy = errors.New("invalid links.bulk_on_duplicate, expected reject or skip")
	ErrInvalidCycleCheckDepth = errors.New("links.cycle_check_max_depth must not be negative")
)

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return ErrUnknownDatabaseDriver
	}

	if c.Database.DSN == "" {
		return ErrMissingDatabaseDSN
	}

	if c.Server.HTTPPort == "" {
		return ErrMissingHTTPPort
	}

	switch c.Links.BulkOnDuplicate {
	case "", "reject", "skip":
	default:
		return ErrInvalidDuplicatePolicy
	}

	if c.Links.CycleCheckMaxDepth < 0 {
		return ErrInvalidCycleCheckDepth
	}

	return nil
}

// IsTest reports whether the service runs under the test environment.
func (c *Config) IsTest() bool {
	return c.Env == "test"
}

// ConfigureLogger applies the log settings to the standard logrus logger.
func ConfigureLogger(cfg LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warnf("invalid log level %q, using info", cfg.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
