package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"

	devJWTSecret = "restaurant_dev_secret_change_me"
)

// Config holds everything the API process needs at startup
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Database Database      `yaml:"database"`
	Auth     AuthConfig    `yaml:"auth"`
	Orders   OrdersConfig  `yaml:"orders"`
	AMQP     AMQPConfig    `yaml:"amqp"`
	Metrics  MetricsConfig `yaml:"metrics"`
	Log      LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	GinMode   string `yaml:"gin_mode"`
	Env       string `yaml:"env"`
	ClientURL string `yaml:"client_url"`
}

// Database selects and locates the order store
type Database struct {
	Driver   string `yaml:"driver"`
	URL      string `yaml:"url"`
	MongoURI string `yaml:"mongo_uri"`
	MongoDB  string `yaml:"mongo_db"`
}

type AuthConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	AllowRegistration bool          `yaml:"allow_registration"`
}

type OrdersConfig struct {
	// StrictTransitions rejects status jumps outside the state machine
	StrictTransitions bool `yaml:"strict_transitions"`
}

type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      "8080",
			GinMode:   "debug",
			Env:       "development",
			ClientURL: "*",
		},
		Database: Database{
			Driver:   DriverSQLite,
			URL:      "restaurant.db",
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "restaurant",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Orders:  OrdersConfig{StrictTransitions: true},
		AMQP:    AMQPConfig{Exchange: "orders_topic"},
		Metrics: MetricsConfig{Enabled: true},
		Log:     LogConfig{Level: "info", Format: "json"},
	}
}

// Load layers defaults, the optional YAML file at path, a .env file and the
// process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" && cfg.Server.GinMode != "release" {
		cfg.Auth.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.Server.Env, "APP_ENV")
	setString(&c.Server.ClientURL, "CLIENT_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.MongoURI, "MONGO_URI")
	setString(&c.Database.MongoDB, "MONGO_DB")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.AMQP.URL, "AMQP_URL")
	setString(&c.AMQP.Exchange, "AMQP_EXCHANGE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")

	if v := getEnv("JWT_TTL", ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}

	for key, dst := range map[string]*bool{
		"ALLOW_REGISTRATION": &c.Auth.AllowRegistration,
		"STRICT_TRANSITIONS": &c.Orders.StrictTransitions,
		"METRICS_ENABLED":    &c.Metrics.Enabled,
	} {
		if err := setBool(dst, key); err != nil {
			return err
		}
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database url is required for driver %q", c.Database.Driver)
		}
	case DriverMongo:
		if c.Database.MongoURI == "" || c.Database.MongoDB == "" {
			return errors.New("mongo uri and database name are required")
		}
	default:
		return fmt.Errorf("unknown database driver %q (want sqlite, postgres or mongo)", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in release mode")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Server.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Server.Port, ":")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	*dst = getEnv(key, *dst)
}

func setBool(dst *bool, key string) error {
	v := getEnv(key, "")
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
