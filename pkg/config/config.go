package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Query     QueryConfig
	RateLimit RateLimitConfig
	Security  SecurityConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

type StorageConfig struct {
	// Driver selects the store backend: "mongo" or "memory".
	Driver      string
	FixturePath string
}

type MongoConfig struct {
	URI                string
	Database           string
	EpisodesCollection string
	FactsCollection    string
	ConnectTimeoutSec  int
	ConnectAttempts    int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type QueryConfig struct {
	DefaultLimit    int64
	MaxLimit        int64
	MaxSearchLength int
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

type SecurityConfig struct {
	AllowedOrigins []string
	Development    bool
}

type MetricsConfig struct {
	Enabled bool
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	return LoadFrom(viper.New(), ".", "./config", "/etc/podfacts")
}

// LoadFrom reads config.yaml from the first matching path, overlays
// PODFACTS_* environment variables and fills defaults.
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("PODFACTS")
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

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query.defaultLimit must be positive and not above query.maxLimit")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.bodyLimit", 4194304)

	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("storage.fixturePath", "./config/fixtures/catalog.yaml")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "podcasts")
	v.SetDefault("mongo.episodesCollection", "firehose_episodes")
	v.SetDefault("mongo.factsCollection", "surprise_facts")
	v.SetDefault("mongo.connectTimeoutSec", 10)
	v.SetDefault("mongo.connectAttempts", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("query.defaultLimit", 10)
	v.SetDefault("query.maxLimit", 100)
	v.SetDefault("query.maxSearchLength", 200)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)

	v.SetDefault("security.allowedOrigins", []string{"*"})
	v.SetDefault("security.development", false)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
