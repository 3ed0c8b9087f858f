package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klass-lk/postboard"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP server
	Port        int           `yaml:"port"`
	BasePath    string        `yaml:"basePath"`
	Runtime     string        `yaml:"runtime"`     // "http" or "lambda"
	CORSOrigins []string      `yaml:"corsOrigins"` // empty allows all origins
	CacheTTL    time.Duration `yaml:"cacheTTL"`    // 0 disables the list cache
	LogLevel    string        `yaml:"logLevel"`

	Store StoreConfig `yaml:"store"`
}

type StoreConfig struct {
	Backend  string                    `yaml:"backend"` // memory, sql, mongo, dynamodb
	SQL      *postboard.SQLConfig      `yaml:"sql"`
	Mongo    *postboard.MongoConfig    `yaml:"mongo"`
	DynamoDB *postboard.DynamoDBConfig `yaml:"dynamodb"`
}

func Default() Config {
	return Config{
		Port:     8080,
		BasePath: "/api/v1",
		Runtime:  string(postboard.RuntimeHTTP),
		CacheTTL: time.Minute,
		LogLevel: "info",
		Store: StoreConfig{
			Backend:  "memory",
			SQL:      postboard.NewSQLConfig().WithDatabase("postboard"),
			Mongo:    postboard.NewMongoConfig(),
			DynamoDB: postboard.NewDynamoDBConfig(),
		},
	}
}

// Load starts from Default, applies the YAML file named by POSTBOARD_CONFIG if
// set, then environment variables.
func Load() (Config, error) {
	c := Default()
	if path := os.Getenv("POSTBOARD_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&c)
	return c, nil
}

// FromEnv is Default overlaid with environment variables only.
func FromEnv() Config {
	c := Default()
	applyEnv(&c)
	return c
}

func applyEnv(c *Config) {
	c.Port = getenvi("POSTBOARD_PORT", c.Port)
	c.BasePath = getenv("POSTBOARD_BASE_PATH", c.BasePath)
	c.Runtime = getenv("POSTBOARD_RUNTIME", c.Runtime)
	if os.Getenv("LAMBDA_RUNTIME") == "true" {
		c.Runtime = string(postboard.RuntimeLambda)
	}
	if v := os.Getenv("POSTBOARD_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	c.CacheTTL = getenvd("POSTBOARD_CACHE_TTL", c.CacheTTL)
	c.LogLevel = getenv("POSTBOARD_LOG_LEVEL", c.LogLevel)

	c.Store.Backend = getenv("POSTBOARD_STORE", c.Store.Backend)

	sql := c.Store.SQL
	sql.WithDriver(getenv("SQL_DRIVER", sql.Driver)).
		WithHost(getenv("SQL_HOST", sql.Host), getenvi("SQL_PORT", sql.Port)).
		WithCredentials(getenv("SQL_USER", sql.Username), getenv("SQL_PASSWORD", sql.Password)).
		WithDatabase(getenv("SQL_DATABASE", sql.Database))
	if sql.Options == nil {
		sql.Options = make(map[string]string)
	}
	if v := os.Getenv("SQL_SSLMODE"); v != "" {
		sql.WithOption("sslmode", v)
	}

	mongo := c.Store.Mongo
	mongo.WithURI(getenv("MONGO_URI", mongo.URI)).
		WithHost(getenv("MONGO_HOST", mongo.Host), getenvi("MONGO_PORT", mongo.Port)).
		WithCredentials(getenv("MONGO_USER", mongo.Username), getenv("MONGO_PASSWORD", mongo.Password)).
		WithDatabase(getenv("MONGO_DATABASE", mongo.Database))
	if mongo.Options == nil {
		mongo.Options = make(map[string]string)
	}

	dynamo := c.Store.DynamoDB
	dynamo.WithTableName(getenv("DYNAMODB_TABLE", dynamo.TableName)).
		WithRegion(getenv("DYNAMODB_REGION", dynamo.Region)).
		WithEndpoint(getenv("DYNAMODB_ENDPOINT", dynamo.Endpoint)).
		WithSkipTableCreation(getenvb("DYNAMODB_SKIP_TABLE_CREATION", dynamo.SkipTableCreation))
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if iv, err := strconv.Atoi(v); err == nil {
			return iv
		}
		slog.Warn("ignoring invalid integer", "key", k, "value", v)
	}
	return def
}

func getenvb(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("ignoring invalid boolean", "key", k, "value", v)
	}
	return def
}

func getenvd(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("ignoring invalid duration", "key", k, "value", v)
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
