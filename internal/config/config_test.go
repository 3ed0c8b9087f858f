package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klass-lk/postboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, "/api/v1", c.BasePath)
	assert.Equal(t, "http", c.Runtime)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.Equal(t, "memory", c.Store.Backend)
	assert.Equal(t, postboard.DriverPostgres, c.Store.SQL.Driver)
	assert.Equal(t, "postboard", c.Store.SQL.Database)
	assert.Equal(t, "postboard", c.Store.DynamoDB.TableName)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("POSTBOARD_PORT", "9090")
	t.Setenv("POSTBOARD_BASE_PATH", "/board")
	t.Setenv("POSTBOARD_CORS_ORIGINS", "http://a.example, http://b.example,")
	t.Setenv("POSTBOARD_CACHE_TTL", "0s")
	t.Setenv("POSTBOARD_LOG_LEVEL", "debug")
	t.Setenv("POSTBOARD_STORE", "sql")
	t.Setenv("SQL_DRIVER", "pgx")
	t.Setenv("SQL_HOST", "db")
	t.Setenv("SQL_PORT", "6543")
	t.Setenv("SQL_SSLMODE", "require")
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("DYNAMODB_TABLE", "board")
	t.Setenv("DYNAMODB_SKIP_TABLE_CREATION", "true")
	t.Setenv("LAMBDA_RUNTIME", "true")

	c := FromEnv()

	assert.Equal(t, 9090, c.Port)
	assert.Equal(t, "/board", c.BasePath)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, c.CORSOrigins)
	assert.Equal(t, time.Duration(0), c.CacheTTL)
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
	assert.Equal(t, "lambda", c.Runtime)
	assert.Equal(t, "sql", c.Store.Backend)
	assert.Equal(t, "pgx", c.Store.SQL.Driver)
	assert.Equal(t, "db", c.Store.SQL.Host)
	assert.Equal(t, 6543, c.Store.SQL.Port)
	assert.Equal(t, "require", c.Store.SQL.Options["sslmode"])
	assert.Equal(t, "mongodb://mongo:27017", c.Store.Mongo.BuildURI())
	assert.Equal(t, "board", c.Store.DynamoDB.TableName)
	assert.True(t, c.Store.DynamoDB.SkipTableCreation)
}

func TestFromEnv_InvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("POSTBOARD_PORT", "eighty")
	t.Setenv("POSTBOARD_CACHE_TTL", "soon")
	t.Setenv("DYNAMODB_SKIP_TABLE_CREATION", "maybe")

	c := FromEnv()

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, time.Minute, c.CacheTTL)
	assert.False(t, c.Store.DynamoDB.SkipTableCreation)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
basePath: /v2
cacheTTL: 30s
logLevel: warn
store:
  backend: sql
  sql:
    driver: sqlite3
    database: /tmp/posts.db
`), 0o600))
	t.Setenv("POSTBOARD_CONFIG", path)
	t.Setenv("POSTBOARD_PORT", "7001")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7001, c.Port, "env wins over file")
	assert.Equal(t, "/v2", c.BasePath)
	assert.Equal(t, 30*time.Second, c.CacheTTL)
	assert.Equal(t, slog.LevelWarn, c.SlogLevel())
	assert.Equal(t, "sql", c.Store.Backend)
	assert.Equal(t, postboard.DriverSQLite, c.Store.SQL.Driver)
	assert.Equal(t, "/tmp/posts.db", c.Store.SQL.BuildDSN())
	assert.Equal(t, "postboard", c.Store.DynamoDB.TableName, "untouched sections keep defaults")
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("POSTBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.ErrorContains(t, err, "read config")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1"), 0o600))
	t.Setenv("POSTBOARD_CONFIG", bad)
	_, err = Load()
	assert.ErrorContains(t, err, "parse config")
}

func TestSlogLevel_Unknown(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Config{LogLevel: "chatty"}.SlogLevel())
}
