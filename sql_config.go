package postboard

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

type SQLConfig struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Password string
	// Database is the database name, or the file path for sqlite3.
	Database string
	Options  map[string]string
}

func NewSQLConfig() *SQLConfig {
	return &SQLConfig{
		Driver:  DriverPostgres,
		Host:    "localhost",
		Port:    5432,
		Options: make(map[string]string),
	}
}

func (c *SQLConfig) WithDriver(driver string) *SQLConfig {
	c.Driver = driver
	return c
}

func (c *SQLConfig) WithCredentials(username, password string) *SQLConfig {
	c.Username = username
	c.Password = password
	return c
}

func (c *SQLConfig) WithHost(host string, port int) *SQLConfig {
	c.Host = host
	c.Port = port
	return c
}

func (c *SQLConfig) WithDatabase(database string) *SQLConfig {
	c.Database = database
	return c
}

func (c *SQLConfig) WithOption(key, value string) *SQLConfig {
	c.Options[key] = value
	return c
}

func (c *SQLConfig) BuildDSN() string {
	switch c.Driver {
	case DriverPostgres, DriverPgx:
		opts := map[string]string{"sslmode": "disable"}
		for k, v := range c.Options {
			opts[k] = v
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database)
		for _, k := range sortedKeys(opts) {
			dsn += fmt.Sprintf(" %s=%s", k, opts[k])
		}
		return dsn
	case DriverSQLite:
		if len(c.Options) == 0 {
			return c.Database
		}
		params := make([]string, 0, len(c.Options))
		for _, k := range sortedKeys(c.Options) {
			params = append(params, k+"="+c.Options[k])
		}
		return c.Database + "?" + strings.Join(params, "&")
	default:
		return ""
	}
}

func (c *SQLConfig) Connect(ctx context.Context) (*sql.DB, error) {
	dsn := c.BuildDSN()
	if dsn == "" {
		return nil, fmt.Errorf("unsupported sql driver %q", c.Driver)
	}
	db, err := sql.Open(c.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if c.Driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
