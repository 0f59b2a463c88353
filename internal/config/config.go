package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MemoryDSN selects the in-process store instead of Postgres.
const MemoryDSN = "memory://"

var supportedAlgorithms = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Config is the process-wide configuration. It is built once at startup and
// handed to components by value; nothing mutates it afterwards.
type Config struct {
	Env         string
	Port        int
	DatabaseURL string
	CORSOrigins []string

	JWT      JWT
	Password Password
	Database Database
	Log      Log

	SnowflakeNode int64
}

// JWT holds token signing settings.
type JWT struct {
	Secret    string
	Algorithm string
	TTL       time.Duration
}

// Password holds credential hashing settings.
type Password struct {
	BcryptCost int
}

// Database holds session-level settings applied after connecting.
type Database struct {
	MaxConns       int
	Timeout        time.Duration
	TimeZone       string
	ClientEncoding string
}

// Log configures the zap logger.
type Log struct {
	Level      string
	Dev        bool
	File       string
	MaxAgeDays int
}

// IsDevelopment reports whether ENV is development.
func (c Config) IsDevelopment() bool { return strings.EqualFold(c.Env, "development") }

// IsProduction reports whether ENV is production.
func (c Config) IsProduction() bool { return strings.EqualFold(c.Env, "production") }

// UsesMemoryStore reports whether the in-memory store was requested.
func (c Config) UsesMemoryStore() bool { return c.DatabaseURL == MemoryDSN }

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string { return fmt.Sprintf("0.0.0.0:%d", c.Port) }

// FromEnv loads configuration from the process environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from the given lookup function. A missing secret or
// database url and any malformed value are reported as errors so the caller
// can refuse to start.
func Load(getenv func(string) string) (Config, error) {
	var errs []error
	str := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	num := func(key string, def int) int {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not an integer", key, raw))
			return def
		}
		return n
	}

	cfg := Config{
		Env:         strings.ToLower(str("ENV", "development")),
		Port:        num("PORT", 8000),
		DatabaseURL: getenv("DATABASE_URL"),
		JWT: JWT{
			Secret:    getenv("JWT_SECRET"),
			Algorithm: strings.ToUpper(str("JWT_ALGORITHM", "HS256")),
		},
		Password: Password{BcryptCost: num("BCRYPT_COST", 12)},
		Database: Database{
			MaxConns:       num("DATABASE_MAX_CONNS", 5),
			Timeout:        5 * time.Second,
			TimeZone:       getenv("DATABASE_TIMEZONE"),
			ClientEncoding: getenv("DATABASE_CLIENT_ENCODING"),
		},
		SnowflakeNode: int64(num("SNOWFLAKE_NODE", 1)),
	}

	minutes := num("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if minutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", minutes))
	}
	cfg.JWT.TTL = time.Duration(minutes) * time.Minute

	dev := getenv("LOG_DEV") == "1"
	lvl := str("LOG_LEVEL", "")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	cfg.Log = Log{Level: lvl, Dev: dev, File: getenv("LOG_FILE"), MaxAgeDays: num("LOG_MAX_AGE_DAYS", 7)}

	if origins := str("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	} else if cfg.IsDevelopment() {
		cfg.CORSOrigins = []string{"*"}
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if !supportedAlgorithms[cfg.JWT.Algorithm] {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported (HS256, HS384, HS512)", cfg.JWT.Algorithm))
	}
	if cfg.Password.BcryptCost < 4 || cfg.Password.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.Password.BcryptCost))
	}
	if cfg.SnowflakeNode < 0 || cfg.SnowflakeNode > 1023 {
		errs = append(errs, fmt.Errorf("SNOWFLAKE_NODE must be between 0 and 1023, got %d", cfg.SnowflakeNode))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", cfg.Port))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}
