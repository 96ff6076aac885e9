// Package config reads the server settings from the environment.
package config

import (
	errs "errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// MinSecretLength matches what auth.NewTokenService accepts.
const MinSecretLength = 16

type Config struct {
	Port      int
	LogLevel  string // debug, info, warn or error
	LogFormat string // text or json

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret        string
	TokenExpiry      time.Duration
	TokenEmbedExpiry bool

	APIKey     string
	APIKeyName string

	BcryptCost int
}

// Load reads an optional .env file from the working directory, then builds
// the Config from the process environment. Variables already set in the
// environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errs.Is(err, fs.ErrNotExist) {
		return Config{}, errors.Wrap(err, "loading .env")
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup. Every problem found is reported,
// joined into one error.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	var retErr error
	atoi := func(key, fallback string) int {
		n, err := strconv.Atoi(get(key, fallback))
		if err != nil {
			retErr = errs.Join(retErr, errors.Wrapf(err, "parsing %s", key))
		}
		return n
	}

	cfg := Config{
		LogLevel:    strings.ToLower(get("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "text")),
		DBDriver:    strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		DBPath:      get("DB_PATH", "data/notes.db"),
		DatabaseURL: get("DATABASE_URL", ""),
		APIKey:      get("API_KEY", ""),
		APIKeyName:  get("API_KEY_NAME", "api_key"),
	}

	cfg.Port = atoi("PORT", "8080")
	if cfg.Port < 1 || cfg.Port > 65535 {
		retErr = errs.Join(retErr, errors.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		retErr = errs.Join(retErr, errors.Errorf("unknown LOG_LEVEL %q", cfg.LogLevel))
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		retErr = errs.Join(retErr, errors.Errorf("unknown LOG_FORMAT %q", cfg.LogFormat))
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverMySQL, DriverPostgres:
		if cfg.DatabaseURL == "" {
			retErr = errs.Join(retErr, errors.Errorf("DATABASE_URL is required when DB_DRIVER=%s", cfg.DBDriver))
		}
	default:
		retErr = errs.Join(retErr, errors.Errorf("unknown DB_DRIVER %q", cfg.DBDriver))
	}

	// The secret is not trimmed: leading or trailing spaces may be part of it.
	if secret, ok := lookup("JWT_SECRET"); !ok || secret == "" {
		retErr = errs.Join(retErr, errors.New("you must define env JWT_SECRET"))
	} else if len(secret) < MinSecretLength {
		retErr = errs.Join(retErr, errors.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength))
	} else {
		cfg.JWTSecret = secret
	}

	minutes := atoi("TOKEN_EXPIRE_MINUTES", "30")
	if minutes <= 0 {
		retErr = errs.Join(retErr, errors.New("TOKEN_EXPIRE_MINUTES must be positive"))
	}
	cfg.TokenExpiry = time.Duration(minutes) * time.Minute

	embed, err := strconv.ParseBool(get("TOKEN_EMBED_EXPIRY", "false"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing TOKEN_EMBED_EXPIRY"))
	}
	cfg.TokenEmbedExpiry = embed

	cfg.BcryptCost = atoi("BCRYPT_COST", "12")
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		retErr = errs.Join(retErr, errors.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost))
	}

	return cfg, retErr
}
