package guide

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"

	"github.com/outpost-labs/basecamp"
	"github.com/outpost-labs/basecamp/logger"
	"github.com/outpost-labs/basecamp/postgres"
)

const (
	defaultPort        = "8080"
	defaultSessionName = "basecamp-session"
)

// A Config collects everything a Guide reads from the process environment.
type Config struct {
	Env     basecamp.Environment
	Port    string
	BaseURL *url.URL
	DB      *postgres.CxnConfig

	SessionName       string
	SessionAuthKey    string
	SessionEncryptKey string
	CSRFAuthKey       []byte
	TokenSigningKey   []byte

	SentryDSN     string
	RedisURI      string
	RedisPassword string

	MigrateOnBoot bool

	GoogleClientID     string
	GoogleClientSecret string

	LogLevel logger.LogLevel
}

// LoadConfig resolves a Config from the process environment.
//
// The server listens on PORT, defaulting to 8080, on all interfaces.
// Secrets have no defaults; a missing required key fails the boot rather
// than limping along half-configured.
func LoadConfig() (Config, error) {
	env := basecamp.EnvVarOrEnv("ENVIRONMENT", basecamp.Development)
	port := basecamp.EnvVarOrString("PORT", defaultPort)

	db, err := dbConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Env:     env,
		Port:    port,
		BaseURL: basecamp.EnvVarOrURL("BASE_URL", "http://localhost:"+port),
		DB:      db,

		SessionName:       basecamp.EnvVarOrString("SESSION_NAME", defaultSessionName),
		SessionAuthKey:    os.Getenv("SESSION_AUTH_KEY"),
		SessionEncryptKey: os.Getenv("SESSION_ENCRYPTION_KEY"),

		SentryDSN:     os.Getenv("SENTRY_DSN"),
		RedisURI:      os.Getenv("SESSION_REDIS_URI"),
		RedisPassword: os.Getenv("SESSION_REDIS_PASSWORD"),

		MigrateOnBoot: basecamp.EnvVarOrBool("MIGRATE_ON_BOOT", true),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		LogLevel: logger.NewLogLevel(os.Getenv("LOG_LEVEL")),
	}

	if cfg.SessionAuthKey == "" || cfg.SessionEncryptKey == "" {
		return Config{}, fmt.Errorf(`%w: SESSION_AUTH_KEY and SESSION_ENCRYPTION_KEY cannot be ""`, basecamp.ErrBadConfig)
	}

	cfg.CSRFAuthKey, err = hex.DecodeString(os.Getenv("CSRF_AUTH_KEY"))
	if err != nil || len(cfg.CSRFAuthKey) == 0 {
		return Config{}, fmt.Errorf("%w: CSRF_AUTH_KEY must be a nonempty hex-encoded key", basecamp.ErrBadConfig)
	}

	cfg.TokenSigningKey = []byte(os.Getenv("TOKEN_SIGNING_KEY"))
	if len(cfg.TokenSigningKey) == 0 {
		return Config{}, fmt.Errorf(`%w: TOKEN_SIGNING_KEY cannot be ""`, basecamp.ErrBadConfig)
	}

	if (cfg.GoogleClientID == "") != (cfg.GoogleClientSecret == "") {
		return Config{}, fmt.Errorf("%w: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set together", basecamp.ErrBadConfig)
	}

	return cfg, nil
}

// dbConfig resolves the database connection descriptor.
//
// DATABASE_URL_POSTGRESQL wins when present; otherwise the discrete
// DATABASE_* variables describe the connection. Neither being set is a
// configuration error.
func dbConfig() (*postgres.CxnConfig, error) {
	maxIdle := basecamp.EnvVarOrInt("DATABASE_MAX_IDLE_CONNECTIONS", 2)

	if raw := os.Getenv("DATABASE_URL_POSTGRESQL"); raw != "" {
		cfg, err := postgres.ParseDatabaseURL(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: DATABASE_URL_POSTGRESQL: %s", basecamp.ErrBadConfig, err)
		}

		cfg.MaxIdleCxns = maxIdle
		return cfg, nil
	}

	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		return nil, fmt.Errorf("%w: set DATABASE_URL_POSTGRESQL or the DATABASE_* variables", basecamp.ErrBadConfig)
	}

	return &postgres.CxnConfig{
		Host:        host,
		Port:        basecamp.EnvVarOrString("DATABASE_PORT", "5432"),
		Name:        os.Getenv("DATABASE_NAME"),
		User:        os.Getenv("DATABASE_USER"),
		Password:    os.Getenv("DATABASE_PASSWORD"),
		SSLMode:     os.Getenv("DATABASE_SSLMODE"),
		MaxIdleCxns: maxIdle,
	}, nil
}
