package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"go-messenger/internal/security"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	SessionStore string
	RedisAddr    string

	// AuthSecret signs new tokens; PreviousSecrets are still accepted for
	// verification so a rotation does not log everyone out at once.
	AuthSecret      string
	PreviousSecrets []string

	SessionDuration time.Duration
	ScryptN         int

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getInt("DB_MIN_CONNS", 2)),
		SessionStore:       strings.ToLower(getEnv("SESSION_STORE", StorePostgres)),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		AuthSecret:         strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		PreviousSecrets:    splitCSV(strings.TrimSpace(os.Getenv("AUTH_PREVIOUS_SECRETS"))),
		SessionDuration:    getDuration("SESSION_DURATION", 3600*time.Second),
		ScryptN:            getInt("SCRYPT_N", security.DefaultScryptN),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:   getInt("AUTH_RATE_LIMIT_RPM", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthSecret) == "" {
		return fmt.Errorf("AUTH_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	switch c.SessionStore {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be one of memory, postgres, redis")
	}

	if c.SessionStore != StoreMemory && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required unless SESSION_STORE is memory")
	}

	if c.SessionDuration <= 0 {
		return fmt.Errorf("SESSION_DURATION must be positive")
	}

	if c.ScryptN < 2 || c.ScryptN&(c.ScryptN-1) != 0 {
		return fmt.Errorf("SCRYPT_N must be a power of two greater than 1")
	}

	return nil
}

// SigningKeys returns the key ring, newest first.
func (c *Config) SigningKeys() [][]byte {
	keys := make([][]byte, 0, 1+len(c.PreviousSecrets))
	keys = append(keys, []byte(c.AuthSecret))
	for _, s := range c.PreviousSecrets {
		keys = append(keys, []byte(s))
	}
	return keys
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
