package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/authgate/internal/hash"
	"github.com/Skotchmaster/authgate/internal/search"
	"github.com/Skotchmaster/authgate/internal/tokens"
)

// Upper bounds for the hasher cost; every hash allocates MemoryKiB.
const (
	MaxArgon2MemoryKiB  = 4 * 1024 * 1024
	MaxArgon2Iterations = 100
)

type Config struct {
	ServiceName string
	HTTPAddr    string
	LogLevel    string

	DatabaseURL string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	Argon2 hash.Params

	KafkaBrokers []string
	KafkaTopic   string

	Search search.Config
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv_unreadable", "error", err)
	}

	defaults := hash.DefaultParams()
	memory, memErr := EnvIntRange("ARGON2_MEMORY_KIB", int(defaults.MemoryKiB), 1, MaxArgon2MemoryKiB)
	iterations, iterErr := EnvIntRange("ARGON2_ITERATIONS", int(defaults.Iterations), 1, MaxArgon2Iterations)
	parallelism, parErr := EnvIntRange("ARGON2_PARALLELISM", int(defaults.Parallelism), 1, math.MaxUint8)

	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "authgate"),
		HTTPAddr:    EnvDefault("HTTP_ADDR", ":3000"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_ACCESS_TOKEN_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_TOKEN_SECRET")),
		AccessTTL:        EnvDurationDefault("JWT_ACCESS_TTL", tokens.DefaultAccessTTL),
		RefreshTTL:       EnvDurationDefault("JWT_REFRESH_TTL", tokens.DefaultRefreshTTL),

		Argon2: hash.Params{
			MemoryKiB:   uint32(memory),
			Iterations:  uint32(iterations),
			Parallelism: uint8(parallelism),
		},

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_TOPIC", "user_events"),

		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    EnvDefault("ES_INDEX", "users"),
		},
	}

	if err := errors.Join(memErr, iterErr, parErr, cfg.validate()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, missing("DATABASE_URL"))
	}
	if len(c.JWTAccessSecret) == 0 {
		errs = append(errs, missing("JWT_ACCESS_TOKEN_SECRET"))
	}
	if len(c.JWTRefreshSecret) == 0 {
		errs = append(errs, missing("JWT_REFRESH_TOKEN_SECRET"))
	}
	if len(c.JWTAccessSecret) > 0 && string(c.JWTAccessSecret) == string(c.JWTRefreshSecret) {
		errs = append(errs, errors.New("JWT_ACCESS_TOKEN_SECRET and JWT_REFRESH_TOKEN_SECRET must differ"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	return errors.Join(errs...)
}

func missing(env string) error {
	return fmt.Errorf("missing required env %s", env)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// EnvIntRange returns def when key is unset, and an error when the value is
// not an integer within [min, max].
func EnvIntRange(key string, def, min, max int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, fmt.Errorf("%s: %q is not an integer", key, v)
	}
	if n < min || n > max {
		return def, fmt.Errorf("%s: %d is outside %d..%d", key, n, min, max)
	}
	return n, nil
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
