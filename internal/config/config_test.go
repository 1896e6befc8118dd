package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "access")
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", "refresh")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"SERVICE_NAME", "HTTP_ADDR", "LOG_LEVEL", "JWT_ACCESS_TTL", "JWT_REFRESH_TTL",
		"ARGON2_MEMORY_KIB", "ARGON2_ITERATIONS", "ARGON2_PARALLELISM", "KAFKA_BROKERS", "KAFKA_TOPIC",
		"ES_URL", "ES_USER", "ES_PASSWORD", "ES_INDEX"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "authgate", cfg.ServiceName)
	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, uint32(65536), cfg.Argon2.MemoryKiB)
	assert.Equal(t, uint32(3), cfg.Argon2.Iterations)
	assert.Equal(t, uint8(2), cfg.Argon2.Parallelism)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, "user_events", cfg.KafkaTopic)
	assert.Empty(t, cfg.Search.URL)
	assert.Equal(t, "users", cfg.Search.Index)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_ADDR", ":8080")
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ES_URL", "http://es:9200")
	t.Setenv("ARGON2_ITERATIONS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "http://es:9200", cfg.Search.URL)
	assert.Equal(t, uint32(4), cfg.Argon2.Iterations)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_ACCESS_TOKEN_SECRET", "")
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_ACCESS_TOKEN_SECRET")
	assert.Contains(t, err.Error(), "JWT_REFRESH_TOKEN_SECRET")
}

func TestLoad_IdenticalSecrets(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_REFRESH_TOKEN_SECRET", "access")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "soon")
	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
	assert.Equal(t, time.Second, EnvDurationDefault("X_DUR", time.Second))
	assert.Equal(t, "d", EnvDefault("X_UNSET_FOR_TEST", "d"))
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a ,,b "))
}

func TestLoad_Argon2Bounds(t *testing.T) {
	cases := map[string]struct {
		key, value string
	}{
		"negative memory":      {"ARGON2_MEMORY_KIB", "-1"},
		"zero memory":          {"ARGON2_MEMORY_KIB", "0"},
		"huge memory":          {"ARGON2_MEMORY_KIB", "4294967295"},
		"negative iterations":  {"ARGON2_ITERATIONS", "-3"},
		"too many iterations":  {"ARGON2_ITERATIONS", "1000"},
		"parallelism overflow": {"ARGON2_PARALLELISM", "300"},
		"zero parallelism":     {"ARGON2_PARALLELISM", "0"},
		"not a number":         {"ARGON2_MEMORY_KIB", "64MiB"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("ARGON2_MEMORY_KIB", "")
			t.Setenv("ARGON2_ITERATIONS", "")
			t.Setenv("ARGON2_PARALLELISM", "")
			t.Setenv(tc.key, tc.value)

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoad_Argon2UpperBoundsAccepted(t *testing.T) {
	setRequired(t)
	t.Setenv("ARGON2_MEMORY_KIB", "4194304")
	t.Setenv("ARGON2_ITERATIONS", "100")
	t.Setenv("ARGON2_PARALLELISM", "255")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(MaxArgon2MemoryKiB), cfg.Argon2.MemoryKiB)
	assert.Equal(t, uint32(MaxArgon2Iterations), cfg.Argon2.Iterations)
	assert.Equal(t, uint8(255), cfg.Argon2.Parallelism)
}

func TestEnvIntRange(t *testing.T) {
	t.Setenv("X_RANGE", "")
	n, err := EnvIntRange("X_RANGE", 5, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	t.Setenv("X_RANGE", "10")
	n, err = EnvIntRange("X_RANGE", 5, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	t.Setenv("X_RANGE", "11")
	_, err = EnvIntRange("X_RANGE", 5, 1, 10)
	assert.ErrorContains(t, err, "outside 1..10")
}
