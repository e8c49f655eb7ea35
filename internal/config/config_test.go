package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := New()
	cfg.WorldTidesKey = "test-key"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 4.0, cfg.GateOpenHeight)
	assert.Equal(t, 53.28, cfg.Latitude)
	assert.Equal(t, -3.83, cfg.Longitude)
	assert.Equal(t, "Europe/London", cfg.Timezone)
	assert.Equal(t, 12*time.Hour, cfg.TideTTL)
	assert.Equal(t, 12*time.Hour, cfg.WeatherTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.HeightsTTL)
	assert.Equal(t, 180, cfg.HeightsDays)
}

func TestOptions(t *testing.T) {
	cfg := New(
		WithEnvironment("development"),
		WithLogLevel("debug"),
		WithHTTPTimeout(30*time.Second),
		WithGateOpenHeight(3.6),
	)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3.6, cfg.GateOpenHeight)
}

func TestInvalidLogLevelFallsBack(t *testing.T) {
	cfg := New(WithLogLevel("not-a-level"))
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:      "zero threshold",
			mutate:    func(c *Config) { c.GateOpenHeight = 0 },
			wantField: "GATE_OPEN_HEIGHT",
		},
		{
			name:      "negative threshold",
			mutate:    func(c *Config) { c.GateOpenHeight = -2 },
			wantField: "GATE_OPEN_HEIGHT",
		},
		{
			name:      "latitude out of range",
			mutate:    func(c *Config) { c.Latitude = 91 },
			wantField: "SITE_LAT",
		},
		{
			name:      "bad timezone",
			mutate:    func(c *Config) { c.Timezone = "Atlantis/Nowhere" },
			wantField: "SITE_TIMEZONE",
		},
		{
			name:      "zero tide TTL",
			mutate:    func(c *Config) { c.TideTTL = 0 },
			wantField: "TIDE_TTL",
		},
		{
			name:      "negative heights TTL",
			mutate:    func(c *Config) { c.HeightsTTL = -time.Hour },
			wantField: "HEIGHTS_TTL",
		},
		{
			name:      "missing worldtides key",
			mutate:    func(c *Config) { c.WorldTidesKey = "" },
			wantField: "WORLDTIDES_KEY",
		},
		{
			name:      "zero fetch timeout",
			mutate:    func(c *Config) { c.HTTPTimeout = 0 },
			wantField: "HTTP_TIMEOUT",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ENV", "local")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("GATE_OPEN_HEIGHT", "3.8")
	t.Setenv("WORLDTIDES_KEY", "wt-key")
	t.Setenv("TIDE_TTL", "6h")
	t.Setenv("HEIGHTS_TTL", "96h")
	t.Setenv("MCP_API_KEY", "secret")

	cfg := LoadFromEnv()

	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, zerolog.WarnLevel, cfg.LogLevel)
	assert.Equal(t, 3.8, cfg.GateOpenHeight)
	assert.Equal(t, "wt-key", cfg.WorldTidesKey)
	assert.Equal(t, 6*time.Hour, cfg.TideTTL)
	assert.Equal(t, 96*time.Hour, cfg.HeightsTTL)
	assert.True(t, cfg.AuthEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("GATE_OPEN_HEIGHT", "not-a-number")
	t.Setenv("TIDE_TTL", "soon")

	cfg := LoadFromEnv()

	assert.Equal(t, 4.0, cfg.GateOpenHeight)
	assert.Equal(t, 12*time.Hour, cfg.TideTTL)
}

func TestAuthEnabled(t *testing.T) {
	cfg := New()
	assert.False(t, cfg.AuthEnabled())

	cfg.APIKey = "secret"
	assert.True(t, cfg.AuthEnabled())

	cfg.APIKey = ""
	cfg.BasicAuthUser = "harbour"
	assert.False(t, cfg.AuthEnabled(), "basic auth needs both user and password")

	cfg.BasicAuthPass = "master"
	assert.True(t, cfg.AuthEnabled())
}
