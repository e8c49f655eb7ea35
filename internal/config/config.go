package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Error is a fatal configuration problem. The process must not start
// serving with one of these.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

func NewError(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

type Config struct {
	Environment string
	LogLevel    zerolog.Level
	ListenAddr  string

	// Gate site. The threshold is the gate open height in metres above
	// chart datum; the gate is lowered when the tide rises through it.
	Latitude       float64
	Longitude      float64
	Timezone       string
	GateOpenHeight float64

	// Upstream providers.
	WorldTidesKey      string
	OpenWeatherKey     string
	HTTPTimeout        time.Duration
	MaxRetries         int
	WorldTidesBaseURL  string
	OpenWeatherBaseURL string
	SunriseBaseURL     string
	MoonBaseURL        string
	MarineBaseURL      string

	// Dataset freshness. Two classes: the 12-hour datasets and the
	// half-hour heights feed, which covers six months per fetch and only
	// needs reloading weekly.
	TideTTL    time.Duration
	WeatherTTL time.Duration
	HeightsTTL time.Duration

	ExtremesDays int
	HeightsDays  int

	// Keyed caches for the parameterised feeds.
	KeyedCacheSize int
	KeyedCacheTTL  time.Duration

	// Boundary auth. Either an API key or basic credentials; with neither
	// configured the check is disabled.
	APIKey        string
	BasicAuthUser string
	BasicAuthPass string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the upstream fetch timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithGateOpenHeight allows setting the gate threshold height
func WithGateOpenHeight(height float64) Option {
	return func(c *Config) {
		c.GateOpenHeight = height
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment: "production",
		LogLevel:    zerolog.InfoLevel,
		ListenAddr:  ":8000",

		Latitude:       53.28,
		Longitude:      -3.83,
		Timezone:       "Europe/London",
		GateOpenHeight: 4.0,

		HTTPTimeout:        10 * time.Second,
		MaxRetries:         3,
		WorldTidesBaseURL:  "https://www.worldtides.info/api",
		OpenWeatherBaseURL: "https://api.openweathermap.org",
		SunriseBaseURL:     "https://api.sunrise-sunset.org",
		MoonBaseURL:        "https://api.farmsense.net",
		MarineBaseURL:      "https://api.open-meteo.com",

		TideTTL:    12 * time.Hour,
		WeatherTTL: 12 * time.Hour,
		HeightsTTL: 7 * 24 * time.Hour,

		ExtremesDays: 365,
		HeightsDays:  180,

		KeyedCacheSize: 256,
		KeyedCacheTTL:  24 * time.Hour,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate reports the first fatal configuration problem, or nil.
func (c *Config) Validate() error {
	if c.GateOpenHeight <= 0 || math.IsNaN(c.GateOpenHeight) || math.IsInf(c.GateOpenHeight, 0) {
		return NewError("GATE_OPEN_HEIGHT", fmt.Sprintf("must be a positive height in metres, got %v", c.GateOpenHeight))
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return NewError("SITE_LAT", fmt.Sprintf("latitude out of range: %v", c.Latitude))
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return NewError("SITE_LON", fmt.Sprintf("longitude out of range: %v", c.Longitude))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return NewError("SITE_TIMEZONE", fmt.Sprintf("unknown timezone %q", c.Timezone))
	}
	for field, ttl := range map[string]time.Duration{
		"TIDE_TTL":    c.TideTTL,
		"WEATHER_TTL": c.WeatherTTL,
		"HEIGHTS_TTL": c.HeightsTTL,
	} {
		if ttl <= 0 {
			return NewError(field, fmt.Sprintf("TTL must be positive, got %v", ttl))
		}
	}
	if c.ExtremesDays <= 0 || c.HeightsDays <= 0 {
		return NewError("FORECAST_DAYS", "forecast day counts must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return NewError("HTTP_TIMEOUT", "upstream fetch timeout must be positive")
	}
	if c.WorldTidesKey == "" {
		return NewError("WORLDTIDES_KEY", "missing WorldTides API key")
	}
	return nil
}

// Location resolves the configured civil timezone. Validate must have
// passed first.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthEnabled reports whether the boundary auth check is active.
func (c *Config) AuthEnabled() bool {
	return c.APIKey != "" || (c.BasicAuthUser != "" && c.BasicAuthPass != "")
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithGateOpenHeight(getFloatEnvOrDefault("GATE_OPEN_HEIGHT", 4.0)),
	)

	cfg.ListenAddr = getEnvOrDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.Latitude = getFloatEnvOrDefault("SITE_LAT", cfg.Latitude)
	cfg.Longitude = getFloatEnvOrDefault("SITE_LON", cfg.Longitude)
	cfg.Timezone = getEnvOrDefault("SITE_TIMEZONE", cfg.Timezone)

	cfg.WorldTidesKey = os.Getenv("WORLDTIDES_KEY")
	cfg.OpenWeatherKey = os.Getenv("OPENWEATHER_KEY")
	cfg.WorldTidesBaseURL = getEnvOrDefault("WORLDTIDES_BASE_URL", cfg.WorldTidesBaseURL)
	cfg.OpenWeatherBaseURL = getEnvOrDefault("OPENWEATHER_BASE_URL", cfg.OpenWeatherBaseURL)
	cfg.SunriseBaseURL = getEnvOrDefault("SUNRISE_BASE_URL", cfg.SunriseBaseURL)
	cfg.MoonBaseURL = getEnvOrDefault("MOON_BASE_URL", cfg.MoonBaseURL)
	cfg.MarineBaseURL = getEnvOrDefault("MARINE_BASE_URL", cfg.MarineBaseURL)

	cfg.TideTTL = getDurationEnvOrDefault("TIDE_TTL", cfg.TideTTL)
	cfg.WeatherTTL = getDurationEnvOrDefault("WEATHER_TTL", cfg.WeatherTTL)
	cfg.HeightsTTL = getDurationEnvOrDefault("HEIGHTS_TTL", cfg.HeightsTTL)
	cfg.ExtremesDays = getIntEnvOrDefault("EXTREMES_DAYS", cfg.ExtremesDays)
	cfg.HeightsDays = getIntEnvOrDefault("HEIGHTS_DAYS", cfg.HeightsDays)
	cfg.KeyedCacheSize = getIntEnvOrDefault("KEYED_CACHE_SIZE", cfg.KeyedCacheSize)
	cfg.KeyedCacheTTL = getDurationEnvOrDefault("KEYED_CACHE_TTL", cfg.KeyedCacheTTL)

	cfg.APIKey = os.Getenv("MCP_API_KEY")
	cfg.BasicAuthUser = os.Getenv("BASIC_AUTH_USER")
	cfg.BasicAuthPass = os.Getenv("BASIC_AUTH_PASS")

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Warn().Str("key", key).Msg("Invalid duration value in environment variable, using default")
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultValue
}
