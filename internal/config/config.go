package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBackendURL    = "http://localhost:8000/api"
	defaultListenAddr    = ":5173"
	defaultCallbackAddr  = "127.0.0.1:5173"
	defaultSessionMaxAge = 30 * 24 * time.Hour
	defaultTimeout       = 15 * time.Second
	defaultProfileTTL    = time.Minute
	defaultMaxFileSize   = 1 << 20
	defaultDraftDir      = "data/drafts"
	defaultServiceName   = "presetmarket-web"
	defaultZipkinURL     = "http://localhost:9411/api/v2/spans"
)

// Provider exposes configuration to components that should not depend on the
// concrete Config struct (handlers, tests).
type Provider interface {
	GetBackendURL() string
	GetBackendPublicURL() string
	GetListenAddr() string
	GetSessionSecret() string
	GetSessionMaxAge() time.Duration
	GetRequestTimeout() time.Duration
	GetProfileCacheTTL() time.Duration
	GetMaxPresetFileSize() int64
	GetDraftDir() string
	GetTokenFile() string
	GetCallbackAddr() string
	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
}

// Config holds all configuration for the application.
type Config struct {
	// BackendURL is the API base the server talks to, including the /api prefix.
	BackendURL string
	// BackendPublicURL is the API base as seen by browsers. It is used for the
	// OAuth redirect and to resolve preview images. Defaults to BackendURL.
	BackendPublicURL string

	ListenAddr     string
	SessionSecret  string
	SessionMaxAge  time.Duration
	RequestTimeout time.Duration

	// ProfileCacheTTL bounds how long a validated token is trusted before the
	// backend is asked again. Zero disables the cache.
	ProfileCacheTTL time.Duration

	MaxPresetFileSize int64
	DraftDir          string

	// TokenFile and CallbackAddr are only used by presetctl.
	TokenFile    string
	CallbackAddr string

	LogFormat string
	LogLevel  string

	// Tracing of the event bus, exported to Zipkin when enabled.
	TracingEnabled     bool
	TracingServiceName string
	TracingZipkinURL   string
}

// New loads configuration from a .env file (if present) and the environment.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Load is New without the console notice and without exiting: a missing
// .env file is ignored and invalid values are returned as an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BackendURL:         getEnv("BACKEND_URL", defaultBackendURL),
		BackendPublicURL:   os.Getenv("BACKEND_PUBLIC_URL"),
		ListenAddr:         getEnv("LISTEN_ADDR", defaultListenAddr),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		DraftDir:           getEnv("DRAFT_DIR", defaultDraftDir),
		TokenFile:          getEnv("TOKEN_FILE", defaultTokenFile()),
		CallbackAddr:       getEnv("CALLBACK_ADDR", defaultCallbackAddr),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		TracingServiceName: getEnv("TRACING_SERVICE_NAME", defaultServiceName),
		TracingZipkinURL:   getEnv("TRACING_ZIPKIN_URL", defaultZipkinURL),
		SessionMaxAge:      defaultSessionMaxAge,
		RequestTimeout:     defaultTimeout,
		ProfileCacheTTL:    defaultProfileTTL,
		MaxPresetFileSize:  defaultMaxFileSize,
	}
	if cfg.BackendPublicURL == "" {
		cfg.BackendPublicURL = cfg.BackendURL
	}

	var err error
	if cfg.SessionMaxAge, err = getDuration("SESSION_MAX_AGE", cfg.SessionMaxAge); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = getDuration("PROFILE_CACHE_TTL", cfg.ProfileCacheTTL); err != nil {
		return nil, err
	}
	if v := os.Getenv("MAX_PRESET_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_PRESET_FILE_SIZE must be a positive byte count, got %q", v)
		}
		cfg.MaxPresetFileSize = n
	}
	if v := os.Getenv("TRACING_ENABLED"); v != "" {
		if cfg.TracingEnabled, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("TRACING_ENABLED must be true or false, got %q", v)
		}
	}
	return cfg, nil
}

// RequireSessionSecret fails when the web server would sign cookies with an
// empty key.
func (c *Config) RequireSessionSecret() error {
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("SESSION_SECRET must be set to at least 16 characters")
	}
	return nil
}

func (c *Config) GetBackendURL() string             { return c.BackendURL }
func (c *Config) GetBackendPublicURL() string       { return c.BackendPublicURL }
func (c *Config) GetListenAddr() string             { return c.ListenAddr }
func (c *Config) GetSessionSecret() string          { return c.SessionSecret }
func (c *Config) GetSessionMaxAge() time.Duration   { return c.SessionMaxAge }
func (c *Config) GetRequestTimeout() time.Duration  { return c.RequestTimeout }
func (c *Config) GetProfileCacheTTL() time.Duration { return c.ProfileCacheTTL }
func (c *Config) GetMaxPresetFileSize() int64       { return c.MaxPresetFileSize }
func (c *Config) GetDraftDir() string               { return c.DraftDir }
func (c *Config) GetTokenFile() string              { return c.TokenFile }
func (c *Config) GetCallbackAddr() string           { return c.CallbackAddr }
func (c *Config) GetTracingEnabled() bool           { return c.TracingEnabled }
func (c *Config) GetTracingServiceName() string     { return c.TracingServiceName }
func (c *Config) GetTracingZipkinURL() string       { return c.TracingZipkinURL }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// defaultTokenFile is ~/.config/presetmarket/token, or a relative path when
// the user config dir cannot be determined.
func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".presetmarket-token"
	}
	return dir + string(os.PathSeparator) + "presetmarket" + string(os.PathSeparator) + "token"
}
