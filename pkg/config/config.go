package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for warp-gateway.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	Port        int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int
	HTTPBanner       bool

	// Quoting backend
	BackendURL      string
	BackendTimeout  time.Duration
	BackendRetryMax int
	BackendRPS      float64
	BackendBurst    int
	LimiterIdle     time.Duration

	// Quote cache. An empty RedisAddr selects the in-memory cache.
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	QuoteTTL    time.Duration
	CleanupFreq time.Duration

	// Event publishing. An empty NATSURL disables publishing.
	NATSURL       string
	EventsSubject string
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:      GetEnv("SERVICE_NAME", "warp-gateway"),
		Env:              GetEnv("ENV", "dev"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnvInt("WARP_PORT", 9040),
		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 35*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    GetEnvInt("HTTP_BODY_LIMIT", 64*1024),
		HTTPBanner:       GetEnvBool("HTTP_BANNER", false),
		BackendURL:       GetEnv("WARP_BACKEND_URL", "http://localhost:8000"),
		BackendTimeout:   GetEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		BackendRetryMax:  GetEnvInt("BACKEND_RETRY_MAX", 2),
		BackendRPS:       GetEnvFloat("BACKEND_RPS", 5),
		BackendBurst:     GetEnvInt("BACKEND_BURST", 10),
		LimiterIdle:      GetEnvDuration("BACKEND_LIMITER_IDLE", 15*time.Minute),
		RedisAddr:        GetEnv("REDIS_ADDR", ""),
		RedisDB:          GetEnvInt("REDIS_DB", 0),
		RedisPass:        GetEnv("REDIS_PASS", ""),
		QuoteTTL:         GetEnvDuration("QUOTE_TTL", 10*time.Minute),
		CleanupFreq:      GetEnvDuration("CACHE_CLEANUP_FREQ", 1*time.Minute),
		NATSURL:          GetEnv("NATS_URL", ""),
		EventsSubject:    GetEnv("EVENTS_SUBJECT", "evt.warp"),
	}
}
