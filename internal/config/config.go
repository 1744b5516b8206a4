package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full application configuration, loaded from the
// environment once at startup.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	MongoDB  MongoConfig
	JWT      JWTConfig
	Matching MatchingConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Port        string
	Debug       bool
}

type ServerConfig struct {
	HTTP      HTTPConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
}

type HTTPConfig struct {
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	PingPeriod      time.Duration
	PongWait        time.Duration
	WriteWait       time.Duration
	MaxMessageSize  int64
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

type MongoConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnIdleTime        time.Duration
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	ExpiryHour int
}

// MatchingConfig carries every tunable of the matchmaking core: queue and
// session expiry bounds, the janitor period and the wait-time heuristic.
type MatchingConfig struct {
	QueueTTL        time.Duration // waiting entries older than this are purged
	SessionIdleTTL  time.Duration // active sessions idle longer than this are torn down
	VideoReadyTTL   time.Duration // video sessions must reach readiness within this
	PresenceTTL     time.Duration // heartbeat staleness bound
	JanitorInterval time.Duration
	BaseWait        time.Duration // estimated-wait heuristic base
	PerUserWait     time.Duration // estimated-wait heuristic per queued user
}

var loaded *Config

// Load reads configuration from the environment. Subsequent calls return
// the same instance.
func Load() *Config {
	if loaded != nil {
		return loaded
	}

	loaded = &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "shadowtalk"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			Debug:       getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Host:         getEnv("HTTP_HOST", "0.0.0.0"),
				ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
				WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
				IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			},
			WebSocket: WebSocketConfig{
				ReadBufferSize:  getEnvInt("WS_READ_BUFFER_SIZE", 1024),
				WriteBufferSize: getEnvInt("WS_WRITE_BUFFER_SIZE", 1024),
				PingPeriod:      getEnvDuration("WS_PING_PERIOD", 54*time.Second),
				PongWait:        getEnvDuration("WS_PONG_WAIT", 60*time.Second),
				WriteWait:       getEnvDuration("WS_WRITE_WAIT", 10*time.Second),
				MaxMessageSize:  int64(getEnvInt("WS_MAX_MESSAGE_SIZE", 64*1024)),
			},
			CORS: CORSConfig{
				AllowedOrigins:   getEnvSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
				AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			},
		},
		MongoDB: MongoConfig{
			URI:                    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:               getEnv("MONGODB_DATABASE", "shadowtalk"),
			MaxPoolSize:            uint64(getEnvInt("MONGODB_MAX_POOL_SIZE", 100)),
			MinPoolSize:            uint64(getEnvInt("MONGODB_MIN_POOL_SIZE", 5)),
			MaxConnIdleTime:        getEnvDuration("MONGODB_MAX_CONN_IDLE_TIME", 30*time.Minute),
			ConnectTimeout:         getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			ServerSelectionTimeout: getEnvDuration("MONGODB_SERVER_SELECTION_TIMEOUT", 5*time.Second),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "change-me-in-production"),
			Issuer:     getEnv("JWT_ISSUER", "shadowtalk-backend"),
			ExpiryHour: getEnvInt("JWT_EXPIRY_HOURS", 24),
		},
		Matching: MatchingConfig{
			QueueTTL:        getEnvDuration("MATCHING_QUEUE_TTL", 10*time.Minute),
			SessionIdleTTL:  getEnvDuration("MATCHING_SESSION_IDLE_TTL", 5*time.Minute),
			VideoReadyTTL:   getEnvDuration("MATCHING_VIDEO_READY_TTL", 2*time.Minute),
			PresenceTTL:     getEnvDuration("MATCHING_PRESENCE_TTL", 2*time.Minute),
			JanitorInterval: getEnvDuration("MATCHING_JANITOR_INTERVAL", 60*time.Second),
			BaseWait:        getEnvDuration("MATCHING_BASE_WAIT", 10*time.Second),
			PerUserWait:     getEnvDuration("MATCHING_PER_USER_WAIT", 5*time.Second),
		},
	}

	return loaded
}

// Helpers

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
