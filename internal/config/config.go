package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Subscription hub
	HubBufferSize int

	// Live stream session
	StreamPollIntervalMS int
	StreamHeartbeatPolls int

	// Query page caps
	EventPageLimit   int
	SummaryPageLimit int
	VehiclePageLimit int

	// State cache
	StateCacheTTLSeconds int

	// Auth
	AuthCacheTTLSeconds int
	HardwareAPIKeys     []string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8002"),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "accident_user"),
		DBPassword:           getEnv("DB_PASSWORD", "accident_password"),
		DBName:               getEnv("DB_NAME", "accident_monitor"),
		DBMaxConns:           int32(getEnvInt("DB_MAX_CONNS", 15)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		HubBufferSize:        getEnvInt("HUB_BUFFER_SIZE", 32),
		StreamPollIntervalMS: getEnvInt("STREAM_POLL_INTERVAL_MS", 1000),
		StreamHeartbeatPolls: getEnvInt("STREAM_HEARTBEAT_POLLS", 10),
		EventPageLimit:       getEnvInt("EVENT_PAGE_LIMIT", 100),
		SummaryPageLimit:     getEnvInt("SUMMARY_PAGE_LIMIT", 50),
		VehiclePageLimit:     getEnvInt("VEHICLE_PAGE_LIMIT", 500),
		StateCacheTTLSeconds: getEnvInt("STATE_CACHE_TTL_SECONDS", 300),
		AuthCacheTTLSeconds:  getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),
		HardwareAPIKeys:      splitKeys(getEnv("HW_API_KEYS", "")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}
}

func splitKeys(raw string) []string {
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
