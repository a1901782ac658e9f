package server

import (
	"os"
	"strconv"
)

// Config holds the runtime settings for the HTTP server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// StoreBackend selects the person store: "memory", "sqlite" or "redis".
	StoreBackend string
	// SqlitePath is the database file used by the sqlite backend.
	SqlitePath string
	// RedisAddr is the address used by the redis backend.
	RedisAddr string
	// MaxResults limits how many search hits each query contributes.
	MaxResults int
}

// ConfigFromEnv builds a Config from environment variables, falling back to
// sensible defaults for local development.
func ConfigFromEnv() Config {
	return Config{
		Addr:         getEnv("S4P_ADDR", ":8080"),
		StoreBackend: getEnv("S4P_STORE", "sqlite"),
		SqlitePath:   getEnv("S4P_SQLITE_PATH", "people.db"),
		RedisAddr:    getEnv("S4P_REDIS_ADDR", "localhost:6379"),
		MaxResults:   getEnvInt("S4P_MAX_RESULTS", 5),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
