package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration read from the environment.
type Config struct {
	Port                 string
	AllowedOrigins       string
	LogLevel             string
	LogFormat            string
	ShutdownTimeout      time.Duration
	WSWriteTimeout       time.Duration
	MaxMessagesPerSecond int
	MaxBurst             int
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() Config {
	rate := getEnvInt("WS_MAX_MESSAGES_PER_SECOND", 0)
	return Config{
		Port:                 getEnv("PORT", "8000"),
		AllowedOrigins:       getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		WSWriteTimeout:       getEnvDuration("WS_WRITE_TIMEOUT", 10*time.Second),
		MaxMessagesPerSecond: rate,
		MaxBurst:             getEnvInt("WS_MAX_BURST", 2*rate),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}
