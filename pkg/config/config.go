package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

type Config struct {
	ServerPort         string
	FirebaseProject    string
	ServiceAccountJSON string
	ServiceAccountPath string
	Environment        string
	StoreBackend       string
	AllowedOrigins     []string
	RequestsPerMinute  int

	NotificationPageSize      int
	NotificationExcludedTypes []string
	ConversationListLimit     int
	MessagePageSize           int
	MessageRatePerMinute      int
	BoostSweepInterval        time.Duration

	KafkaBrokers           []string
	KafkaNotificationTopic string
	KafkaGroupID           string
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	config := &Config{
		ServerPort:                getEnv("SERVER_PORT", "8080"),
		FirebaseProject:           getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:        getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:        getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		Environment:               getEnv("ENVIRONMENT", "development"),
		StoreBackend:              strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),
		AllowedOrigins:            splitList(getEnv("ALLOWED_ORIGINS", "")),
		KafkaBrokers:              splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaNotificationTopic:    getEnv("KAFKA_NOTIFICATION_TOPIC", "notification-events"),
		KafkaGroupID:              getEnv("KAFKA_GROUP_ID", "marketsync"),
		NotificationExcludedTypes: splitList(getEnv("NOTIFICATION_EXCLUDED_TYPES", "message")),
	}

	var err error
	if config.NotificationPageSize, err = getEnvAsInt("NOTIFICATION_PAGE_SIZE", 20); err != nil {
		return nil, err
	}
	if config.ConversationListLimit, err = getEnvAsInt("CONVERSATION_LIST_LIMIT", 30); err != nil {
		return nil, err
	}
	if config.MessagePageSize, err = getEnvAsInt("MESSAGE_PAGE_SIZE", 50); err != nil {
		return nil, err
	}
	if config.MessageRatePerMinute, err = getEnvAsInt("MESSAGE_RATE_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if config.RequestsPerMinute, err = getEnvAsInt("HTTP_RATE_PER_MINUTE", 120); err != nil {
		return nil, err
	}
	if config.BoostSweepInterval, err = getEnvAsDuration("BOOST_SWEEP_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	switch config.StoreBackend {
	case BackendFirestore:
		if config.FirebaseProject == "" {
			return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required for the firestore backend")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", config.StoreBackend)
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, value)
	}
	return n, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, value)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
