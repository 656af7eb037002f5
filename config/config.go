// Package config resolves the runtime configuration from the
// environment, with optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the run command needs to wire the service.
type Config struct {
	NatsURL        string
	StanClusterID  string
	StanClientID   string
	IngressSubject string
	EgressSubject  string
	DurableName    string
	QueueGroup     string

	DataDir    string
	AppVersion string

	PassivateAfter       time.Duration
	PassivationFrequency time.Duration
}

// Load reads the configuration. A missing .env file is fine; values
// then come from the process environment or the defaults.
func Load() *Config {
	_ = godotenv.Load()
	return &Config{
		NatsURL:              getEnv("NATS_URL", "nats://localhost:4222"),
		StanClusterID:        getEnv("STAN_CLUSTER_ID", "example-cluster"),
		StanClientID:         getEnv("STAN_CLIENT_ID", fmt.Sprintf("cartflow-%d", time.Now().UnixNano())),
		IngressSubject:       getEnv("INGRESS_SUBJECT", "example-ingress-stream"),
		EgressSubject:        getEnv("EGRESS_SUBJECT", "example-egress-stream"),
		DurableName:          getEnv("DURABLE_NAME", "cartflow-durable"),
		QueueGroup:           getEnv("QUEUE_GROUP", "cartflow-workers"),
		DataDir:              getEnv("DATA_DIR", "data"),
		AppVersion:           getEnv("APP_VERSION", "dev"),
		PassivateAfter:       getDuration("PASSIVATE_AFTER", 2*time.Minute),
		PassivationFrequency: getDuration("PASSIVATION_FREQUENCY", 30*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
