package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	ServerAddr            string
	Environment           string
	MongoURI              string
	MongoDatabase         string
	MongoReplicaSet       string
	KafkaBrokers          []string
	TemporalHost          string
	TemporalNamespace     string
	RoutingServiceURL     string
	TracingEnabled        bool
	OTLPEndpoint          string
	ZonesFile             string
	RebalanceCron         string
	RebalanceThreshold    int
	DefaultTasksPerPicker int
	OutboxPollInterval    time.Duration
	CORSAllowedOrigins    []string
}

func loadConfig() *Config {
	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8012"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		MongoURI:              getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:         getEnv("MONGODB_DATABASE", "scheduler_db"),
		MongoReplicaSet:       getEnv("MONGODB_REPLICA_SET", ""),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
		TemporalHost:          getEnv("TEMPORAL_HOST", "localhost:7233"),
		TemporalNamespace:     getEnv("TEMPORAL_NAMESPACE", "default"),
		RoutingServiceURL:     getEnv("ROUTING_SERVICE_URL", "http://localhost:8003"),
		TracingEnabled:        getEnv("TRACING_ENABLED", "true") == "true",
		OTLPEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ZonesFile:             getEnv("ZONES_FILE", ""),
		RebalanceCron:         getEnv("REBALANCE_CRON", ""),
		RebalanceThreshold:    parseInt(getEnv("REBALANCE_THRESHOLD", "50"), 50),
		DefaultTasksPerPicker: parseInt(getEnv("DEFAULT_TASKS_PER_PICKER", "20"), 20),
		OutboxPollInterval:    parseDuration(getEnv("OUTBOX_POLL_INTERVAL", "1s"), time.Second),
		CORSAllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	var result int
	if _, err := fmt.Sscanf(s, "%d", &result); err != nil || result <= 0 {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
