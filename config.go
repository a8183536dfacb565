package shipbook

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration. It is an explicit, immutable value
// handed to the extractor builder; nothing in this package reads ambient
// globals after construction.
type Config struct {
	APIKey      string
	Model       string
	Topology    Topology
	MaxWorkers  int
	MaxAttempts int
	CallTimeout time.Duration
	Backoff     time.Duration
}

// DefaultModel is used when SHIPBOOK_MODEL is unset.
const DefaultModel = "gemini-2.0-flash"

// LoadConfig loads configuration from the environment, reading a .env file
// first if one exists. A missing API key is a pre-flight fatal condition,
// distinct from any per-field extraction failure.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	topology, err := ParseTopology(getEnv("SHIPBOOK_TOPOLOGY", "parallel"))
	if err != nil {
		return nil, err
	}

	return &Config{
		APIKey:      apiKey,
		Model:       getEnv("SHIPBOOK_MODEL", DefaultModel),
		Topology:    topology,
		MaxWorkers:  getEnvAsInt("SHIPBOOK_MAX_WORKERS", DefaultWorkerCap),
		MaxAttempts: getEnvAsInt("SHIPBOOK_MAX_ATTEMPTS", DefaultMaxAttempts),
		CallTimeout: time.Duration(getEnvAsInt("SHIPBOOK_CALL_TIMEOUT", 10)) * time.Second,
		Backoff:     time.Duration(getEnvAsInt("SHIPBOOK_BACKOFF_MS", 0)) * time.Millisecond,
	}, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
