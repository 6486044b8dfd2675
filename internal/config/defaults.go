package config

import (
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultBaseURL     = "https://glhf.chat/api/openai/v1"
	DefaultModel       = "hf:Qwen/Qwen2.5-Coder-32B-Instruct"
	DefaultTemperature = 0.7

	DefaultRateLimit  = "120-M"
	DefaultSessionTTL = 30 * time.Minute

	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"

	portFileName = "codeagent_port.txt"
)

// returns the configuration used before any source is applied
func Defaults() *Config {
	return &Config{
		Environment: "development",
		LLM: LLMSettings{
			BaseURL:        DefaultBaseURL,
			Model:          DefaultModel,
			Temperature:    DefaultTemperature,
			Stream:         true,
			MaxRetries:     3,
			RetryDelay:     2 * time.Second,
			AttemptTimeout: 30 * time.Second,
			Backoff:        BackoffFixed,
			RetryStatuses:  []int{http.StatusBadGateway},
			Aggregate:      "first",
		},
		Server: ServerSettings{
			Host:           "localhost",
			AllowedOrigins: []string{"*"},
			RateLimit:      DefaultRateLimit,
			SessionTTL:     DefaultSessionTTL,
			PortFile:       filepath.Join(os.TempDir(), portFileName),
		},
	}
}
