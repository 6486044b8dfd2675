package config

import "time"

// full runtime configuration, layered from defaults, .env, TOML file,
// environment and the editor settings blob
type Config struct {
	Environment string         `toml:"environment"`
	LogLevel    string         `toml:"log_level"`
	LLM         LLMSettings    `toml:"llm"`
	Server      ServerSettings `toml:"server"`
}

// upstream chat endpoint and retry behaviour
type LLMSettings struct {
	APIKey         string        `toml:"api_key"`
	BaseURL        string        `toml:"base_url"`
	Model          string        `toml:"model"`
	Temperature    float64       `toml:"temperature"`
	MaxTokens      int           `toml:"max_tokens"`
	Stream         bool          `toml:"stream"`
	MaxRetries     int           `toml:"max_retries"`
	RetryDelay     time.Duration `toml:"retry_delay"`
	AttemptTimeout time.Duration `toml:"attempt_timeout"`
	IdleTimeout    time.Duration `toml:"idle_timeout"`
	Backoff        string        `toml:"backoff"` // fixed or exponential
	RetryStatuses  []int         `toml:"retry_statuses"`
	Aggregate      string        `toml:"aggregate"`  // first or full
	RateLimit      float64       `toml:"rate_limit"` // requests per second, 0 = off
}

// HTTP front door
type ServerSettings struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"` // 0 lets the OS choose
	AllowedOrigins []string      `toml:"allowed_origins"`
	RateLimit      string        `toml:"rate_limit"` // e.g. "120-M"
	SessionTTL     time.Duration `toml:"session_ttl"`
	PortFile       string        `toml:"port_file"`
}

type Flags struct {
	ConfigPath string
	Port       int
	SessionID  string

	// websocket endpoint of a running server; empty runs the agent in-process
	ServerURL string
}
