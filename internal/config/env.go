package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	// path of an optional TOML config file
	EnvConfigFile = "CODEAGENT_CONFIG"

	// JSON settings blob passed by the editor extension
	EnvEditorSettings = "EDITOR_SETTINGS"
)

// loads configuration from defaults, .env, the TOML file at path (or
// $CODEAGENT_CONFIG), environment variables and the editor settings blob,
// later sources winning
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	cfg := Defaults()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return nil, err
	}

	applyEditorSettings(cfg, os.Getenv(EnvEditorSettings))

	cfg.LLM.APIKey = NormalizeAPIKey(cfg.LLM.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// overlays the TOML file at path onto cfg
func loadFile(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return nil
}

// overlays environment variables onto cfg; empty variables are ignored
func applyEnvironment(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.Backoff, "LLM_BACKOFF")
	setString(&cfg.LLM.Aggregate, "LLM_AGGREGATE")

	setString(&cfg.Server.Host, "HOST")
	setString(&cfg.Server.RateLimit, "RATE_LIMIT")
	setString(&cfg.Server.PortFile, "PORT_FILE")

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitList(origins)
	}

	parsers := []func() error{
		func() error { return setFloat(&cfg.LLM.Temperature, "LLM_TEMPERATURE") },
		func() error { return setFloat(&cfg.LLM.RateLimit, "LLM_RATE_LIMIT") },
		func() error { return setInt(&cfg.LLM.MaxTokens, "LLM_MAX_TOKENS") },
		func() error { return setInt(&cfg.LLM.MaxRetries, "LLM_MAX_RETRIES") },
		func() error { return setBool(&cfg.LLM.Stream, "LLM_STREAM") },
		func() error { return setDuration(&cfg.LLM.RetryDelay, "LLM_RETRY_DELAY") },
		func() error { return setDuration(&cfg.LLM.AttemptTimeout, "LLM_ATTEMPT_TIMEOUT") },
		func() error { return setDuration(&cfg.LLM.IdleTimeout, "LLM_IDLE_TIMEOUT") },
		func() error { return setInt(&cfg.Server.Port, "PORT") },
		func() error { return setDuration(&cfg.Server.SessionTTL, "SESSION_TTL") },
	}

	for _, parse := range parsers {
		if err := parse(); err != nil {
			return err
		}
	}

	return nil
}

// strips a "Bearer " prefix and surrounding whitespace
func NormalizeAPIKey(key string) string {
	key = strings.TrimSpace(key)

	if rest, ok := strings.CutPrefix(key, "Bearer"); ok && (rest == "" || rest[0] == ' ') {
		key = rest
	}

	return strings.TrimSpace(key)
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}

	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", name, err)
	}

	*dst = n

	return nil
}

func setFloat(dst *float64, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%s must be a number: %w", name, err)
	}

	*dst = f

	return nil
}

func setBool(dst *bool, name string) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}

	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", name, err)
	}

	*dst = b

	return nil
}

// accepts Go durations ("2s") or bare seconds ("2", "0.5")
func setDuration(dst *time.Duration, name string) error {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return nil
	}

	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return nil
	}

	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s must be a duration like 2s: %w", name, err)
	}

	*dst = time.Duration(secs * float64(time.Second))

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
