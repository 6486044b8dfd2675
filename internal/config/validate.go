package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ulule/limiter/v3"

	"codeberg.org/codeagent/server/internal/llm"
)

// checks ranges and enumerations that sources cannot enforce themselves
func (c *Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature %v must be between 0 and 2", c.LLM.Temperature)
	}

	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm max_tokens must not be negative")
	}

	if c.LLM.MaxRetries < 1 {
		return fmt.Errorf("llm max_retries must be at least 1")
	}

	if c.LLM.RetryDelay < 0 || c.LLM.AttemptTimeout < 0 || c.LLM.IdleTimeout < 0 {
		return fmt.Errorf("llm durations must not be negative")
	}

	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("llm rate_limit must not be negative")
	}

	switch strings.ToLower(c.LLM.Backoff) {
	case BackoffFixed, BackoffExponential:
	default:
		return fmt.Errorf("llm backoff %q must be %s or %s", c.LLM.Backoff, BackoffFixed, BackoffExponential)
	}

	switch llm.AggregateMode(strings.ToLower(c.LLM.Aggregate)) {
	case llm.AggregateFirst, llm.AggregateFull:
	default:
		return fmt.Errorf("llm aggregate %q must be first or full", c.LLM.Aggregate)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Server.Port)
	}

	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	if _, err := limiter.NewRateFromFormatted(c.Server.RateLimit); err != nil {
		return fmt.Errorf("invalid rate_limit %q: %w", c.Server.RateLimit, err)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// projects the transport settings
func (c *Config) LLMConfig() llm.Config {
	return llm.Config{
		BaseURL:           c.LLM.BaseURL,
		APIKey:            c.LLM.APIKey,
		Model:             c.LLM.Model,
		Temperature:       c.LLM.Temperature,
		MaxTokens:         c.LLM.MaxTokens,
		Stream:            c.LLM.Stream,
		RequestsPerSecond: c.LLM.RateLimit,
	}
}

// projects the retry settings
func (c *Config) RetryPolicy() llm.RetryPolicy {
	policy := llm.RetryPolicy{
		MaxRetries:     c.LLM.MaxRetries,
		AttemptTimeout: c.LLM.AttemptTimeout,
		Delay:          c.LLM.RetryDelay,
		Backoff:        llm.FixedBackoff,
		IdleTimeout:    c.LLM.IdleTimeout,
	}

	if strings.EqualFold(c.LLM.Backoff, BackoffExponential) {
		policy.Backoff = llm.ExponentialBackoff
	}

	if len(c.LLM.RetryStatuses) > 0 {
		policy.Retryable = llm.RetryStatuses(c.LLM.RetryStatuses...)
	}

	return policy
}

func (c *Config) AggregateMode() llm.AggregateMode {
	return llm.AggregateMode(strings.ToLower(c.LLM.Aggregate))
}

// host:port for the HTTP listener
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
