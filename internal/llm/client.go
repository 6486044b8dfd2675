package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"codeberg.org/codeagent/server/internal/logger"
)

const (
	chatCompletionsPath = "/chat/completions"

	// cap on how much of an error body is kept for UpstreamError
	maxErrorBodySize = 64 * 1024
)

// configures a Client
type Option func(*Client)

// overrides the default retry policy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// makes the client reuse hc instead of building its own transport
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.newHTTPClient = func() *http.Client { return hc }
	}
}

// sets the logger used for attempt and decode diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// OpenAI-compatible streaming chat client
type Client struct {
	config   Config
	endpoint string
	policy   RetryPolicy
	limiter  *rate.Limiter
	log      *slog.Logger

	newHTTPClient func() *http.Client

	mu         sync.Mutex
	httpClient *http.Client
}

var _ Completer = (*Client)(nil)

// validates config and returns a client with no open connection.
// A missing API key is not an error here; it surfaces on the first request.
func NewClient(config Config, opts ...Option) (*Client, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	c := &Client{
		config:        config,
		endpoint:      strings.TrimRight(config.BaseURL, "/") + chatCompletionsPath,
		policy:        DefaultRetryPolicy(),
		log:           logger.Default(),
		newHTTPClient: defaultHTTPClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.policy = c.policy.normalized()

	if config.RequestsPerSecond > 0 {
		burst := int(config.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	}

	if strings.TrimSpace(config.APIKey) == "" {
		c.log.Error("no API key provided in configuration", "base_url", config.BaseURL)
	}

	c.log.Info("llm client configured",
		"base_url", config.BaseURL,
		"model", config.Model,
		"api_key", logger.MaskKey(config.APIKey),
		"max_retries", c.policy.MaxRetries,
	)

	return c, nil
}

func validateConfig(config Config) error {
	if strings.TrimSpace(config.BaseURL) == "" {
		return &ConfigError{Field: "base_url", Reason: "is required"}
	}

	u, err := url.Parse(config.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigError{Field: "base_url", Reason: fmt.Sprintf("%q is not an absolute http(s) URL", config.BaseURL)}
	}

	if strings.TrimSpace(config.Model) == "" {
		return &ConfigError{Field: "model", Reason: "is required"}
	}

	if config.Temperature < 0 || config.Temperature > 2 {
		return &ConfigError{Field: "temperature", Reason: fmt.Sprintf("%v is outside [0, 2]", config.Temperature)}
	}

	if config.MaxTokens < 0 {
		return &ConfigError{Field: "max_tokens", Reason: "must not be negative"}
	}

	if config.RequestsPerSecond < 0 {
		return &ConfigError{Field: "requests_per_second", Reason: "must not be negative"}
	}

	return nil
}

// no client-wide timeout: a healthy stream may run far longer than one attempt
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

func (c *Client) Model() string {
	return c.config.Model
}

// lazily (re)creates the HTTP session after Cleanup
func (c *Client) ensureConnection() (*http.Client, error) {
	if strings.TrimSpace(c.config.APIKey) == "" {
		return nil, &ConfigError{Field: "api_key", Reason: "is required but not provided"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		c.httpClient = c.newHTTPClient()
		c.log.Debug("opened http session", "endpoint", c.endpoint)
	}

	return c.httpClient, nil
}

// releases pooled connections; the next request reconnects
func (c *Client) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		return
	}

	c.httpClient.CloseIdleConnections()
	c.httpClient = nil
	c.log.Debug("closed http session", "endpoint", c.endpoint)
}

// one in-flight response whose body is bound to the attempt context
type exchange struct {
	resp   *http.Response
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func (x *exchange) close() {
	x.resp.Body.Close() //nolint:errcheck
	x.cancel(nil)
}

// streams completion fragments. Retries happen before the first fragment only;
// once the stream is open any failure ends the sequence with that error.
// Breaking out of the range closes the connection.
func (c *Client) StreamComplete(ctx context.Context, messages []Message) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		x, err := c.send(ctx, messages)
		if err != nil {
			yield(Fragment{}, err)
			return
		}

		defer x.close()

		if isJSONResponse(x.resp) {
			c.readBody(x, yield)
			return
		}

		c.readStream(ctx, x, yield)
	}
}

// runs the attempt loop until a 200 response is open
func (c *Client) send(ctx context.Context, messages []Message) (*exchange, error) {
	hc, err := c.ensureConnection()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		Temperature: c.config.Temperature,
		Stream:      c.config.Stream,
		MaxTokens:   c.config.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.log.Debug("sending chat request",
		"endpoint", c.endpoint,
		"model", c.config.Model,
		"api_key", logger.MaskKey(c.config.APIKey),
		"messages", len(messages),
		"prompt_tokens", EstimateMessages(messages),
	)

	var lastErr error

	for attempt := 0; attempt < c.policy.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter error: %w", err)
			}
		}

		x, err := c.attempt(ctx, hc, body)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			lastErr = &TransientError{Err: err}

		case x.resp.StatusCode == http.StatusOK:
			return x, nil

		case c.policy.Retryable(x.resp.StatusCode):
			io.Copy(io.Discard, io.LimitReader(x.resp.Body, maxErrorBodySize)) //nolint:errcheck
			x.close()

			lastErr = &TransientError{StatusCode: x.resp.StatusCode}

		default:
			raw, _ := io.ReadAll(io.LimitReader(x.resp.Body, maxErrorBodySize)) //nolint:errcheck
			x.close()

			return nil, &UpstreamError{StatusCode: x.resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}

		c.log.Warn("chat request attempt failed",
			"attempt", attempt+1,
			"max_retries", c.policy.MaxRetries,
			"error", lastErr,
		)

		if attempt < c.policy.MaxRetries-1 {
			if err := sleep(ctx, c.policy.Backoff(attempt, c.policy.Delay)); err != nil {
				return nil, err
			}
		}
	}

	return nil, &RetryExhaustedError{Attempts: c.policy.MaxRetries, Last: lastErr}
}

// performs one request. The attempt timeout covers connecting and receiving
// headers; it is disarmed once the response starts.
func (c *Client) attempt(ctx context.Context, hc *http.Client, body []byte) (*exchange, error) {
	attemptCtx, cancel := context.WithCancelCause(ctx)
	timer := time.AfterFunc(c.policy.AttemptTimeout, func() { cancel(ErrAttemptTimeout) })

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		timer.Stop()
		cancel(nil)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.config.APIKey))

	resp, err := hc.Do(req)
	stopped := timer.Stop()

	if err != nil {
		timedOut := errors.Is(context.Cause(attemptCtx), ErrAttemptTimeout)
		cancel(nil)

		if timedOut {
			return nil, ErrAttemptTimeout
		}

		return nil, err
	}

	if !stopped {
		// timer fired between headers arriving and the stop
		resp.Body.Close() //nolint:errcheck
		cancel(nil)
		return nil, ErrAttemptTimeout
	}

	return &exchange{resp: resp, ctx: attemptCtx, cancel: cancel}, nil
}

func isJSONResponse(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
}

// handles a non-streaming reply carrying the whole completion
func (c *Client) readBody(x *exchange, yield func(Fragment, error) bool) {
	raw, err := io.ReadAll(x.resp.Body)
	if err != nil {
		yield(Fragment{}, fmt.Errorf("failed to read response: %w", err))
		return
	}

	text, err := decodePayload(raw)
	if err != nil {
		c.log.Warn("failed to decode response body", "error", &DecodeWarning{Line: string(raw), Err: err})
		return
	}

	if text != "" {
		yield(Fragment{Text: text, Kind: KindText}, nil)
	}
}

// yields one fragment per non-empty SSE data line until [DONE] or EOF
func (c *Client) readStream(ctx context.Context, x *exchange, yield func(Fragment, error) bool) {
	idle := c.policy.IdleTimeout

	var watchdog *time.Timer
	if idle > 0 {
		watchdog = time.AfterFunc(idle, func() { x.cancel(ErrIdleTimeout) })
		defer watchdog.Stop()
	}

	scanner := newLineScanner(x.resp.Body)

	for scanner.Scan() {
		if watchdog != nil {
			watchdog.Reset(idle)
		}

		if err := ctx.Err(); err != nil {
			yield(Fragment{}, err)
			return
		}

		event, err := decodeLine(scanner.Text())
		if err != nil {
			c.log.Warn("skipping stream line", "error", err)
			continue
		}

		if event.done {
			c.log.Debug("stream finished")
			return
		}

		if event.text == "" {
			continue
		}

		if !yield(Fragment{Text: event.text, Kind: KindText}, nil) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		switch {
		case errors.Is(context.Cause(x.ctx), ErrIdleTimeout):
			yield(Fragment{}, ErrIdleTimeout)
		case ctx.Err() != nil:
			yield(Fragment{}, ctx.Err())
		default:
			yield(Fragment{}, fmt.Errorf("failed to read stream: %w", err))
		}
	}
}

// returns the first fragment of the stream
func (c *Client) Complete(ctx context.Context, messages []Message) (Fragment, error) {
	for fragment, err := range c.StreamComplete(ctx, messages) {
		if err != nil {
			return Fragment{}, err
		}

		return fragment, nil
	}

	return Fragment{}, ErrEmptyCompletion
}

// concatenates the whole stream; a reply that is exactly one fenced block is tagged as code
func (c *Client) CompleteFull(ctx context.Context, messages []Message) (Fragment, error) {
	var sb strings.Builder

	for fragment, err := range c.StreamComplete(ctx, messages) {
		if err != nil {
			return Fragment{}, err
		}

		sb.WriteString(fragment.Text)
	}

	if sb.Len() == 0 {
		return Fragment{}, ErrEmptyCompletion
	}

	text := sb.String()

	return Fragment{Text: text, Kind: ClassifyKind(text)}, nil
}

// sends a one-line prompt and reports whether any content came back
func (c *Client) TestConnection(ctx context.Context) bool {
	c.log.Info("testing llm connection", "base_url", c.config.BaseURL, "model", c.config.Model)

	fragment, err := c.Complete(ctx, []Message{UserMessage("Say 'Hello World'")})
	if err != nil {
		c.log.Error("llm connection test failed", "error", err)
		return false
	}

	c.log.Info("llm connection test succeeded", "response", fragment.Text)

	return true
}
