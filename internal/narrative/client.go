// Package narrative asks an OpenAI-compatible chat model for a reviewer
// brief. It is an optional decorator over the deterministic template: any
// failure is reported as "no value" to the risk aggregator.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/gyeh/claimaudit/internal/risk"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

var (
	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("narrative: api key is required")
	// ErrEmptyResponse is returned when the model sends no usable text.
	ErrEmptyResponse = errors.New("narrative: empty completion")
)

// Options configures a Client.
type Options struct {
	APIKey            string
	Model             string
	BaseURL           string
	RequestsPerMinute int
	MaxRetries        int
	RetryInterval     time.Duration
	FailureThreshold  uint32
	OpenTimeout       time.Duration
}

// Client generates narratives with rate limiting, retries and a circuit breaker.
type Client struct {
	api        *openai.Client
	model      string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryEvery time.Duration
	log        zerolog.Logger
}

// New creates a Client. Zero option values get defaults.
func New(opts Options, log zerolog.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 30
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	log = log.With().Str("component", "narrative_client").Str("model", opts.Model).Logger()
	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "narrative",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Client{
		api:        openai.NewClientWithConfig(cfg),
		model:      opts.Model,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		breaker:    breaker,
		maxRetries: opts.MaxRetries,
		retryEvery: opts.RetryInterval,
		log:        log,
	}, nil
}

// Generate requests a narrative for the brief.
func (c *Client) Generate(ctx context.Context, brief risk.Brief) (string, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.complete(ctx, Prompt(brief))
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// Narrator adapts the client to the aggregator's capability type.
func (c *Client) Narrator() risk.Narrator {
	return func(ctx context.Context, brief risk.Brief) (string, bool) {
		text, err := c.Generate(ctx, brief)
		if err != nil {
			c.log.Warn().Err(err).Msg("narrative generation failed")
			return "", false
		}
		return text, true
	}
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var text string
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("wait for rate limiter: %w", err))
		}
		c.log.Debug().Int("attempt", attempt).Msg("sending narrative request")

		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.2,
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
			return backoff.Permanent(ErrEmptyResponse)
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = c.retryEvery
	strategy.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(strategy, uint64(c.maxRetries)), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	return text, nil
}

// retryable reports whether a failed request is worth repeating: transport
// errors, rate limiting and server errors.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}
	return true
}
