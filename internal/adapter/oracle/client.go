// Package oracle proxies visitor prompts to an external text-generation API.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/yuchiehee/personalpage-backend/internal/platform/retry"
)

const (
	// promptTemplate frames the visitor's question as a single assistant
	// turn. The extraction in parseReply depends on assistantDelimiter
	// matching the template's last line.
	promptTemplate = "You are the helpful assistant on a personal website. " +
		"Answer the visitor briefly and politely.\n\nVisitor: %s\nAssistant:"
	assistantDelimiter = "Assistant:"

	// EmptyReplyMarker is returned when the provider answers with a
	// structurally valid but empty generation.
	EmptyReplyMarker = "(the oracle had nothing to say)"

	maxResponseBytes = 1 << 20

	retryInitialBackoff   = 500 * time.Millisecond
	retryRateLimitBackoff = 2 * time.Second
)

// apiError carries the upstream HTTP status for retry classification.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("oracle API returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a HuggingFace-inference style endpoint:
// request {"inputs": ...}, response [{"generated_text": ...}].
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	breaker    circuitbreaker.CircuitBreaker[string]
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	breaker := circuitbreaker.NewBuilder[string]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "oracle",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
		}).
		Build()

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		apiKey:     apiKey,
		breaker:    breaker,
	}
}

type generateRequest struct {
	Inputs string `json:"inputs"`
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

// Generate sends the prompt through the persona template and returns the
// extracted assistant reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	fullPrompt := fmt.Sprintf(promptTemplate, prompt)

	p := retry.Policy{
		MaxAttempts:      3,
		InitialBackoff:   retryInitialBackoff,
		RateLimitBackoff: retryRateLimitBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Oracle request failed, retrying", "attempt", attempt, "backoff_seconds", backoff.Seconds(), "error", err)
		},
	}

	raw, err := retry.Do(ctx, p, classifyOracleError, func() (string, error) {
		return failsafe.Get(func() (string, error) {
			return c.callOnce(ctx, fullPrompt)
		}, c.breaker)
	})
	if err != nil {
		return "", err
	}

	return parseReply(raw), nil
}

func (c *Client) callOnce(ctx context.Context, fullPrompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{Inputs: fullPrompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read oracle response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var results []generateResponse
	if err := json.Unmarshal(body, &results); err != nil {
		return "", fmt.Errorf("failed to decode oracle response: %w", err)
	}
	if len(results) == 0 {
		return "", errors.New("oracle returned an empty result list")
	}

	return results[0].GeneratedText, nil
}

// parseReply keeps only the text after the LAST assistant delimiter so the
// echoed prompt and any hallucinated extra turns are stripped.
func parseReply(raw string) string {
	if idx := strings.LastIndex(raw, assistantDelimiter); idx >= 0 {
		raw = raw[idx+len(assistantDelimiter):]
	}
	reply := strings.TrimSpace(raw)
	if reply == "" {
		return EmptyReplyMarker
	}
	return reply
}

func classifyOracleError(err error) retry.Action {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return retry.Stop
	}

	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return retry.Retry
	}

	switch {
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return retry.After
	case apiErr.StatusCode == http.StatusServiceUnavailable:
		return retry.After
	case apiErr.StatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}
