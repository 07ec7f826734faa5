// Package llm wraps the generation backend behind a small Generator
// interface so the agent stages stay testable without network access.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"rascaffold/internal/config"
)

// Generator is the single suspension point of the pipeline: one prompt in,
// one completion out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CallError is a generation transport failure (network, rate limit,
// upstream error). Retried locally with backoff.
type CallError struct {
	Err error
}

func (e *CallError) Error() string { return fmt.Sprintf("generation call: %v", e.Err) }
func (e *CallError) Unwrap() error { return e.Err }

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	llm         *openai.LLM
	temperature float64
	timeout     time.Duration
}

// New builds a Client from configuration. The base URL makes the same
// client work against OpenRouter or any OpenAI-compatible gateway.
func New(cfg config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.APIKey, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}
	return &Client{
		llm:         llm,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
	}, nil
}

// Generate runs one completion with the configured timeout. Caller
// cancellation and caller deadlines pass through; every other failure,
// including the per-call timeout, is a retryable CallError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(c.temperature))
	if err != nil {
		if cerr := parent.Err(); cerr != nil {
			return "", cerr
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &CallError{Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &CallError{Err: errors.New("empty completion")}
	}
	return out, nil
}
