package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Defaults for the OpenRouter chat/completions endpoint.
const (
	DefaultURL         = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "openai/gpt-4o-mini"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7
	DefaultTimeout     = 20 * time.Second
	DefaultReferer     = "http://localhost:3000"
	DefaultTitle       = "Student Chat App"

	DefaultSystemPrompt = "You are NATE, a helpful AI assistant in a student group chat. " +
		"You help students with their debate preparation. " +
		"Help students to learn how to construct an argument(claim,evidence,reasoning) and how to identify the logical fallacies. " +
		"Always respond in English."
)

var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("assistant: api key not configured")
	// ErrEmptyCompletion is returned when the upstream answered without text.
	ErrEmptyCompletion = errors.New("assistant: empty completion")
)

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant: upstream status %d", e.StatusCode)
}

// Completer produces one completion for a transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []ChatMessage) (string, error)
}

// ClientConfig configures Client.
type ClientConfig struct {
	APIKey       string
	URL          string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	Referer      string
	Title        string
	SystemPrompt string
}

// Client calls an OpenRouter-compatible chat/completions endpoint.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient applies defaults to zero fields. hc may be nil.
func NewClient(cfg ClientConfig, hc *http.Client) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the system prompt followed by transcript and returns the
// first choice's text. The call is bounded by the configured timeout even
// when ctx has no deadline.
func (c *Client) Complete(ctx context.Context, transcript []ChatMessage) (string, error) {
	tr := otel.Tracer("assistant/Client")
	ctx, span := tr.Start(ctx, "Complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.model", c.cfg.Model),
			attribute.Int("llm.transcript_len", len(transcript)),
		),
	)
	defer span.End()

	if strings.TrimSpace(c.cfg.APIKey) == "" {
		span.SetStatus(codes.Error, "not configured")
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	msgs := make([]ChatMessage, 0, len(transcript)+1)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: c.cfg.SystemPrompt})
	msgs = append(msgs, transcript...)

	body, err := json.Marshal(completionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return "", err
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		span.SetStatus(codes.Error, "upstream status")
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		return "", fmt.Errorf("assistant: decode response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}
	return out.Choices[0].Message.Content, nil
}
