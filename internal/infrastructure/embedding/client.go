package embedding

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

	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/bib/services/review-service/internal/domain/port"
)

// Compile-time interface check.
var _ port.Embedder = (*Embedder)(nil)

// maxErrorBody caps how much of an error response is kept in the error message.
const maxErrorBody = 512

// widthSampleText is embedded at bind time to learn the hidden-state width.
const widthSampleText = "a"

// RuntimeError is a non-2xx answer from the embedding runtime.
type RuntimeError struct {
	StatusCode int
	Body       string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("embedding runtime error (status %d): %s", e.StatusCode, e.Body)
}

// rejectsInput reports whether the runtime refused the request payload
// itself, as it does for empty inputs.
func (e *RuntimeError) rejectsInput() bool {
	return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
}

// ClientConfig configures the embedding runtime client.
type ClientConfig struct {
	BaseURL   string
	ModelID   string // empty accepts whatever model the runtime serves
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to a Text-Embeddings-Inference compatible runtime that holds
// the tokenizer and the BERT weights.
type Client struct {
	baseURL   string
	modelID   string
	maxTokens int
	client    *http.Client
	duration  metric.Float64Histogram
	logger    *slog.Logger
}

// NewClient creates a new embedding runtime client.
func NewClient(cfg ClientConfig, meter metric.Meter, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("embedding max tokens must be positive, got %d", cfg.MaxTokens)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	duration, err := meter.Float64Histogram(
		"review_embedding_duration_seconds",
		metric.WithDescription("Latency of embedding runtime calls."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding histogram: %w", err)
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		modelID:   cfg.ModelID,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: timeout},
		duration:  duration,
		logger:    logger,
	}, nil
}

// Info is the subset of the runtime's /info response the client checks.
type Info struct {
	ModelID        string `json:"model_id"`
	MaxInputLength int    `json:"max_input_length"`
}

type embedAllRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

// Info fetches the runtime model description.
func (c *Client) Info(ctx context.Context) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return Info{}, fmt.Errorf("failed to create request: %w", err)
	}

	var info Info
	if err := c.do(req, &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// TokenStates returns the last hidden state of every token of text.
// Inputs longer than the runtime limit are truncated by the runtime.
func (c *Client) TokenStates(ctx context.Context, text string) ([][]float64, error) {
	payload, err := json.Marshal(embedAllRequest{Inputs: text, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed_all", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	var batch [][][]float64
	err = c.do(req, &batch)
	c.duration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if len(batch) != 1 {
		return nil, fmt.Errorf("embedding runtime returned %d sequences for one input", len(batch))
	}
	return batch[0], nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding runtime request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &RuntimeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// Bind checks the runtime serves the expected model with the expected
// input limit, then learns the embedding width from a one-word sample.
func (c *Client) Bind(ctx context.Context) (*Embedder, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query embedding runtime: %w", err)
	}
	if c.modelID != "" && info.ModelID != c.modelID {
		return nil, fmt.Errorf("embedding runtime serves model %q, expected %q", info.ModelID, c.modelID)
	}
	if info.MaxInputLength != c.maxTokens {
		return nil, fmt.Errorf("embedding runtime max input length is %d, expected %d", info.MaxInputLength, c.maxTokens)
	}

	states, err := c.TokenStates(ctx, widthSampleText)
	if err != nil {
		return nil, fmt.Errorf("failed to measure embedding width: %w", err)
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return nil, fmt.Errorf("embedding runtime returned no hidden states for the width sample")
	}

	width := len(states[0])
	c.logger.Info("embedding runtime bound",
		"model_id", info.ModelID,
		"max_input_length", info.MaxInputLength,
		"width", width,
	)

	return &Embedder{client: c, width: width}, nil
}

// Embedder produces one mean-pooled vector per text at a fixed width.
type Embedder struct {
	client *Client
	width  int
}

// Embed averages the token hidden states of text. Blank text that the
// runtime refuses or tokenizes to nothing yields a zero vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	states, err := e.client.TokenStates(ctx, text)
	if err != nil {
		var rtErr *RuntimeError
		if strings.TrimSpace(text) == "" && errors.As(err, &rtErr) && rtErr.rejectsInput() {
			return make([]float64, e.width), nil
		}
		return nil, err
	}
	return MeanPool(states, e.width)
}

// Width returns the embedding dimensionality.
func (e *Embedder) Width() int {
	return e.width
}

// MeanPool averages token vectors into one vector of the given width.
func MeanPool(states [][]float64, width int) ([]float64, error) {
	out := make([]float64, width)
	if len(states) == 0 {
		return out, nil
	}
	for i, token := range states {
		if len(token) != width {
			return nil, fmt.Errorf("token %d has width %d, expected %d", i, len(token), width)
		}
		for j, v := range token {
			out[j] += v
		}
	}
	n := float64(len(states))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}
