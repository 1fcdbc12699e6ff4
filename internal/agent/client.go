// Package agent calls the hosted recipe search agent and the image
// extraction endpoint, and turns agent output into recipes.
package agent

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

	"go.uber.org/zap"

	"github.com/pageza/souschef/backend/config"
	"github.com/pageza/souschef/backend/internal/metrics"
)

// ErrNotConfigured is returned when the agent URL is missing
var ErrNotConfigured = errors.New("search agent is not configured")

const maxResponseBytes = 2 << 20

// Client talks to the search agent over HTTP
type Client struct {
	url      string
	apiKey   string
	imageURL string
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a new agent client
func NewClient(cfg config.AgentConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		imageURL: cfg.ImageExtractionURL,
		http:     &http.Client{Timeout: timeout},
		log:      log.Named("agent"),
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search sends a natural language query and returns the agent's raw answer.
// The agent replies either with plain text or a JSON envelope carrying the
// text in "response", "output" or "message".
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.url == "" {
		return "", ErrNotConfigured
	}
	start := time.Now()
	body, err := c.post(ctx, c.url, searchRequest{Query: query})
	observe("search", start, err)
	if err != nil {
		return "", err
	}
	return unwrapEnvelope(body), nil
}

type imageRequest struct {
	URL string `json:"url"`
}

type imageResponse struct {
	ImageURL string `json:"image_url"`
	Image    string `json:"image"`
}

// ExtractImage asks the extraction endpoint for the hero image of a recipe page
func (c *Client) ExtractImage(ctx context.Context, pageURL string) (string, error) {
	if c.imageURL == "" {
		return "", ErrNotConfigured
	}
	start := time.Now()
	body, err := c.post(ctx, c.imageURL, imageRequest{URL: pageURL})
	observe("extract_image", start, err)
	if err != nil {
		return "", err
	}

	var resp imageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if resp.ImageURL != "" {
		return resp.ImageURL, nil
	}
	return resp.Image, nil
}

func (c *Client) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func unwrapEnvelope(body []byte) string {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range []string{"response", "output", "message"} {
			raw, ok := envelope[key]
			if !ok {
				continue
			}
			var text string
			if err := json.Unmarshal(raw, &text); err == nil {
				return text
			}
			return string(raw)
		}
	}
	return string(body)
}

func observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.ExternalRequestsTotal.WithLabelValues("agent", op, outcome).Inc()
	metrics.ExternalRequestDuration.WithLabelValues("agent", op).Observe(time.Since(start).Seconds())
}
