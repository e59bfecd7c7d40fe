// Package advisor asks a hosted text model for money tips.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"
	Fallback        = "I'm not sure, could you rephrase?"
)

type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a client for endpoint. An empty endpoint uses DefaultEndpoint;
// an empty apiKey makes every reply the fallback.
func New(endpoint, apiKey string, logger *slog.Logger) *Client {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(apiKey),
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type request struct {
	Contents []content `json:"contents"`
}

// Reply never fails; problems are logged and answered with Fallback.
func (c *Client) Reply(ctx context.Context, prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || c.apiKey == "" {
		return Fallback
	}
	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Warn("advisor request failed", "error", err)
		return Fallback
	}
	if strings.TrimSpace(text) == "" {
		return Fallback
	}
	return text
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(request{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", err
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("advisor endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read advisor response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("advisor status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw[:min(len(raw), 512)])))
	}
	if !gjson.ValidBytes(raw) {
		return "", fmt.Errorf("advisor response is not json")
	}
	return gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String(), nil
}
