package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"catnipgarden/internal/auth"
	"catnipgarden/internal/game"
	"catnipgarden/internal/progress"
)

// Client reads a remote garden API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type GameCard struct {
	game.Info
	Completed int  `json:"completed"`
	Earned    bool `json:"badge_earned"`
}

func (c *Client) Games(ctx context.Context) ([]GameCard, error) {
	var out struct {
		Games []GameCard `json:"games"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/games", nil, &out)
	return out.Games, err
}

func (c *Client) Progress(ctx context.Context) (progress.UserProgress, error) {
	var raw json.RawMessage
	if err := c.jsonRequest(ctx, http.MethodGet, "/v1/progress", nil, &raw); err != nil {
		return progress.UserProgress{}, err
	}
	p, _ := progress.Decode(raw)
	return p, nil
}

func (c *Client) Me(ctx context.Context) (auth.Identity, error) {
	var out auth.Identity
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/me", nil, &out)
	return out, err
}

func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/advisor", map[string]string{"prompt": prompt}, &out)
	return out.Reply, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
