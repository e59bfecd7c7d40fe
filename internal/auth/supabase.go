package auth

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
)

// SupabaseClient talks to the GoTrue endpoints of a Supabase project.
type SupabaseClient struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// Session is a token grant returned by login or refresh.
type Session struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"`
	TokenType    string       `json:"token_type"`
	User         SupabaseUser `json:"user"`
}

type SupabaseUser struct {
	ID       string       `json:"id"`
	Email    string       `json:"email"`
	Metadata UserMetadata `json:"user_metadata"`
}

// UserMetadata holds the profile fields a display name can come from.
type UserMetadata struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Nickname string `json:"nickname"`
}

func NewSupabaseClient(baseURL, anonKey string) *SupabaseClient {
	return &SupabaseClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		anonKey:    strings.TrimSpace(anonKey),
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Login exchanges email and password for a session.
func (c *SupabaseClient) Login(ctx context.Context, email, password string) (Session, error) {
	return c.grant(ctx, "password", map[string]string{"email": email, "password": password})
}

// Refresh trades a refresh token for a new session.
func (c *SupabaseClient) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return Session{}, fmt.Errorf("no refresh token: %w", ErrUnauthenticated)
	}
	return c.grant(ctx, "refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *SupabaseClient) grant(ctx context.Context, kind string, payload map[string]string) (Session, error) {
	var out Session
	if err := c.call(ctx, http.MethodPost, "/auth/v1/token?grant_type="+kind, "", payload, &out); err != nil {
		return Session{}, fmt.Errorf("%s grant: %w", kind, err)
	}
	if out.AccessToken == "" {
		return Session{}, fmt.Errorf("%s grant returned no access token", kind)
	}
	return out, nil
}

// Verify resolves an access token to the identity it belongs to.
func (c *SupabaseClient) Verify(ctx context.Context, accessToken string) (Identity, error) {
	user, err := c.VerifyAccessToken(ctx, accessToken)
	if err != nil {
		return Identity{}, err
	}
	return IdentityFor(user), nil
}

// VerifyAccessToken asks GoTrue who owns accessToken. Rejected tokens wrap
// ErrUnauthenticated; transport failures do not.
func (c *SupabaseClient) VerifyAccessToken(ctx context.Context, accessToken string) (SupabaseUser, error) {
	var user SupabaseUser
	if err := c.call(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		var se *supabaseError
		if errors.As(err, &se) && se.status < http.StatusInternalServerError {
			return SupabaseUser{}, fmt.Errorf("verify token: %w: %w", err, ErrUnauthenticated)
		}
		return SupabaseUser{}, fmt.Errorf("verify token: %w", err)
	}
	if user.ID == "" {
		return SupabaseUser{}, fmt.Errorf("token has no user: %w", ErrUnauthenticated)
	}
	return user, nil
}

type supabaseError struct {
	status int
	body   string
}

func (e *supabaseError) Error() string {
	return fmt.Sprintf("supabase status %d: %s", e.status, e.body)
}

// call sends one request. Any status other than 200 comes back as a
// *supabaseError.
func (c *SupabaseClient) call(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &supabaseError{status: resp.StatusCode, body: strings.TrimSpace(string(b))}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
