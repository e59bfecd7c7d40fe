// Package auth resolves who is playing. Without a configured provider every
// caller is a guest.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnauthenticated = errors.New("not authenticated")

type Identity struct {
	Authenticated bool   `json:"authenticated"`
	DisplayName   string `json:"display_name"`
	UserID        string `json:"user_id,omitempty"`
	Email         string `json:"email,omitempty"`
}

// Guest is the identity of an anonymous player.
var Guest = Identity{DisplayName: "Guest"}

type Verifier interface {
	Verify(ctx context.Context, accessToken string) (Identity, error)
}

func IdentityFor(user SupabaseUser) Identity {
	raw := user.Metadata.Name
	if raw == "" {
		raw = user.Metadata.FullName
	}
	if raw == "" {
		raw = user.Metadata.Nickname
	}
	return Identity{
		Authenticated: true,
		DisplayName:   DisplayName(raw, user.Email),
		UserID:        user.ID,
		Email:         user.Email,
	}
}

var separators = regexp.MustCompile(`[._-]+`)

// prettify turns "long.vu_wee" into "Long Vu Wee". Casers hold state, so
// each call builds its own.
func prettify(s string) string {
	return cases.Title(language.English, cases.NoLower).String(separators.ReplaceAllString(s, " "))
}

// DisplayName prefers a profile name unless it looks like an email, then the
// local part of email, then "User".
func DisplayName(name, email string) string {
	name = strings.TrimSpace(name)
	if name != "" && !strings.Contains(name, "@") {
		return prettify(name)
	}
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	if local == "" {
		local = "User"
	}
	return prettify(local)
}

type contextKey string

const identityContextKey contextKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// FromContext returns the caller's identity, Guest when none was attached.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityContextKey).(Identity); ok {
		return id
	}
	return Guest
}

// Middleware requires a valid bearer token when v is set. With a nil
// verifier it tags every request as Guest. onError writes the rejection.
func Middleware(v Verifier, onError func(w http.ResponseWriter, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Guest)))
				return
			}
			token := BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				onError(w, fmt.Errorf("missing bearer token: %w", ErrUnauthenticated))
				return
			}
			id, err := v.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					err = fmt.Errorf("%w: %v", ErrUnauthenticated, err)
				}
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
