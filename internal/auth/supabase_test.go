package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSupabase(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch r.URL.Path {
		case "/auth/v1/user":
			if r.Header.Get("Authorization") != "Bearer tok" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"msg":"invalid JWT"}`))
				return
			}
			w.Write([]byte(`{"id":"u1","email":"sir.purrs@example.com","user_metadata":{}}`))
		case "/auth/v1/token":
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			if r.URL.Query().Get("grant_type") == "refresh_token" {
				if in["refresh_token"] != "ref" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Write([]byte(`{"access_token":"tok2","refresh_token":"ref2","user":{"id":"u1","email":"sir.purrs@example.com"}}`))
				return
			}
			if in["password"] != "catnip" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Write([]byte(`{"access_token":"tok","refresh_token":"ref","expires_in":3600,"token_type":"bearer","user":{"id":"u1","email":"sir.purrs@example.com"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSupabaseVerify(t *testing.T) {
	srv := fakeSupabase(t)
	c := NewSupabaseClient(srv.URL+"/", "anon")

	id, err := c.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, Identity{Authenticated: true, DisplayName: "Sir Purrs", UserID: "u1", Email: "sir.purrs@example.com"}, id)

	_, err = c.Verify(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSupabaseLogin(t *testing.T) {
	srv := fakeSupabase(t)
	c := NewSupabaseClient(srv.URL, "anon")

	s, err := c.Login(context.Background(), "sir.purrs@example.com", "catnip")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, "u1", s.User.ID)

	_, err = c.Login(context.Background(), "sir.purrs@example.com", "dog")
	assert.ErrorContains(t, err, "status 400")
}

func TestSupabaseRefresh(t *testing.T) {
	srv := fakeSupabase(t)
	c := NewSupabaseClient(srv.URL, "anon")

	s, err := c.Refresh(context.Background(), "ref")
	require.NoError(t, err)
	assert.Equal(t, "tok2", s.AccessToken)
	assert.Equal(t, "ref2", s.RefreshToken)

	_, err = c.Refresh(context.Background(), "stale")
	assert.ErrorContains(t, err, "refresh_token grant")

	_, err = c.Refresh(context.Background(), " ")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSupabaseVerifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	_, err := NewSupabaseClient(srv.URL, "anon").Verify(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
