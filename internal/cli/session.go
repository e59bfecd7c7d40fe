package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catnipgarden/internal/progress"
)

// Session is the saved Supabase login of the CLI user.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Email        string `json:"email"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
}

// SessionStore keeps the session file under Dir, ~/.catnip when empty.
type SessionStore struct {
	Dir string
}

func (s SessionStore) path() (string, error) {
	dir := s.Dir
	if dir == "" {
		d, err := progress.DefaultDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

func (s SessionStore) Save(sess Session) error {
	path, err := s.path()
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o600)
}

func (s SessionStore) Load() (Session, error) {
	path, err := s.path()
	if err != nil {
		return Session{}, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return Session{}, err
	}
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(sess.AccessToken) == "" {
		return Session{}, fmt.Errorf("no access token found in session")
	}
	return sess, nil
}

func (s SessionStore) Clear() error {
	path, err := s.path()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}
