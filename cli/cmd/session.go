// ABOUTME: Local session file for shopauth-cli
// ABOUTME: Persists the proxy's session cookies between invocations

package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// sessionFile holds the proxy's session cookies by name. It is the CLI's
// stand-in for a browser cookie jar.
type sessionFile struct {
	Cookies map[string]string `json:"cookies"`
}

// sessionPath returns the session file location, honoring
// SHOPAUTH_SESSION_FILE for tests and scripted use.
func sessionPath() (string, error) {
	if p := os.Getenv("SHOPAUTH_SESSION_FILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".shopauth", "session.json"), nil
}

func loadSession() (*sessionFile, error) {
	path, err := sessionPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &sessionFile{Cookies: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var s sessionFile
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if s.Cookies == nil {
		s.Cookies = map[string]string{}
	}
	return &s, nil
}

func (s *sessionFile) save() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	// Cookies include the refresh token, so keep the file private.
	return os.WriteFile(path, data, 0o600)
}

func clearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// apply attaches the stored cookies to an outgoing request.
func (s *sessionFile) apply(req *http.Request) {
	for name, value := range s.Cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

// capture records Set-Cookie headers from a proxy response. Cookies with
// MaxAge < 0 are deletions.
func (s *sessionFile) capture(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 {
			delete(s.Cookies, ck.Name)
			continue
		}
		s.Cookies[ck.Name] = ck.Value
	}
}
