package affinity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CookieMaxAge is the lifetime of the fallback token.
const CookieMaxAge = 365 * 24 * time.Hour

// CookieBackend is the small fallback token: one Set-Cookie line on disk,
// path scoped to "/" and expiring after CookieMaxAge.
type CookieBackend struct {
	path string
	now  func() time.Time
}

func NewCookieBackend(path string) *CookieBackend {
	return &CookieBackend{path: path, now: time.Now}
}

func (c *CookieBackend) Name() string { return "cookie" }

func (c *CookieBackend) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read cookie file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	if line == "" {
		return "", ErrNotFound
	}
	cookie, err := http.ParseSetCookie(line)
	if err != nil {
		return "", fmt.Errorf("failed to parse cookie: %w", err)
	}
	if cookie.Name != Key {
		return "", ErrNotFound
	}
	if !cookie.Expires.IsZero() && !c.now().Before(cookie.Expires) {
		return "", ErrNotFound
	}
	return cookie.Value, nil
}

func (c *CookieBackend) Save(_ context.Context, value string) error {
	cookie := &http.Cookie{
		Name:    Key,
		Value:   value,
		Path:    "/",
		MaxAge:  int(CookieMaxAge / time.Second),
		Expires: c.now().Add(CookieMaxAge).UTC(),
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(cookie.String()+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write cookie: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace cookie: %w", err)
	}
	return nil
}
