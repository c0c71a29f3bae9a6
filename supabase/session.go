package supabase

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// sessionPrefix marks a base64url-encoded session cookie value.
const sessionPrefix = "base64-"

// ErrNoCookies is returned by session operations on a client built without
// WithCookies.
var ErrNoCookies = errors.New("supabase: client has no cookie jar")

// Session is the auth session persisted in the request cookies.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresAt    int64  `json:"expires_at,omitempty"` // unix seconds
	User         *User  `json:"user,omitempty"`
}

// User is the subset of the auth user the platform reads.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Expired reports whether the access token has expired at now. Sessions
// without an expiry never expire.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// Session returns the session stored in the request cookies, or nil when
// there is none. A value split across "<key>.0", "<key>.1", ... is
// reassembled.
func (c *Client) Session() (*Session, error) {
	if c.cookies == nil {
		return nil, ErrNoCookies
	}
	raw, ok := c.cookies.Get(c.storageKey)
	if !ok || raw == "" {
		var b strings.Builder
		for i := 0; ; i++ {
			part, ok := c.cookies.Get(chunkName(c.storageKey, i))
			if !ok {
				break
			}
			b.WriteString(part)
		}
		raw = b.String()
	}
	if raw == "" {
		return nil, nil
	}
	return decodeSession(raw)
}

// SetSession writes s into the response cookies, chunked when the encoded
// value exceeds maxChunkSize. Cookies left over from a previous layout are
// removed.
func (c *Client) SetSession(s Session) error {
	if c.cookies == nil {
		return ErrNoCookies
	}
	v, err := encodeSession(s)
	if err != nil {
		return err
	}
	chunks := splitChunks(v, maxChunkSize)
	if len(chunks) == 1 {
		c.cookies.Set(c.storageKey, v, c.cookieOpts)
		c.removeChunks(0)
		return nil
	}
	for i, part := range chunks {
		c.cookies.Set(chunkName(c.storageKey, i), part, c.cookieOpts)
	}
	c.removeChunks(len(chunks))
	if _, ok := c.cookies.Get(c.storageKey); ok {
		c.cookies.Remove(c.storageKey, c.cookieOpts)
	}
	return nil
}

// ClearSession removes the session cookie and any chunks of it.
func (c *Client) ClearSession() error {
	if c.cookies == nil {
		return ErrNoCookies
	}
	c.cookies.Remove(c.storageKey, c.cookieOpts)
	c.removeChunks(0)
	return nil
}

// maxChunkSize keeps each cookie, name and attributes included, under the
// 4096-byte browser limit.
const maxChunkSize = 3180

func chunkName(key string, i int) string {
	return key + "." + strconv.Itoa(i)
}

// removeChunks removes chunk cookies from index from upwards, stopping at the
// first one the request does not carry.
func (c *Client) removeChunks(from int) {
	for i := from; ; i++ {
		name := chunkName(c.storageKey, i)
		if _, ok := c.cookies.Get(name); !ok {
			return
		}
		c.cookies.Remove(name, c.cookieOpts)
	}
}

func splitChunks(v string, size int) []string {
	if len(v) <= size {
		return []string{v}
	}
	var out []string
	for len(v) > size {
		out = append(out, v[:size])
		v = v[size:]
	}
	if v != "" {
		out = append(out, v)
	}
	return out
}

// StorageKey returns the name of the session cookie for this client's project.
func (c *Client) StorageKey() string {
	return c.storageKey
}

func encodeSession(s Session) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("supabase: encode session: %w", err)
	}
	return sessionPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// decodeSession accepts both the prefixed base64url form and plain JSON.
func decodeSession(raw string) (*Session, error) {
	data := []byte(raw)
	if rest, ok := strings.CutPrefix(raw, sessionPrefix); ok {
		b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(rest, "="))
		if err != nil {
			return nil, fmt.Errorf("supabase: decode session cookie: %w", err)
		}
		data = b
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("supabase: decode session cookie: %w", err)
	}
	return &s, nil
}
