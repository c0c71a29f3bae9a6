package supabase

import (
	"net/http"

	"github.com/gorilla/sessions"
)

// CookieOptions are the attributes applied when setting or removing a cookie.
type CookieOptions = sessions.Options

// CookieJar is a per-request view over HTTP cookies. Implementations must not
// be shared between requests.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, opts CookieOptions)
	Remove(name string, opts CookieOptions)
}

// DefaultCookieOptions matches the lifetime of a Supabase refresh session.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewCookie builds the http.Cookie a jar should write for name/value.
func NewCookie(name, value string, opts CookieOptions) *http.Cookie {
	return sessions.NewCookie(name, value, &opts)
}

// ExpiredCookie builds a cookie that deletes name in the browser.
func ExpiredCookie(name string, opts CookieOptions) *http.Cookie {
	opts.MaxAge = -1
	return sessions.NewCookie(name, "", &opts)
}

// MemoryJar is a CookieJar backed by a map. It records writes so callers can
// inspect what would have been sent. The zero value is an empty jar.
type MemoryJar struct {
	values  map[string]string
	Written []*http.Cookie
}

// NewMemoryJar returns a jar seeded with values.
func NewMemoryJar(values map[string]string) *MemoryJar {
	j := &MemoryJar{values: make(map[string]string, len(values))}
	for k, v := range values {
		j.values[k] = v
	}
	return j
}

func (j *MemoryJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *MemoryJar) Set(name, value string, opts CookieOptions) {
	if j.values == nil {
		j.values = make(map[string]string)
	}
	j.values[name] = value
	j.Written = append(j.Written, NewCookie(name, value, opts))
}

func (j *MemoryJar) Remove(name string, opts CookieOptions) {
	delete(j.values, name)
	j.Written = append(j.Written, ExpiredCookie(name, opts))
}
