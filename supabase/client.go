// Package supabase is a small data-access client for a Supabase project's
// REST (PostgREST) API, with the auth session persisted in request cookies.
package supabase

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"
)

// ErrMissingCredentials is returned when a client is built without a project
// URL or API key. It is a configuration error and is never retried.
var ErrMissingCredentials = errors.New("supabase: project URL and API key are required")

// Credentials identify a Supabase project.
type Credentials struct {
	URL string
	Key string
}

// Validate reports ErrMissingCredentials when either value is blank.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.URL) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(c.Key) == "" {
		missing = append(missing, "key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (missing %s)", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Client talks to one Supabase project on behalf of one request.
type Client struct {
	baseURL    *url.URL
	key        string
	timeout    time.Duration
	cookies    CookieJar
	cookieOpts CookieOptions
	storageKey string
}

// Option configures a Client.
type Option func(*Client)

// WithCookies binds the client to a request's cookies so the auth session is
// read from and written to them.
func WithCookies(jar CookieJar) Option {
	return func(c *Client) {
		c.cookies = jar
	}
}

// WithTimeout bounds each query. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithCookieOptions sets the attributes of session cookies written by the client.
func WithCookieOptions(opts CookieOptions) Option {
	return func(c *Client) {
		c.cookieOpts = opts
	}
}

const defaultTimeout = 10 * time.Second

// NewClient validates creds and returns a client. It fails fast with
// ErrMissingCredentials rather than deferring the error to the first query.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(creds.URL), "/"))
	if err != nil {
		return nil, fmt.Errorf("supabase: parse project url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("supabase: project url %q must be http(s)", creds.URL)
	}
	c := &Client{
		baseURL:    u,
		key:        strings.TrimSpace(creds.Key),
		timeout:    defaultTimeout,
		cookieOpts: DefaultCookieOptions(),
		storageKey: StorageKey(u),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// StorageKey returns the cookie name holding the auth session for a project:
// "sb-<project-ref>-auth-token", where the ref is the first host label.
func StorageKey(projectURL *url.URL) string {
	ref, _, _ := strings.Cut(projectURL.Hostname(), ".")
	return "sb-" + ref + "-auth-token"
}

// From starts a query against a table or view.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// rest returns a PostgREST client carrying the API key and the current
// bearer token.
func (c *Client) rest() *postgrest.Client {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/rest/v1"
	return postgrest.NewClient(u.String(), "public", map[string]string{
		"apikey":        c.key,
		"Authorization": "Bearer " + c.bearerToken(),
	})
}

// bearerToken is the session's access token when the request carries an
// unexpired one, otherwise the API key itself.
func (c *Client) bearerToken() string {
	if s, err := c.Session(); err == nil && s != nil && s.AccessToken != "" && !s.Expired(time.Now()) {
		return s.AccessToken
	}
	return c.key
}
