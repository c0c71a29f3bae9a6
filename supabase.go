package nowdir

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nowdirectories/nowdir/supabase"
)

// ServerCredentials are the public project URL and anon key. Clients built
// from them act as the visitor whose session is in the request cookies.
func (c Config) ServerCredentials() supabase.Credentials {
	return supabase.Credentials{URL: c.PublicSupabaseURL, Key: c.PublicSupabaseAnonKey}
}

// ServiceCredentials are the server-only URL and service-role key. The URL
// falls back to the public one since both name the same project.
func (c Config) ServiceCredentials() supabase.Credentials {
	u := c.SupabaseURL
	if strings.TrimSpace(u) == "" {
		u = c.PublicSupabaseURL
	}
	return supabase.Credentials{URL: u, Key: c.SupabaseServiceRoleKey}
}

// supabaseClient returns a client bound to this request's cookies.
func (a *App) supabaseClient(c echo.Context) (*supabase.Client, error) {
	opts := supabase.DefaultCookieOptions()
	opts.Secure = a.Config.CookieSecure
	client, err := supabase.NewClient(a.Config.ServerCredentials(),
		supabase.WithCookies(newEchoCookieJar(c)),
		supabase.WithCookieOptions(opts),
	)
	if err != nil {
		return nil, fmt.Errorf("nowdir: supabase server client: %w", err)
	}
	return client, nil
}

// serviceClient returns a cookie-less client with the service-role key.
func (a *App) serviceClient() (*supabase.Client, error) {
	client, err := supabase.NewClient(a.Config.ServiceCredentials())
	if err != nil {
		return nil, fmt.Errorf("nowdir: supabase service client: %w", err)
	}
	return client, nil
}

// echoCookieJar reads request cookies and writes response cookies. Writes
// are also visible to later reads within the same request.
type echoCookieJar struct {
	c       echo.Context
	pending map[string]*string // nil value: removed
}

func newEchoCookieJar(c echo.Context) *echoCookieJar {
	return &echoCookieJar{c: c, pending: make(map[string]*string)}
}

func (j *echoCookieJar) Get(name string) (string, bool) {
	if v, ok := j.pending[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	ck, err := j.c.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

func (j *echoCookieJar) Set(name, value string, opts supabase.CookieOptions) {
	j.pending[name] = &value
	j.c.SetCookie(supabase.NewCookie(name, value, opts))
}

func (j *echoCookieJar) Remove(name string, opts supabase.CookieOptions) {
	j.pending[name] = nil
	j.c.SetCookie(supabase.ExpiredCookie(name, opts))
}
