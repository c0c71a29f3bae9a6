package nowdir

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nowdirectories/nowdir/directory"
)

const ctxKeyDirectory = "nowdir.directory"

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	// Redirect before the directory middleware strips any development
	// prefix, so the Location keeps it.
	e.Pre(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return strings.Contains(p, "/api/") ||
				strings.Contains(p, "/public/") ||
				strings.HasSuffix(p, "/healthz") ||
				strings.Contains(path.Base(p), ".")
		},
	}))
	e.Pre(a.directoryMiddleware)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s) [%s]", v.Method, v.URI, v.Status, v.Latency, a.directorySlug(c))
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'; connect-src 'self'; form-action 'self'",
		HSTSMaxAge:            31536000,
		HSTSExcludeSubdomains: false,
	}))

	e.Use(cacheControlMiddleware)

	if a.recorder != nil {
		e.Use(a.recorder.Middleware)
	}
}

// directoryMiddleware resolves the request's directory before routing. It
// rewrites development path prefixes away and overwrites the slug header
// with the resolved value, so handlers never see an untrusted one.
func (a *App) directoryMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		res := a.Resolver.Resolve(directory.RequestInfo{
			Host:     req.Host,
			Path:     req.URL.Path,
			Override: req.Header.Get(directory.HeaderSlug),
		})
		if res.Path != req.URL.Path {
			req.URL.Path = res.Path
			req.URL.RawPath = ""
		}
		req.Header.Set(directory.HeaderSlug, res.Slug)
		c.Set(ctxKeyDirectory, a.Directories.Config(res.Slug))
		return next(c)
	}
}

// directoryConfig returns the config resolved for c, or the fallback config when
// the directory middleware has not run.
func (a *App) directoryConfig(c echo.Context) directory.DirectoryConfig {
	if cfg, ok := c.Get(ctxKeyDirectory).(directory.DirectoryConfig); ok {
		return cfg
	}
	return a.Directories.Fallback()
}

func (a *App) directorySlug(c echo.Context) string {
	return a.directoryConfig(c).Slug
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		p := c.Request().URL.Path
		switch {
		case strings.HasPrefix(p, "/public/"):
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case p == "/sitemap.xml" || p == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=86400")
		case strings.HasPrefix(p, "/api/") || p == "/healthz":
			h.Set("Cache-Control", "no-store")
		case hasSessionCookie(c.Request()):
			// Rendered with the visitor's own access token.
			h.Set("Cache-Control", "private, no-cache")
		default:
			h.Set("Cache-Control", "public, max-age=300")
		}
		// One URL serves a different site per host, and a different page per
		// session.
		h.Add("Vary", "Host")
		h.Add("Vary", "Cookie")
		return next(c)
	}
}

// hasSessionCookie reports whether req carries a Supabase auth cookie,
// chunked or not.
func hasSessionCookie(req *http.Request) bool {
	for _, ck := range req.Cookies() {
		name, _, _ := strings.Cut(ck.Name, ".")
		if strings.HasPrefix(name, "sb-") && strings.HasSuffix(name, "-auth-token") {
			return true
		}
	}
	return false
}
