package analytics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Recorder stores page views for successful HTML GET requests.
type Recorder struct {
	store    *Store
	limiter  *rateLimiter
	slugFunc func(echo.Context) string // directory the request was served for
	skip     func(path string) bool
}

// NewRecorder creates a Recorder. Each IP may record 60 views per minute;
// views beyond that are served but not stored.
func NewRecorder(store *Store, slugFunc func(echo.Context) string) *Recorder {
	return &Recorder{
		store:    store,
		limiter:  newRateLimiter(60, time.Minute),
		slugFunc: slugFunc,
		skip: func(path string) bool {
			return strings.HasPrefix(path, "/api/") ||
				strings.HasPrefix(path, "/public/") ||
				path == "/healthz" || path == "/robots.txt" || path == "/sitemap.xml" || path == "/favicon.svg"
		},
	}
}

// Close stops the limiter's background cleanup.
func (r *Recorder) Close() {
	r.limiter.stop()
}

// Middleware records a visit after the handler has written a 200 HTML page.
func (r *Recorder) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		req := c.Request()
		if err != nil || req.Method != http.MethodGet || r.skip(req.URL.Path) {
			return err
		}
		res := c.Response()
		if res.Status != http.StatusOK || !strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMETextHTML) {
			return nil
		}
		if req.Header.Get("DNT") == "1" || IsBot(req.UserAgent()) {
			return nil
		}
		ip := c.RealIP()
		if !r.limiter.allow(ip) {
			return nil
		}
		v := Visit{
			DirectorySlug: r.slugFunc(c),
			Path:          req.URL.Path,
			VisitorID:     r.store.VisitorID(ip, req.UserAgent()),
			Referrer:      CleanReferrer(req.Referer(), req.Host),
			Device:        DeviceType(req.UserAgent()),
			Timestamp:     time.Now(),
		}
		// The response is already written; a slow or failed insert must not
		// affect it.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(req.Context()), 2*time.Second)
		defer cancel()
		if saveErr := r.store.SaveVisit(ctx, v); saveErr != nil {
			c.Logger().Errorf("analytics: %v", saveErr)
		}
		return nil
	}
}
