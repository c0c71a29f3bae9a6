package analytics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15 Safari/605.1.15"

func serveRecorded(t *testing.T, rec *Recorder, path, ua string, h echo.HandlerFunc) {
	t.Helper()
	e := echo.New()
	e.GET(path, h, rec.Middleware)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", ua)
	e.ServeHTTP(httptest.NewRecorder(), req)
}

func htmlPage(c echo.Context) error {
	return c.HTML(http.StatusOK, "<p>ok</p>")
}

func views(t *testing.T, s *Store) int {
	t.Helper()
	stats, err := s.Summary(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	total := 0
	for _, st := range stats {
		total += st.Views
	}
	return total
}

func TestRecorderStoresHTMLPageViews(t *testing.T) {
	s := setupTestStore(t)
	rec := NewRecorder(s, func(echo.Context) string { return "passport" })
	defer rec.Close()

	serveRecorded(t, rec, "/", browserUA, htmlPage)

	stats, err := s.Summary(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(stats) != 1 || stats[0].DirectorySlug != "passport" || stats[0].Views != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecorderSkipsNonPages(t *testing.T) {
	s := setupTestStore(t)
	rec := NewRecorder(s, func(echo.Context) string { return "notary" })
	defer rec.Close()

	serveRecorded(t, rec, "/api/env", browserUA, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{})
	})
	serveRecorded(t, rec, "/json", browserUA, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{})
	})
	serveRecorded(t, rec, "/missing", browserUA, func(c echo.Context) error {
		return c.HTML(http.StatusNotFound, "nope")
	})
	serveRecorded(t, rec, "/", "Googlebot/2.1", htmlPage)

	if n := views(t, s); n != 0 {
		t.Errorf("views = %d, want 0", n)
	}
}

func TestRecorderRateLimitsPerIP(t *testing.T) {
	s := setupTestStore(t)
	rec := NewRecorder(s, func(echo.Context) string { return "notary" })
	defer rec.Close()

	for i := 0; i < 65; i++ {
		serveRecorded(t, rec, "/", browserUA, htmlPage)
	}
	if n := views(t, s); n != 60 {
		t.Errorf("views = %d, want 60", n)
	}
}
