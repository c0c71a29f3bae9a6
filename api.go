package nowdir

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nowdirectories/nowdir/directory"
)

const unknown = "unknown"

type debugDirectoryResponse struct {
	DirectorySlug string `json:"directorySlug"`
	ThemeName     string `json:"themeName"`
	PrimaryColor  string `json:"primaryColor"`
	Title         string `json:"title"`
}

// handleDebugDirectory echoes the slug carried in the request header and a
// subset of its config. Missing values read "unknown".
func (a *App) handleDebugDirectory(c echo.Context) error {
	resp := debugDirectoryResponse{
		DirectorySlug: unknown,
		ThemeName:     unknown,
		PrimaryColor:  unknown,
		Title:         unknown,
	}
	slug := strings.TrimSpace(c.Request().Header.Get(directory.HeaderSlug))
	if slug != "" {
		resp.DirectorySlug = slug
		if cfg, ok := a.Directories.Lookup(slug); ok {
			resp.ThemeName = orUnknown(cfg.Theme.Name)
			resp.PrimaryColor = orUnknown(cfg.Theme.Colors.Primary)
			resp.Title = orUnknown(cfg.Title)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

// handleEnv exposes the public Supabase values, the default slug and every
// PUBLIC_-prefixed environment variable. Nothing else is ever included.
func (a *App) handleEnv(c echo.Context) error {
	out := map[string]string{
		"PUBLIC_SUPABASE_URL":      a.Config.PublicSupabaseURL,
		"PUBLIC_SUPABASE_ANON_KEY": a.Config.PublicSupabaseAnonKey,
		"DEFAULT_DIRECTORY_SLUG":   a.Config.DefaultDirectorySlug,
	}
	for _, kv := range a.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, PublicEnvPrefix) {
			continue
		}
		out[k] = v
	}
	return c.JSON(http.StatusOK, out)
}

// handleStats reports per-directory views for the last 30 days.
func (a *App) handleStats(c echo.Context) error {
	if a.Analytics == nil {
		return c.JSON(http.StatusOK, map[string]any{"enabled": false})
	}
	stats, err := a.Analytics.Summary(c.Request().Context(), time.Now().AddDate(0, 0, -30))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"enabled": true, "directories": stats})
}
