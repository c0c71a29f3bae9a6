package nowdir

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nowdirectories/nowdir/views"
)

const listingColumns = "id,directory_slug,name,description,address,city,state,phone,website,rating,review_count,booking_url"

func (a *App) handleHome(c echo.Context) error {
	cfg := a.directoryConfig(c)
	client, err := a.supabaseClient(c)
	if err != nil {
		return err
	}
	var city string
	if cfg.Features.Search {
		city = strings.TrimSpace(c.QueryParam("city"))
	}
	q := client.From("listings").Select(listingColumns).Eq("directory_slug", cfg.Slug)
	if city != "" {
		q = q.Eq("city", city)
	}
	var listings []views.Listing
	if err := q.Order("name", true).Limit(100).Execute(c.Request().Context(), &listings); err != nil {
		return fmt.Errorf("list %s listings: %w", cfg.Slug, err)
	}
	return Render(c, views.Home(cfg, listings, city, siteURL(c)))
}

func (a *App) handleListing(c echo.Context) error {
	cfg := a.directoryConfig(c)
	client, err := a.supabaseClient(c)
	if err != nil {
		return err
	}
	var rows []views.Listing
	err = client.From("listings").
		Select(listingColumns).
		Eq("id", c.Param("id")).
		Eq("directory_slug", cfg.Slug).
		Limit(1).
		Execute(c.Request().Context(), &rows)
	if err != nil {
		return fmt.Errorf("get %s listing: %w", cfg.Slug, err)
	}
	if len(rows) == 0 {
		return RenderStatus(c, http.StatusNotFound, views.NotFound(cfg))
	}
	return Render(c, views.ListingPage(cfg, rows[0], siteURL(c)))
}

// handleRobots points crawlers at the requesting directory's own sitemap.
func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", siteURL(c))
	return c.String(http.StatusOK, body)
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	cfg := a.directoryConfig(c)
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error [%s]: %v", cfg.Slug, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if !ok {
			// Internal details stay in the log, debug mode included.
			_ = c.JSON(code, map[string]string{"message": http.StatusText(code)})
			return
		}
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	switch {
	case code == http.StatusNotFound:
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(cfg))
	case code >= 500:
		_ = RenderStatus(c, code, views.ServerError(cfg))
	default:
		a.Echo.DefaultHTTPErrorHandler(err, c)
	}
}
