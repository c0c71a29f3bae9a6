package nowdir

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapRow struct {
	ID        string `json:"id"`
	UpdatedAt string `json:"updated_at"`
}

// handleSitemap lists the home page and every listing of the requesting
// directory. Listings are read with the service client so the sitemap does
// not depend on the visitor's session.
func (a *App) handleSitemap(c echo.Context) error {
	cfg := a.directoryConfig(c)
	client, err := a.serviceClient()
	if err != nil {
		return err
	}
	var rows []sitemapRow
	err = client.From("listings").
		Select("id,updated_at").
		Eq("directory_slug", cfg.Slug).
		Order("id", true).
		Limit(50000).
		Execute(c.Request().Context(), &rows)
	if err != nil {
		return fmt.Errorf("sitemap %s: %w", cfg.Slug, err)
	}
	return renderSitemap(c, siteURL(c), rows)
}

func renderSitemap(c echo.Context, base string, rows []sitemapRow) error {
	urls := make([]sitemapURL, 0, len(rows)+1)
	urls = append(urls, sitemapURL{Loc: BuildURL(base)})
	for _, r := range rows {
		lastMod := r.UpdatedAt
		if len(lastMod) > 10 {
			lastMod = lastMod[:10] // YYYY-MM-DD
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "listings", r.ID),
			LastMod: lastMod,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
