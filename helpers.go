package nowdir

import (
	"net/url"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// siteURL is the origin the request was made to. Each directory is served
// on its own host, so canonical URLs are derived per request.
func siteURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host
}
