package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/nowdirectories/nowdir/directory"
)

// Layout wraps body in the HTML document shell for cfg.
func Layout(cfg directory.DirectoryConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := meta.Title
		if title == "" {
			title = cfg.Title
		} else if title != cfg.Title {
			title = meta.Title + " | " + cfg.Title
		}
		description := meta.Description
		if description == "" {
			description = cfg.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<title>`).text(title).raw(`</title>`)
		p.raw(`<meta name="description" content="`).text(description).raw(`">`)
		p.raw(`<meta property="og:title" content="`).text(title).raw(`">`)
		p.raw(`<meta property="og:type" content="`).text(ogType).raw(`">`)
		if meta.URL != "" {
			p.raw(`<link rel="canonical" href="`).text(meta.URL).raw(`">`)
			p.raw(`<meta property="og:url" content="`).text(meta.URL).raw(`">`)
		}
		p.raw(`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		p.raw(`<link rel="stylesheet" href="/public/styles.css">`)
		p.raw(`<style>`).raw(ThemeCSS(cfg)).raw(`</style>`)
		p.raw(`</head><body class="theme-`).text(cfg.Theme.Name).raw(`">`)
		p.raw(`<header class="site-header"><a class="brand" href="/">`).text(cfg.Title).raw(`</a>`)
		if cfg.Tagline != "" {
			p.raw(`<p class="tagline">`).text(cfg.Tagline).raw(`</p>`)
		}
		p.raw(`</header><main>`)
		if p.err != nil {
			return p.err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		p.raw(`</main><footer class="site-footer">`)
		if cfg.ParentSiteURL != "" {
			p.raw(`<a href="`).url(cfg.ParentSiteURL).raw(`">Part of Now Directories</a>`)
		}
		p.raw(`</footer></body></html>`)
		return p.err
	})
}

// ThemeCSS renders the directory palette and typography as CSS custom properties.
func ThemeCSS(cfg directory.DirectoryConfig) string {
	c := cfg.Theme.Colors
	vars := []struct{ name, value string }{
		{"--color-primary", c.Primary},
		{"--color-secondary", c.Secondary},
		{"--color-accent", c.Accent},
		{"--color-primary-text", c.PrimaryText},
		{"--color-secondary-text", c.SecondaryText},
		{"--color-accent-text", c.AccentText},
		{"--color-background", c.Background},
		{"--color-text", c.Text},
		{"--font-body", cfg.Typography.FontFamily},
		{"--font-heading", cfg.Typography.HeadingFontFamily},
		{"--font-size-base", cfg.Typography.BaseSize},
	}
	var b strings.Builder
	b.WriteString(":root{")
	for _, v := range vars {
		fmt.Fprintf(&b, "%s:%s;", v.name, cssValue(v.value))
	}
	b.WriteString("}")
	return b.String()
}

// cssValue passes through colors, lengths and font stacks. Anything that
// could close the declaration or the style element becomes "inherit".
func cssValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "inherit"
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("#,.()%- '\"", r):
		default:
			return "inherit"
		}
	}
	return v
}

// printer writes HTML fragments, remembering the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(s string) *printer {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
	return p
}

func (p *printer) text(s string) *printer {
	return p.raw(templ.EscapeString(s))
}

// url writes an attribute-safe URL; non-http(s) schemes are replaced.
func (p *printer) url(s string) *printer {
	return p.text(safeURL(s))
}

func safeURL(s string) string {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return "about:invalid"
	}
	switch u.Scheme {
	case "", "http", "https", "tel", "mailto":
		return u.String()
	}
	return "about:invalid"
}
