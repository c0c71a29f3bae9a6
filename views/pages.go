package views

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"github.com/nowdirectories/nowdir/directory"
)

// Home lists a directory's businesses. city is the active search filter.
func Home(cfg directory.DirectoryConfig, listings []Listing, city, siteURL string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="hero"><h1>`).text(cfg.Title).raw(`</h1>`)
		if cfg.Description != "" {
			p.raw(`<p>`).text(cfg.Description).raw(`</p>`)
		}
		p.raw(`</section>`)
		if cfg.Features.Search {
			p.raw(`<form class="search" method="get" action="/"><label for="city">City</label>`)
			p.raw(`<input id="city" name="city" type="search" value="`).text(city).raw(`">`)
			p.raw(`<button type="submit">Search</button></form>`)
		}
		if len(listings) == 0 {
			p.raw(`<p class="empty">No listings found`)
			if city != "" {
				p.raw(` in `).text(city)
			}
			p.raw(`.</p>`)
			return p.err
		}
		p.raw(`<ul class="listings">`)
		for _, l := range listings {
			p.raw(`<li class="listing-card"><a href="/listings/`).text(url.PathEscape(l.ID)).raw(`/"><h2>`).text(l.Name).raw(`</h2></a>`)
			if loc := l.Location(); loc != "" {
				p.raw(`<p class="location">`).text(loc).raw(`</p>`)
			}
			if cfg.Features.Reviews && l.ReviewCount > 0 {
				writeRating(p, l)
			}
			p.raw(`</li>`)
		}
		p.raw(`</ul>`)
		return p.err
	})
	return Layout(cfg, PageMeta{URL: siteURL + "/"}, body)
}

// ListingPage shows a single business.
func ListingPage(cfg directory.DirectoryConfig, l Listing, siteURL string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<article class="listing"><h1>`).text(l.Name).raw(`</h1>`)
		if loc := l.Location(); loc != "" || l.Address != "" {
			p.raw(`<p class="address">`)
			if l.Address != "" {
				p.text(l.Address).raw(`<br>`)
			}
			p.text(loc).raw(`</p>`)
		}
		if cfg.Features.Reviews && l.ReviewCount > 0 {
			writeRating(p, l)
		}
		if l.Description != "" {
			p.raw(`<p class="description">`).text(l.Description).raw(`</p>`)
		}
		p.raw(`<ul class="contact">`)
		if l.Phone != "" {
			p.raw(`<li><a href="tel:`).text(l.Phone).raw(`">`).text(l.Phone).raw(`</a></li>`)
		}
		if l.Website != "" {
			p.raw(`<li><a rel="nofollow noopener" href="`).url(l.Website).raw(`">Website</a></li>`)
		}
		p.raw(`</ul>`)
		if cfg.Features.Booking && l.BookingURL != "" {
			p.raw(`<a class="button booking" href="`).url(l.BookingURL).raw(`">Book now</a>`)
		}
		if cfg.Features.Map && l.Address != "" {
			q := url.QueryEscape(l.Address + " " + l.Location())
			p.raw(`<a class="map-link" href="https://www.google.com/maps/search/?api=1&amp;query=`).text(q).raw(`">View on map</a>`)
		}
		p.raw(`<p><a href="/">&larr; All listings</a></p></article>`)
		return p.err
	})
	meta := PageMeta{
		Title:       l.Name,
		Description: l.Description,
		URL:         siteURL + "/listings/" + url.PathEscape(l.ID) + "/",
		OGType:      "article",
	}
	return Layout(cfg, meta, body)
}

// NotFound is the themed 404 page.
func NotFound(cfg directory.DirectoryConfig) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="error"><h1>Page not found</h1>`)
		p.raw(`<p>The page you were looking for does not exist.</p>`)
		p.raw(`<p><a href="/">Back to `).text(cfg.Title).raw(`</a></p></section>`)
		return p.err
	})
	return Layout(cfg, PageMeta{Title: "Page not found"}, body)
}

// ServerError is shown for unexpected failures. It only offers a link back to
// the parent site.
func ServerError(cfg directory.DirectoryConfig) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<section class="error"><h1>Something went wrong</h1>`)
		p.raw(`<p>We could not load this page.</p>`)
		if cfg.ParentSiteURL != "" {
			p.raw(`<p><a href="`).url(cfg.ParentSiteURL).raw(`">Return to Now Directories</a></p>`)
		}
		p.raw(`</section>`)
		return p.err
	})
	return Layout(cfg, PageMeta{Title: "Something went wrong"}, body)
}

func writeRating(p *printer, l Listing) {
	p.raw(`<p class="rating">`).text(fmt.Sprintf("%.1f", l.Rating)).raw(` &#9733; (`)
	p.text(fmt.Sprintf("%d reviews", l.ReviewCount)).raw(`)</p>`)
}
