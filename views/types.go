// Package views renders directory pages as templ components. Every page is
// themed from the DirectoryConfig resolved for the request.
package views

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Listing is one business in a directory, as stored in the listings table.
type Listing struct {
	ID            string  `json:"id"`
	DirectorySlug string  `json:"directory_slug"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Address       string  `json:"address"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Phone         string  `json:"phone"`
	Website       string  `json:"website"`
	Rating        float64 `json:"rating"`
	ReviewCount   int     `json:"review_count"`
	BookingURL    string  `json:"booking_url"`
}

// Location joins city and state for display.
func (l Listing) Location() string {
	switch {
	case l.City != "" && l.State != "":
		return l.City + ", " + l.State
	case l.City != "":
		return l.City
	default:
		return l.State
	}
}
