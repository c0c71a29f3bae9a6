// Package analytics records privacy-first page views per directory.
// IP addresses are never stored; visitors are identified by a salted hash.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Visit is a single page view on one directory site.
type Visit struct {
	DirectorySlug string    `json:"directory_slug"`
	Path          string    `json:"path"`
	VisitorID     string    `json:"-"` // salted hash of ip + user agent
	Referrer      string    `json:"referrer"`
	Device        string    `json:"device"`
	Timestamp     time.Time `json:"timestamp"`
}

// DirectoryStat aggregates views for one directory.
type DirectoryStat struct {
	DirectorySlug  string     `json:"directory_slug"`
	Views          int        `json:"views"`
	UniqueVisitors int        `json:"unique_visitors"`
	TopPages       []PageStat `json:"top_pages"`
}

// PageStat represents page view statistics.
type PageStat struct {
	Path  string `json:"path"`
	Views int    `json:"views"`
}

// visitorID hashes ip and user agent with the installation salt.
func visitorID(salt, ip, userAgent string) string {
	h := sha256.New()
	h.Write([]byte(salt + ip + "|" + userAgent))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DeviceType classifies a User-Agent as Desktop, Mobile or Tablet.
func DeviceType(ua string) string {
	ua = strings.ToLower(ua)
	// iPad UAs contain "mobile" too
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "mobile"):
		return "Mobile"
	default:
		return "Desktop"
	}
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"yandex", "baidu", "facebookexternalhit", "headlesschrome",
}

// IsBot checks if the User-Agent is likely a bot/crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	if ua == "" {
		return true
	}
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

var referrerDomainRegex = regexp.MustCompile(`^https?://(?:www\.)?([^/:]+)`)

// CleanReferrer reduces a referrer URL to a domain. Referrals from ownHost
// count as direct traffic.
func CleanReferrer(ref, ownHost string) string {
	if ref == "" {
		return "Direct"
	}
	m := referrerDomainRegex.FindStringSubmatch(strings.ToLower(ref))
	if len(m) < 2 {
		return "Other"
	}
	domain := m[1]
	if ownHost != "" && domain == strings.TrimPrefix(strings.ToLower(ownHost), "www.") {
		return "Direct"
	}
	switch {
	case strings.Contains(domain, "google."):
		return "Google"
	case strings.Contains(domain, "bing."):
		return "Bing"
	case strings.Contains(domain, "duckduckgo."):
		return "DuckDuckGo"
	case strings.Contains(domain, "yahoo."):
		return "Yahoo"
	}
	return domain
}
