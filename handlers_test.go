package nowdir

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nowdirectories/nowdir/directory"
)

// sessionCookieValue encodes an auth session the way the browser client
// stores it.
func sessionCookieValue(t *testing.T, accessToken string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		t.Fatal(err)
	}
	return "base64-" + base64.RawURLEncoding.EncodeToString(b)
}

const listingsJSON = `[{"id":"n-1","directory_slug":"notary","name":"Ace Notary","city":"Austin","state":"TX","phone":"512-555-0100","rating":4.5,"review_count":12}]`

func TestHomeRendersDirectoryForHost(t *testing.T) {
	sb := newFakeSupabase(t, listingsJSON)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	rec := get(a, "www.notarynow.com:443", "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"<title>Notary Now</title>", "Ace Notary", "Austin, TX", "#047857"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	vary := strings.Join(rec.Header().Values("Vary"), ",")
	if !strings.Contains(vary, "Host") || !strings.Contains(vary, "Cookie") {
		t.Errorf("Vary = %q, want Host and Cookie", vary)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", got)
	}

	q := sb.lastQuery(t)
	if got := q.Get("directory_slug"); got != "eq.notary" {
		t.Errorf("directory_slug filter = %q", got)
	}
	if got := q.Get("order"); !strings.HasPrefix(got, "name.asc") {
		t.Errorf("order = %q", got)
	}
	if got := sb.auth[len(sb.auth)-1]; got != "Bearer anon" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestSessionPagesAreNotSharedCacheable(t *testing.T) {
	sb := newFakeSupabase(t, listingsJSON)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "notarynow.com"
	req.AddCookie(&http.Cookie{Name: "sb-127-auth-token", Value: sessionCookieValue(t, "user-token")})
	rec := serve(a, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sb.auth[len(sb.auth)-1]; got != "Bearer user-token" {
		t.Fatalf("Authorization = %q, want the session token", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "private, no-cache" {
		t.Errorf("Cache-Control = %q, want private, no-cache", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "notarynow.com"
	req.AddCookie(&http.Cookie{Name: "sb-127-auth-token.0", Value: "part"})
	if got := serve(a, req).Header().Get("Cache-Control"); got != "private, no-cache" {
		t.Errorf("chunked session: Cache-Control = %q", got)
	}
}

func TestErrorPagesAreNotCached(t *testing.T) {
	sb := newFakeSupabase(t, `[]`)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})
	rec := get(a, "notarynow.com", "/listings/missing/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("404 Cache-Control = %q", got)
	}

	a = newTestApp(t, Config{})
	rec = get(a, "notarynow.com", "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("500 Cache-Control = %q", got)
	}
}

func TestTrustedHeaderWithDevPath(t *testing.T) {
	sb := newFakeSupabase(t, `[{"id":"x","directory_slug":"notary","name":"Ace Notary"}]`)
	a := newTestApp(t, Config{
		Environment:           "development",
		DebugMode:             true,
		PublicSupabaseURL:     sb.URL,
		PublicSupabaseAnonKey: "anon",
	})

	req := httptest.NewRequest(http.MethodGet, "/passport/listings/x/", nil)
	req.Host = "localhost:3000"
	req.Header.Set(directory.HeaderSlug, "notary")
	rec := serve(a, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sb.lastQuery(t).Get("directory_slug"); got != "eq.notary" {
		t.Errorf("directory_slug filter = %q", got)
	}
}

func TestHomeCityFilter(t *testing.T) {
	sb := newFakeSupabase(t, `[]`)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	rec := get(a, "notarynow.com", "/?city=Austin")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := sb.lastQuery(t).Get("city"); got != "eq.Austin" {
		t.Errorf("city filter = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "No listings found in Austin") {
		t.Error("expected empty state mentioning the city")
	}
}

func TestDevPathRoutesToDirectory(t *testing.T) {
	sb := newFakeSupabase(t, `[{"id":"p-7","directory_slug":"passport","name":"Snap Studio"}]`)
	a := newTestApp(t, Config{
		Environment:           "development",
		PublicSupabaseURL:     sb.URL,
		PublicSupabaseAnonKey: "anon",
	})

	rec := get(a, "localhost:3000", "/passport/listings/p-7/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Passport Photos Now") {
		t.Error("expected passport directory title")
	}
	q := sb.lastQuery(t)
	if got := q.Get("directory_slug"); got != "eq.passport" {
		t.Errorf("directory_slug filter = %q", got)
	}
	if got := q.Get("id"); got != "eq.p-7" {
		t.Errorf("id filter = %q", got)
	}
}

func TestDevPathIgnoredInProduction(t *testing.T) {
	a := newTestApp(t, Config{})
	rec := get(a, "localhost:3000", "/passport/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Notary Finder Now") {
		t.Error("expected default directory on the 404 page")
	}
}

func TestTrailingSlashRedirectKeepsDevPrefix(t *testing.T) {
	a := newTestApp(t, Config{Environment: "development"})
	rec := get(a, "localhost:3000", "/passport/listings/p-7")
	if rec.Code != http.StatusMovedPermanently {
		t.Fatalf("expected 301, got %d", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/passport/listings/p-7/" {
		t.Fatalf("Location = %q", got)
	}
}

func TestListingNotFound(t *testing.T) {
	sb := newFakeSupabase(t, `[]`)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	rec := get(a, "passportphotosnow.com", "/listings/missing/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Page not found") || !strings.Contains(body, "Passport Photos Now") {
		t.Fatalf("unexpected 404 body: %s", body)
	}
}

func TestUnknownRouteRendersThemedNotFound(t *testing.T) {
	a := newTestApp(t, Config{})
	rec := get(a, "notarynow.com", "/nope/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Back to Notary Now") {
		t.Fatal("expected themed 404 page")
	}
}

func TestMissingCredentialsRendersServerError(t *testing.T) {
	a := newTestApp(t, Config{})
	rec := get(a, "notarynow.com", "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Something went wrong") {
		t.Error("expected server error page")
	}
	if !strings.Contains(body, `href="https://nowdirectories.com"`) {
		t.Error("expected link back to the parent site")
	}
	if strings.Contains(body, "supabase") {
		t.Error("error details must not leak into the page")
	}
}

func TestUpstreamErrorRendersServerError(t *testing.T) {
	sb := newFakeSupabase(t, `{"message":"relation does not exist"}`)
	sb.status = http.StatusBadRequest
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	rec := get(a, "notarynow.com", "/")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestSitemapListsDirectoryListings(t *testing.T) {
	sb := newFakeSupabase(t, `[{"id":"a1","updated_at":"2024-05-01T10:00:00Z"},{"id":"a2","updated_at":""}]`)
	a := newTestApp(t, Config{SupabaseURL: sb.URL, SupabaseServiceRoleKey: "service"})

	rec := get(a, "notarynow.com", "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<loc>http://notarynow.com/listings/a1/</loc>",
		"<lastmod>2024-05-01</lastmod>",
		"<loc>http://notarynow.com/listings/a2/</loc>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("sitemap missing %q", want)
		}
	}
	if got := sb.lastQuery(t).Get("directory_slug"); got != "eq.notary" {
		t.Errorf("directory_slug filter = %q", got)
	}
	if got := sb.auth[len(sb.auth)-1]; got != "Bearer service" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestRobotsPointsAtOwnSitemap(t *testing.T) {
	a := newTestApp(t, Config{})
	rec := get(a, "passportphotosnow.com", "/robots.txt")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Sitemap: http://passportphotosnow.com/sitemap.xml") {
		t.Fatalf("unexpected robots.txt: %s", rec.Body.String())
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base     string
		segments []string
		want     string
	}{
		{"https://notarynow.com", []string{"listings", "a1"}, "https://notarynow.com/listings/a1/"},
		{"https://notarynow.com/", []string{"listings"}, "https://notarynow.com/listings/"},
		{"https://notarynow.com", nil, "https://notarynow.com"},
	}
	for _, tt := range tests {
		if got := BuildURL(tt.base, tt.segments...); got != tt.want {
			t.Errorf("BuildURL(%q, %v) = %q, want %q", tt.base, tt.segments, got, tt.want)
		}
	}
}
