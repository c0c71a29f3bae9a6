package nowdir

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nowdirectories/nowdir/supabase"
)

func TestEchoCookieJar(t *testing.T) {
	a := newTestApp(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "existing", Value: "one"})
	rec := httptest.NewRecorder()
	jar := newEchoCookieJar(a.Echo.NewContext(req, rec))

	if v, ok := jar.Get("existing"); !ok || v != "one" {
		t.Fatalf("Get(existing) = %q, %v", v, ok)
	}
	if _, ok := jar.Get("absent"); ok {
		t.Fatal("absent cookie should not be found")
	}

	opts := supabase.DefaultCookieOptions()
	jar.Set("existing", "two", opts)
	if v, _ := jar.Get("existing"); v != "two" {
		t.Fatalf("Get after Set = %q, want two", v)
	}
	jar.Remove("existing", opts)
	if _, ok := jar.Get("existing"); ok {
		t.Fatal("removed cookie should not be found")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 Set-Cookie headers, got %d", len(cookies))
	}
	if cookies[0].Value != "two" || !cookies[0].HttpOnly || cookies[0].Path != "/" {
		t.Errorf("unexpected set cookie %+v", cookies[0])
	}
	if cookies[1].MaxAge >= 0 {
		t.Errorf("remove should expire the cookie, got MaxAge %d", cookies[1].MaxAge)
	}
}

func TestSupabaseClientUsesSessionCookie(t *testing.T) {
	sb := newFakeSupabase(t, `[]`)
	a := newTestApp(t, Config{PublicSupabaseURL: sb.URL, PublicSupabaseAnonKey: "anon"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := a.Echo.NewContext(req, rec)
	client, err := a.supabaseClient(c)
	if err != nil {
		t.Fatalf("supabaseClient: %v", err)
	}
	if err := client.SetSession(supabase.Session{AccessToken: "user-token", TokenType: "bearer"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	var rows []map[string]any
	if err := client.From("listings").Execute(c.Request().Context(), &rows); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := sb.auth[len(sb.auth)-1]; got != "Bearer user-token" {
		t.Fatalf("Authorization = %q, want the session token", got)
	}
}

func TestSupabaseClientMissingCredentials(t *testing.T) {
	a := newTestApp(t, Config{PublicSupabaseURL: "https://abc.supabase.co"})
	c := a.Echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if _, err := a.supabaseClient(c); err == nil {
		t.Fatal("expected error without anon key")
	}
	if _, err := a.serviceClient(); err == nil {
		t.Fatal("expected error without service key")
	}
}
