package analytics

import "testing"

func TestCleanReferrer(t *testing.T) {
	tests := []struct {
		ref, host, want string
	}{
		{"", "notarynow.com", "Direct"},
		{"https://www.google.com/search?q=notary", "notarynow.com", "Google"},
		{"https://notarynow.com/listings/1/", "www.notarynow.com", "Direct"},
		{"https://yelp.com/biz/x", "notarynow.com", "yelp.com"},
		{"http://example.org:8080/a", "", "example.org"},
		{"not a url", "", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.ref, tt.host); got != tt.want {
			t.Errorf("CleanReferrer(%q, %q) = %q, want %q", tt.ref, tt.host, got, tt.want)
		}
	}
}

func TestIsBot(t *testing.T) {
	if !IsBot("Mozilla/5.0 (compatible; Googlebot/2.1)") {
		t.Error("Googlebot should be a bot")
	}
	if !IsBot("") {
		t.Error("empty user agent should be treated as a bot")
	}
	if IsBot(browserUA) {
		t.Error("Safari should not be a bot")
	}
}

func TestDeviceType(t *testing.T) {
	tests := []struct{ ua, want string }{
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148", "Tablet"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", "Mobile"},
		{browserUA, "Desktop"},
	}
	for _, tt := range tests {
		if got := DeviceType(tt.ua); got != tt.want {
			t.Errorf("DeviceType(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}
