package analytics

import (
	"testing"
	"time"
)

func TestRateLimiterBlocksAfterMax(t *testing.T) {
	limiter := newRateLimiter(2, 200*time.Millisecond)
	defer limiter.stop()
	ip := "203.0.113.10"

	if !limiter.allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := newRateLimiter(1, 150*time.Millisecond)
	defer limiter.stop()
	ip := "203.0.113.20"

	if !limiter.allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestRateLimiterIsPerKey(t *testing.T) {
	limiter := newRateLimiter(1, 200*time.Millisecond)
	defer limiter.stop()

	if !limiter.allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	limiter := newRateLimiter(1, time.Second)
	limiter.stop()
	limiter.stop()
}
