package enrich

import (
	"testing"
)

func TestTrafficSource(t *testing.T) {
	cases := []struct {
		name     string
		referrer string
		rawQuery string
		want     string
	}{
		{"utm wins over referrer", "https://www.google.com/search", "utm_source=tiktok", "utm_tiktok"},
		{"google referrer", "https://www.google.com/search?q=battery", "", "google"},
		{"facebook referrer", "https://m.facebook.com/", "", "facebook"},
		{"zalo referrer", "https://zalo.me/some-chat", "", "zalo"},
		{"other referrer", "https://example.org/blog", "", "referral"},
		{"no referrer", "", "", "direct"},
		{"no referrer with unrelated query", "", "page=2", "direct"},
		{"malformed query falls back to referrer", "https://www.google.com", "%zz", "google"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TrafficSource(tc.referrer, tc.rawQuery); got != tc.want {
				t.Fatalf("TrafficSource(%q, %q) = %q, want %q", tc.referrer, tc.rawQuery, got, tc.want)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	cases := []struct {
		ua   string
		want string
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X)", "mobile"},
		{"Mozilla/5.0 (Linux; Android 13; SM-G991B) Mobile Safari", "mobile"},
		{"Mozilla/5.0 (Linux; Android 12; Tablet) Safari", "mobile"}, // android matches before tablet
		{"SomeAgent (Tablet; rv:109.0)", "tablet"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "desktop"},
		{"", "desktop"},
	}
	for _, tc := range cases {
		if got := Platform(tc.ua); got != tc.want {
			t.Fatalf("Platform(%q) = %q, want %q", tc.ua, got, tc.want)
		}
	}
}
