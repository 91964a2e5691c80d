package reddit

import (
	"encoding/base64"
	"regexp"
	"testing"
)

func TestAPIHeaders(t *testing.T) {
	h := apiHeaders("tok", "ua")
	if h["authorization"] != "bearer tok" {
		t.Fatalf("authorization = %q", h["authorization"])
	}
	if h["user-agent"] != "ua" {
		t.Fatalf("user-agent = %q", h["user-agent"])
	}
}

func TestTokenHeaders(t *testing.T) {
	h := tokenHeaders("id", "secret", "ua")
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("id:secret"))
	if h["authorization"] != want {
		t.Fatalf("authorization = %q, want %q", h["authorization"], want)
	}
	if h["content-type"] != "application/x-www-form-urlencoded" {
		t.Fatalf("content-type = %q", h["content-type"])
	}
}

func TestRateLimitRemaining(t *testing.T) {
	tests := []struct {
		headers map[string]string
		want    float64
		ok      bool
	}{
		{map[string]string{"x-ratelimit-remaining": "598.0"}, 598, true},
		{map[string]string{"x-ratelimit-remaining": "0"}, 0, true},
		{map[string]string{"x-ratelimit-remaining": "n/a"}, 0, false},
		{map[string]string{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := rateLimitRemaining(tt.headers)
		if got != tt.want || ok != tt.ok {
			t.Errorf("rateLimitRemaining(%v) = %v, %v; want %v, %v", tt.headers, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGenerateDeviceID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{24}$`)
	seen := map[string]bool{}
	for range 10 {
		id := GenerateDeviceID()
		if !re.MatchString(id) {
			t.Fatalf("device id %q has wrong format", id)
		}
		if seen[id] {
			t.Fatalf("duplicate device id %q", id)
		}
		seen[id] = true
	}
}
