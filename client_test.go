package reddit

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

func TestAPIURL(t *testing.T) {
	c := &Client{cfg: ClientConfig{BaseURL: "https://oauth.reddit.com/"}}
	tests := []struct {
		path   string
		params url.Values
		want   string
	}{
		{"live/abc/about", nil, "https://oauth.reddit.com/live/abc/about?raw_json=1"},
		{"/api/live/happening_now", nil, "https://oauth.reddit.com/api/live/happening_now?raw_json=1"},
		{"live/abc/updates/u", url.Values{"limit": {"1"}}, "https://oauth.reddit.com/live/abc/updates/u?limit=1&raw_json=1"},
	}
	for _, tt := range tests {
		if got := c.apiURL(tt.path, tt.params); got != tt.want {
			t.Errorf("apiURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestAPIURLDoesNotMutateParams(t *testing.T) {
	c := &Client{cfg: ClientConfig{BaseURL: oauthBase}}
	params := url.Values{"limit": {"1"}}
	c.apiURL("live/abc", params)
	if params.Has("raw_json") {
		t.Fatal("caller params were modified")
	}
}

func TestPostWithoutAccount(t *testing.T) {
	c := &Client{cfg: ClientConfig{BaseURL: oauthBase}}
	if _, err := c.Post(context.Background(), "live_close", "api/live/abc/close_thread", url.Values{}); err == nil {
		t.Fatal("expected error without an authenticated account")
	}
}

func TestNewClientRequiresClientID(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestAppTokenCache(t *testing.T) {
	c := &Client{}
	if _, ok := c.getAppTokenCached(); ok {
		t.Fatal("empty cache should miss")
	}

	c.setAppToken("app", time.Now().Add(time.Hour))
	if tok, ok := c.getAppTokenCached(); !ok || tok != "app" {
		t.Fatalf("cache = %q, %v", tok, ok)
	}

	c.markAppTokenRateLimited(time.Now().Add(time.Minute))
	if _, ok := c.getAppTokenCached(); ok {
		t.Fatal("rate-limited token should miss")
	}

	c.setAppToken("app2", time.Now().Add(time.Minute))
	if _, ok := c.getAppTokenCached(); ok {
		t.Fatal("token inside the refresh margin should miss")
	}
}

func TestTrackRemaining(t *testing.T) {
	c := &Client{}
	acc := &Account{Username: "alice", rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig)}

	c.trackRemaining(acc, "live_about", map[string]string{"x-ratelimit-remaining": "12"})
	if acc.IsEndpointRateLimited("live_about") {
		t.Fatal("endpoint with budget left should not be limited")
	}

	c.trackRemaining(acc, "live_about", map[string]string{
		"x-ratelimit-remaining": "0",
		"x-ratelimit-reset":     "120",
	})
	if !acc.IsEndpointRateLimited("live_about") {
		t.Fatal("exhausted window should limit the endpoint")
	}
}

func TestRecordAPICall(t *testing.T) {
	var got []string
	c := &Client{cfg: ClientConfig{MetricsHook: func(endpoint string, success, rateLimited bool) {
		if success && !rateLimited {
			got = append(got, endpoint)
		}
	}}}
	c.recordAPICall("live_about", true, false)
	c.recordAPICall("live_about", false, true)
	if len(got) != 1 {
		t.Fatalf("hook calls = %v", got)
	}

	(&Client{}).recordAPICall("live_about", true, false)
}

func TestIsProxyError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("proxyconnect tcp: dial failed"), true},
		{errors.New("dial tcp: lookup x: no such host"), true},
		{errors.New("unexpected EOF"), false},
	}
	for _, tt := range tests {
		if got := isProxyError(tt.err); got != tt.want {
			t.Errorf("isProxyError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestClientHelpers(t *testing.T) {
	c := &Client{}
	thread, err := c.LiveThread("abc")
	if err != nil {
		t.Fatal(err)
	}
	if thread.r != Requestor(c) {
		t.Fatal("thread should be bound to the client")
	}
	if c.Redditor("spez").r != Requestor(c) {
		t.Fatal("redditor should be bound to the client")
	}
	if c.Live().r != Requestor(c) {
		t.Fatal("helper should be bound to the client")
	}
}

func TestPrepareAccountUserAgent(t *testing.T) {
	cfg := ClientConfig{UserAgent: "agent/1.0", RateLimit: ratelimit.DefaultConfig}

	acc := &Account{Username: "alice"}
	prepareAccount(acc, cfg)
	if _, ua := acc.Credentials(); ua != "agent/1.0" {
		t.Fatalf("user agent = %q", ua)
	}
	if !acc.IsActive() {
		t.Fatal("prepared account should be active")
	}

	custom := &Account{Username: "bob", UserAgent: "custom/2.0"}
	prepareAccount(custom, cfg)
	if _, ua := custom.Credentials(); ua != "custom/2.0" {
		t.Fatalf("per-account user agent overwritten: %q", ua)
	}
}
