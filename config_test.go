package reddit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

func TestConfigDefaults(t *testing.T) {
	var cfg ClientConfig
	cfg.defaults()

	if cfg.UserAgent != defaultUserAgent {
		t.Fatalf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.AuthCooldown != time.Hour {
		t.Fatalf("AuthCooldown = %v", cfg.AuthCooldown)
	}
	if cfg.RateLimit.RequestsPerWindow != ratelimit.DefaultConfig.RequestsPerWindow {
		t.Fatalf("RateLimit not defaulted: %+v", cfg.RateLimit)
	}
	if cfg.RequestsPerMinute != 60 {
		t.Fatalf("RequestsPerMinute = %d", cfg.RequestsPerMinute)
	}
	if cfg.BaseURL != "https://oauth.reddit.com" {
		t.Fatalf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.TokenURL != "https://www.reddit.com/api/v1/access_token" {
		t.Fatalf("TokenURL = %q", cfg.TokenURL)
	}
	if cfg.ProxyBackoffInitial != 30*time.Second || cfg.ProxyBackoffMax != 30*time.Minute {
		t.Fatalf("proxy backoff = %v/%v", cfg.ProxyBackoffInitial, cfg.ProxyBackoffMax)
	}
}

func TestConfigDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := ClientConfig{
		UserAgent:         "custom",
		RequestsPerMinute: 10,
		AccountList:       "alice:pw",
	}
	cfg.defaults()
	if cfg.UserAgent != "custom" || cfg.RequestsPerMinute != 10 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
	if len(cfg.Accounts) != 1 || cfg.Accounts[0].Username != "alice" {
		t.Fatalf("Accounts not parsed from AccountList: %+v", cfg.Accounts)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reddit.yaml")
	yml := `client_id: abc
client_secret: shh
user_agent: "test:agent:v1 (by /u/tester)"
accounts: "alice:pw1,bob:pw2:JBSWY3DPEHPK3PXP"
requests_per_minute: 30
auth_cooldown: 15m
`
	if err := os.WriteFile(path, []byte(yml), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REDDIT_CLIENT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "abc" {
		t.Fatalf("ClientID = %q", cfg.ClientID)
	}
	if cfg.ClientSecret != "from-env" {
		t.Fatalf("env should override file, got %q", cfg.ClientSecret)
	}
	if cfg.RequestsPerMinute != 30 {
		t.Fatalf("RequestsPerMinute = %d", cfg.RequestsPerMinute)
	}
	if cfg.AuthCooldown != 15*time.Minute {
		t.Fatalf("AuthCooldown = %v", cfg.AuthCooldown)
	}

	cfg.defaults()
	if len(cfg.Accounts) != 2 || cfg.Accounts[1].TOTPSecret != "JBSWY3DPEHPK3PXP" {
		t.Fatalf("unexpected accounts: %+v", cfg.Accounts)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "id")
	t.Setenv("REDDIT_ACCOUNTS", "carol:pw")
	t.Setenv("REDDIT_REQUESTS_PER_MINUTE", "45")
	t.Setenv("REDDIT_SESSION_DIR", "/tmp/sessions")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClientID != "id" || cfg.AccountList != "carol:pw" || cfg.RequestsPerMinute != 45 || cfg.SessionDir != "/tmp/sessions" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("REDDIT_REQUESTS_PER_MINUTE", "lots")
	if _, err := ConfigFromEnv(); err == nil {
		t.Fatal("expected error for non-numeric REDDIT_REQUESTS_PER_MINUTE")
	}
}
