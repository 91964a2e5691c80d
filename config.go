package reddit

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
	"gopkg.in/yaml.v3"
)

// ClientConfig holds all configuration for the Reddit client.
type ClientConfig struct {
	// ClientID and ClientSecret identify the registered OAuth application.
	// Installed apps have no secret.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`

	// UserAgent is sent on every API request. Reddit throttles generic agents.
	UserAgent string `yaml:"user_agent"`

	// Accounts are the script-app accounts to use. The first one performs mutations.
	Accounts []*Account `yaml:"-"`

	// AccountList is the "user:pass[:totp_secret],..." form of Accounts, used by config files.
	AccountList string `yaml:"accounts"`

	// DefaultProxy is the proxy URL for accounts without per-account proxies.
	DefaultProxy string `yaml:"proxy"`

	// SessionDir overrides the default token persistence directory.
	// Default: ~/.go-reddit/sessions
	SessionDir string `yaml:"session_dir"`

	// AuthCooldown is the soft-deactivation duration for accounts whose relogin failed.
	AuthCooldown time.Duration `yaml:"auth_cooldown"`

	// RateLimit configures per-account per-endpoint rate limiting.
	RateLimit ratelimit.Config `yaml:"-"`

	// RequestsPerMinute caps the overall request rate of the client.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// MetricsHook is called on each API request for external metrics collection.
	// endpoint is the operation name, success and rateLimited indicate the outcome.
	MetricsHook func(endpoint string, success, rateLimited bool) `yaml:"-"`

	// ProxyBackoffInitial is the initial backoff for proxy failures.
	ProxyBackoffInitial time.Duration `yaml:"proxy_backoff_initial"`

	// ProxyBackoffMax is the maximum backoff for proxy failures.
	ProxyBackoffMax time.Duration `yaml:"proxy_backoff_max"`

	// BaseURL and TokenURL override the API hosts, mainly for tests.
	BaseURL  string `yaml:"base_url"`
	TokenURL string `yaml:"token_url"`
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if len(cfg.Accounts) == 0 && cfg.AccountList != "" {
		cfg.Accounts = ParseAccounts(cfg.AccountList)
	}
	if cfg.AuthCooldown == 0 {
		cfg.AuthCooldown = 1 * time.Hour
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.ProxyBackoffInitial == 0 {
		cfg.ProxyBackoffInitial = 30 * time.Second
	}
	if cfg.ProxyBackoffMax == 0 {
		cfg.ProxyBackoffMax = 30 * time.Minute
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = oauthBase
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = tokenBaseURL + "/api/v1/access_token"
	}
}

// LoadConfig reads a YAML config file and overlays REDDIT_* environment variables.
func LoadConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ConfigFromEnv builds a config from REDDIT_* environment variables only.
func ConfigFromEnv() (ClientConfig, error) {
	var cfg ClientConfig
	err := cfg.applyEnv()
	return cfg, err
}

func (cfg *ClientConfig) applyEnv() error {
	setIf := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIf(&cfg.ClientID, "REDDIT_CLIENT_ID")
	setIf(&cfg.ClientSecret, "REDDIT_CLIENT_SECRET")
	setIf(&cfg.UserAgent, "REDDIT_USER_AGENT")
	setIf(&cfg.AccountList, "REDDIT_ACCOUNTS")
	setIf(&cfg.DefaultProxy, "REDDIT_PROXY")
	setIf(&cfg.SessionDir, "REDDIT_SESSION_DIR")
	if v := os.Getenv("REDDIT_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDDIT_REQUESTS_PER_MINUTE: %w", err)
		}
		cfg.RequestsPerMinute = n
	}
	return nil
}
