package reddit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
	"golang.org/x/time/rate"
)

// Client is the top-level Reddit API client. It implements Requestor.
type Client struct {
	client   *stealth.BrowserClient
	pool     *pool.Pool[*Account]
	primary  *Account
	limiter  *rate.Limiter
	deviceID string
	cfg      ClientConfig

	jitter     stealth.Jitter
	backoff    stealth.BackoffConfig
	appBackoff stealth.BackoffConfig

	mu              sync.Mutex
	appToken        string
	appTokenExpiry  time.Time
	appLimitedUntil time.Time
}

var _ Requestor = (*Client)(nil)

// appTokenBackoff paces application-only token retries.
var appTokenBackoff = stealth.BackoffConfig{
	InitialWait: 2 * time.Second,
	MaxWait:     60 * time.Second,
	Multiplier:  2.0,
	JitterPct:   0.3,
}

// NewClient creates a fully-wired Reddit client and logs in every configured account.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()
	if cfg.ClientID == "" {
		return nil, newValueError("client_id", "must not be empty")
	}

	for _, acc := range cfg.Accounts {
		prepareAccount(acc, cfg)
	}

	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(redditHeaderOrder),
	}
	if cfg.DefaultProxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.DefaultProxy))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}

	poolCfg := pool.Config{
		AlertHook: func(topic string, payload any) {
			slog.Warn("pool alert", slog.String("topic", topic), slog.Any("payload", payload))
		},
		ProxyBackoff: pool.BackoffConfig{
			InitialWait: cfg.ProxyBackoffInitial,
			MaxWait:     cfg.ProxyBackoffMax,
			Multiplier:  2.0,
			JitterPct:   0.3,
		},
	}

	c := &Client{
		client:     bc,
		pool:       pool.New(cfg.Accounts, poolCfg),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 5),
		deviceID:   GenerateDeviceID(),
		cfg:        cfg,
		jitter:     stealth.DefaultJitter,
		backoff:    stealth.DefaultBackoff,
		appBackoff: appTokenBackoff,
	}
	if len(cfg.Accounts) > 0 {
		c.primary = cfg.Accounts[0]
	}

	ctx := context.Background()
	for _, acc := range cfg.Accounts {
		if acc.Proxy != "" {
			accClient, err := stealth.NewClient(
				stealth.WithProxy(acc.Proxy),
				stealth.WithProfile(acc.Profile.TLSProfile),
				stealth.WithHeaderOrder(redditHeaderOrder),
			)
			if err != nil {
				slog.Warn("per-account client failed", slog.String("user", acc.Username), slog.Any("error", err))
			} else {
				acc.client = accClient
			}
		}

		if err := c.loadOrLogin(ctx, acc); err != nil {
			slog.Warn("account login failed", slog.String("user", acc.Username), slog.Any("error", err))
			acc.SetActive(false)
		}
	}

	return c, nil
}

// AddAccount logs in an extra account and adds it to the rotation pool.
func (c *Client) AddAccount(ctx context.Context, acc *Account) error {
	prepareAccount(acc, c.cfg)
	if err := c.loadOrLogin(ctx, acc); err != nil {
		return err
	}
	c.pool.Add(acc)
	if c.primary == nil {
		c.primary = acc
	}
	return nil
}

// prepareAccount resets the per-account limiter and health state. Accounts without
// their own user agent use the client's.
func prepareAccount(acc *Account, cfg ClientConfig) {
	acc.rateLimiter = ratelimit.NewLimiter(cfg.RateLimit)
	acc.HealthTracker = pool.DefaultHealthTracker()
	if acc.UserAgent == "" {
		acc.UserAgent = cfg.UserAgent
	}
	acc.SetActive(true)
}

// Live returns the live-thread helper bound to this client.
func (c *Client) Live() *LiveHelper {
	return NewLiveHelper(c)
}

// LiveThread returns a lazy thread bound to this client.
func (c *Client) LiveThread(id string) (*LiveThread, error) {
	return NewLiveThread(c, WithID(id))
}

// Redditor returns a lazy redditor bound to this client.
func (c *Client) Redditor(name string) *Redditor {
	return NewRedditor(c, name)
}

// Get implements Requestor with account rotation and app-only fallback.
func (c *Client) Get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	body, _, err := c.doGET(ctx, endpoint, c.apiURL(path, params))
	return body, err
}

// Post implements Requestor using the primary account.
func (c *Client) Post(ctx context.Context, endpoint, path string, form url.Values) ([]byte, error) {
	if c.primary == nil {
		return nil, fmt.Errorf("%s requires an authenticated account", endpoint)
	}
	return c.doPOST(ctx, c.primary, endpoint, c.apiURL(path, nil), []byte(form.Encode()))
}

// apiURL joins the API base, a relative path and query parameters. raw_json=1 disables
// Reddit's legacy HTML escaping of response text.
func (c *Client) apiURL(path string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("raw_json", "1")
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/") + "?" + q.Encode()
}

// clientForAccount returns the per-account client if available, otherwise the shared client.
func (c *Client) clientForAccount(acc *Account) *stealth.BrowserClient {
	if acc.client != nil {
		return acc.client
	}
	return c.client
}

// doRequest waits for the global limiter and executes one request.
func (c *Client) doRequest(ctx context.Context, bc *stealth.BrowserClient, method, urlStr string, headers map[string]string, body io.Reader) ([]byte, map[string]string, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, 0, err
	}
	return bc.DoWithHeaderOrder(method, urlStr, headers, body, redditHeaderOrder)
}

// Pool returns the underlying account pool.
func (c *Client) Pool() *pool.Pool[*Account] {
	return c.pool
}

// recordAPICall calls the metrics hook if configured.
func (c *Client) recordAPICall(endpoint string, success, rateLimited bool) {
	if c.cfg.MetricsHook != nil {
		c.cfg.MetricsHook(endpoint, success, rateLimited)
	}
}

// setAppToken stores a fresh application-only token.
func (c *Client) setAppToken(token string, expiresAt time.Time) {
	c.mu.Lock()
	c.appToken = token
	c.appTokenExpiry = expiresAt
	c.appLimitedUntil = time.Time{}
	c.mu.Unlock()
}

// markAppTokenRateLimited marks the app token as rate-limited.
func (c *Client) markAppTokenRateLimited(until time.Time) {
	c.mu.Lock()
	c.appLimitedUntil = until
	c.mu.Unlock()
}

// getAppTokenCached returns the current app token and whether it is usable.
func (c *Client) getAppTokenCached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appToken == "" || time.Now().Before(c.appLimitedUntil) || time.Until(c.appTokenExpiry) < tokenRefreshMargin {
		return "", false
	}
	return c.appToken, true
}
