package reddit

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/pool"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Account represents a Reddit script-app account with its OAuth token.
type Account struct {
	Username   string
	Password   string
	TOTPSecret string
	Proxy      string
	UserAgent  string
	Profile    stealth.BrowserProfile

	active       bool
	reactivateAt time.Time
	client       *stealth.BrowserClient

	mu               sync.Mutex
	accessToken      string
	tokenExpiry      time.Time
	proxyBackoff     time.Time
	proxyConsecFails int
	rateLimiter      *ratelimit.Limiter

	pool.HealthTracker
}

// ID implements pool.Identity.
func (a *Account) ID() string { return a.Username }

// IsActive implements pool.Identity.
func (a *Account) IsActive() bool { return a.active }

// SetActive implements pool.Identity.
func (a *Account) SetActive(v bool) { a.active = v }

// ReactivateAt implements pool.Identity.
func (a *Account) ReactivateAt() time.Time { return a.reactivateAt }

// SetReactivateAt implements pool.Identity.
func (a *Account) SetReactivateAt(t time.Time) { a.reactivateAt = t }

// TokenTTL returns how long the current access token stays valid. Zero when there is none.
func (a *Account) TokenTTL() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.accessToken == "" {
		return 0
	}
	return max(time.Until(a.tokenExpiry), 0)
}

// Credentials returns a snapshot of (accessToken, userAgent) under lock.
func (a *Account) Credentials() (accessToken, userAgent string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken, a.UserAgent
}

// SetToken atomically updates the access token and its expiry.
func (a *Account) SetToken(token string, expiresAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accessToken = token
	a.tokenExpiry = expiresAt
}

func (a *Account) token() (string, time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken, a.tokenExpiry
}

// AllowRequest checks if this account can make a request to the given endpoint.
func (a *Account) AllowRequest(endpoint string) bool {
	a.mu.Lock()
	if a.rateLimiter == nil {
		a.mu.Unlock()
		return true
	}
	rl := a.rateLimiter
	a.mu.Unlock()
	return rl.Allow(endpoint)
}

// MarkEndpointRateLimited marks an endpoint as rate-limited for this account.
func (a *Account) MarkEndpointRateLimited(endpoint string, until time.Time) {
	a.mu.Lock()
	if a.rateLimiter == nil {
		a.mu.Unlock()
		return
	}
	rl := a.rateLimiter
	a.mu.Unlock()
	rl.MarkRateLimited(endpoint, until)
}

// IsEndpointRateLimited returns true if the endpoint is currently blocked.
func (a *Account) IsEndpointRateLimited(endpoint string) bool {
	a.mu.Lock()
	if a.rateLimiter == nil {
		a.mu.Unlock()
		return false
	}
	rl := a.rateLimiter
	a.mu.Unlock()
	return rl.IsRateLimited(endpoint)
}

// EndpointAvailableAt returns when this account will be available for the given endpoint.
func (a *Account) EndpointAvailableAt(endpoint string) time.Time {
	a.mu.Lock()
	if a.rateLimiter == nil {
		a.mu.Unlock()
		return time.Time{}
	}
	rl := a.rateLimiter
	a.mu.Unlock()
	return rl.AvailableAt(endpoint)
}

func (a *Account) proxyBackoffUntil() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.proxyBackoff
}

func (a *Account) resetProxyFailures() {
	a.mu.Lock()
	a.proxyConsecFails = 0
	a.mu.Unlock()
}

// AssignBrowserProfile sets the TLS profile used by the account's transport.
// The API user agent is not taken from the profile.
func AssignBrowserProfile(acc *Account, idx int) {
	acc.Profile = stealth.BuiltinProfiles[idx%len(stealth.BuiltinProfiles)]
}

// ParseAccounts parses a comma-separated list of accounts.
// Format: "user1:pass1,user2:pass2" or "user1:pass1:totp_secret,...".
func ParseAccounts(raw string) []*Account {
	var accounts []*Account
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			slog.Warn("invalid account entry, skipping", slog.String("entry", maskEntry(entry)))
			continue
		}
		acc := &Account{
			Username: parts[0],
			Password: parts[1],
			active:   true,
		}
		if len(parts) == 3 && parts[2] != "" {
			acc.TOTPSecret = parts[2]
		}
		AssignBrowserProfile(acc, len(accounts))
		accounts = append(accounts, acc)
	}
	return accounts
}

// maskEntry keeps only the username of an account entry for logging.
func maskEntry(entry string) string {
	user, _, found := strings.Cut(entry, ":")
	if !found {
		return user
	}
	return user + ":***"
}
