package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/pquerna/otp/totp"
)

const installedClientGrant = "https://oauth.reddit.com/grants/installed_client"

// sessionDir returns the directory for persisting access tokens.
func sessionDir(override string) string {
	if override != "" {
		return override
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".go-reddit", "sessions")
}

// sessionPath returns the file path for a given username's session.
func sessionPath(dir, username string) string {
	return filepath.Join(dir, username+".json")
}

// savedSession holds a serialized access token for persistence.
type savedSession struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	SavedAt     time.Time `json:"saved_at"`
}

// saveSession persists an access token to disk.
func saveSession(dir, username, token string, expiresAt time.Time) error {
	d := sessionDir(dir)
	if err := os.MkdirAll(d, 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	s := savedSession{AccessToken: token, ExpiresAt: expiresAt, SavedAt: time.Now()}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	path := sessionPath(d, username)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write session %s: %w", path, err)
	}
	slog.Debug("session saved", slog.String("user", username))
	return nil
}

// loadSession loads a persisted token. Tokens within tokenRefreshMargin of expiry are ignored.
func loadSession(dir, username string) (token string, expiresAt time.Time, err error) {
	data, err := os.ReadFile(sessionPath(sessionDir(dir), username))
	if err != nil {
		if os.IsNotExist(err) {
			return "", time.Time{}, nil
		}
		return "", time.Time{}, err
	}
	var s savedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return "", time.Time{}, err
	}
	if time.Until(s.ExpiresAt) < tokenRefreshMargin {
		slog.Debug("session expired", slog.String("user", username))
		return "", time.Time{}, nil
	}
	return s.AccessToken, s.ExpiresAt, nil
}

// tokenResponse is the access_token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
}

func (tr tokenResponse) expiresAt() time.Time {
	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}
	return time.Now().Add(ttl)
}

// parseTokenResponse validates an access_token response body.
// Rejected credentials are reported as ErrInvalidGrant.
func parseTokenResponse(status int, body []byte) (*tokenResponse, error) {
	class := classifyError(status, body)
	if class == errUnauthorized {
		return nil, fmt.Errorf("access_token: invalid client credentials: %w", ErrInvalidGrant)
	}
	if status != 200 {
		return nil, fmt.Errorf("access_token HTTP %d: %s", status, truncateBytes(body, 200))
	}
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parse access_token: %w", err)
	}
	if class == errInvalidGrant {
		return nil, fmt.Errorf("access_token %s: %w", tr.Error, ErrInvalidGrant)
	}
	if tr.Error != "" {
		return nil, fmt.Errorf("access_token error: %s", tr.Error)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("empty access_token in response")
	}
	return &tr, nil
}

// requestToken posts a grant to the access_token endpoint.
func (c *Client) requestToken(ctx context.Context, bc *stealth.BrowserClient, form url.Values) (*tokenResponse, error) {
	headers := tokenHeaders(c.cfg.ClientID, c.cfg.ClientSecret, c.cfg.UserAgent)
	body, _, status, err := c.doRequest(ctx, bc, "POST", c.cfg.TokenURL, headers, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	return parseTokenResponse(status, body)
}

// passwordGrant builds the password grant form, appending a TOTP code when the account has a secret.
func passwordGrant(acc *Account, now time.Time) (url.Values, error) {
	password := acc.Password
	if acc.TOTPSecret != "" {
		code, err := totp.GenerateCode(acc.TOTPSecret, now)
		if err != nil {
			return nil, fmt.Errorf("TOTP code generation failed for %s: %w", acc.Username, err)
		}
		password += ":" + code
	}
	return url.Values{
		"grant_type": {"password"},
		"username":   {acc.Username},
		"password":   {password},
	}, nil
}

// relogin clears the token and performs a fresh login.
func (c *Client) relogin(ctx context.Context, acc *Account) error {
	slog.Info("attempting relogin", slog.String("user", acc.Username))

	acc.SetToken("", time.Time{})
	_ = os.Remove(sessionPath(sessionDir(c.cfg.SessionDir), acc.Username))

	if err := c.loadOrLogin(ctx, acc); err != nil {
		return fmt.Errorf("relogin %s: %w", acc.Username, err)
	}

	acc.Reset()
	slog.Info("relogin succeeded", slog.String("user", acc.Username))
	return nil
}

// loadOrLogin attempts to load a persisted token, falling back to the password grant.
func (c *Client) loadOrLogin(ctx context.Context, acc *Account) error {
	token, expiresAt, err := loadSession(c.cfg.SessionDir, acc.Username)
	if err != nil {
		slog.Warn("error loading session", slog.String("user", acc.Username), slog.Any("error", err))
	}
	if token != "" {
		acc.SetToken(token, expiresAt)
		slog.Info("loaded session from disk", slog.String("user", acc.Username))
		return nil
	}

	if acc.Password == "" {
		return fmt.Errorf("no session and no password for account %s", acc.Username)
	}

	if err := c.login(ctx, acc); err != nil {
		return fmt.Errorf("login failed for %s: %w", acc.Username, err)
	}

	tok, exp := acc.token()
	if err := saveSession(c.cfg.SessionDir, acc.Username, tok, exp); err != nil {
		slog.Warn("session save failed", slog.String("user", acc.Username), slog.Any("error", err))
	}
	return nil
}

// login performs the OAuth password grant for a script app.
func (c *Client) login(ctx context.Context, acc *Account) error {
	slog.Info("logging in", slog.String("user", acc.Username))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	form, err := passwordGrant(acc, time.Now())
	if err != nil {
		return err
	}
	tr, err := c.requestToken(ctx, c.clientForAccount(acc), form)
	if err != nil {
		return err
	}
	if tr.Scope != "" && tr.Scope != "*" {
		slog.Debug("token scope", slog.String("user", acc.Username), slog.String("scope", tr.Scope))
	}

	acc.SetToken(tr.AccessToken, tr.expiresAt())
	slog.Info("login successful", slog.String("user", acc.Username))
	return nil
}

// appGrant returns the application-only grant: client_credentials for confidential
// apps, installed_client with a device id otherwise.
func (c *Client) appGrant() url.Values {
	if c.cfg.ClientSecret != "" {
		return url.Values{"grant_type": {"client_credentials"}}
	}
	return url.Values{
		"grant_type": {installedClientGrant},
		"device_id":  {c.deviceID},
	}
}

// acquireAppToken fetches a fresh application-only token with exponential backoff.
// Rejected credentials fail immediately.
func (c *Client) acquireAppToken(ctx context.Context) (string, time.Time, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			delay := c.appBackoff.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", time.Time{}, ctx.Err()
			case <-time.After(delay):
			}
		}
		tr, err := c.requestToken(ctx, c.client, c.appGrant())
		if err == nil {
			return tr.AccessToken, tr.expiresAt(), nil
		}
		if errors.Is(err, ErrInvalidGrant) {
			return "", time.Time{}, err
		}
		lastErr = err
		slog.Warn("app token acquisition failed", slog.Int("attempt", attempt+1), slog.Any("error", err))
	}
	return "", time.Time{}, fmt.Errorf("acquire app token after 3 attempts: %w", lastErr)
}
