package reddit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
)

const maxRetries = 3

// doGET executes a GET request with multi-account retry, token refresh, relogin,
// and application-only fallback.
func (c *Client) doGET(ctx context.Context, endpoint, url string) ([]byte, map[string]string, error) {
	if err := c.jitter.Sleep(ctx); err != nil {
		return nil, nil, err
	}

	var lastErr error
	for attempt := range maxRetries {
		if attempt > 0 {
			delay := c.backoff.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		filter := func(a *Account) bool {
			return a.AllowRequest(endpoint) && time.Now().After(a.proxyBackoffUntil())
		}

		var acc *Account
		var accErr error
		if requiresAuth(endpoint) {
			acc, accErr = c.pool.NextWithWait(ctx, filter, 5*time.Minute)
		} else {
			acc, accErr = c.pool.Next(filter)
		}
		if accErr != nil {
			lastErr = accErr
			break
		}

		if acc.TokenTTL() < tokenRefreshMargin {
			if err := c.relogin(ctx, acc); err != nil {
				slog.Warn("proactive token refresh failed", slog.String("user", acc.Username), slog.Any("error", err))
				c.pool.SoftDeactivate(acc, c.cfg.AuthCooldown)
				lastErr = err
				continue
			}
		}

		bc := c.clientForAccount(acc)
		token, ua := acc.Credentials()
		body, respHdrs, status, err := c.doRequest(ctx, bc, "GET", url, apiHeaders(token, ua), nil)
		if err != nil {
			if acc.Proxy != "" && isProxyError(err) {
				c.markProxyDown(acc)
			} else {
				acc.RecordFailure()
			}
			lastErr = err
			continue
		}

		acc.resetProxyFailures()
		c.trackRemaining(acc, endpoint, respHdrs)

		switch classifyError(status, body) {
		case errNone, errAPI:
			c.recordAPICall(endpoint, true, false)
			acc.RecordSuccess()
			return body, respHdrs, nil

		case errRateLimited:
			c.recordAPICall(endpoint, false, true)
			acc.MarkEndpointRateLimited(endpoint, parseRateLimitReset(respHdrs["x-ratelimit-reset"]))
			lastErr = fmt.Errorf("429 rate limited")
			continue

		case errUnauthorized:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("token rejected, attempting relogin", slog.String("user", acc.Username))
			if reErr := c.relogin(ctx, acc); reErr != nil {
				slog.Warn("relogin failed, soft-deactivating", slog.String("user", acc.Username), slog.Any("error", reErr))
				c.pool.SoftDeactivate(acc, c.cfg.AuthCooldown)
				lastErr = reErr
				continue
			}
			token2, ua2 := acc.Credentials()
			body2, respHdrs2, status2, err2 := c.doRequest(ctx, bc, "GET", url, apiHeaders(token2, ua2), nil)
			if err2 == nil && status2 == 200 {
				c.recordAPICall(endpoint, true, false)
				acc.RecordSuccess()
				return body2, respHdrs2, nil
			}
			c.pool.SoftDeactivate(acc, c.cfg.AuthCooldown)
			lastErr = fmt.Errorf("post-relogin request failed")
			continue

		case errNotFound:
			c.recordAPICall(endpoint, false, false)
			return nil, nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)

		case errForbidden:
			c.recordAPICall(endpoint, false, false)
			acc.RecordFailure()
			return nil, nil, fmt.Errorf("%s HTTP %d: %s", endpoint, status, truncateBytes(body, 200))

		case errServer:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("doGET server error", slog.String("endpoint", endpoint), slog.Int("status", status))
			acc.RecordFailure()
			lastErr = fmt.Errorf("%s HTTP %d", endpoint, status)
			continue

		default:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("doGET non-200", slog.String("endpoint", endpoint), slog.Int("status", status), slog.String("body", truncateBytes(body, 500)))
			if shouldDeactivate := acc.RecordFailure(); shouldDeactivate {
				total, failed, consec := acc.Stats()
				slog.Warn("account unhealthy, deactivating",
					slog.String("user", acc.Username),
					slog.Int("total", total),
					slog.Int("failed", failed),
					slog.Int("consec", consec))
				c.pool.DeactivateItem(acc)
			}
			return nil, nil, fmt.Errorf("%s HTTP %d: %s", endpoint, status, truncateBytes(body, 200))
		}
	}

	if requiresAuth(endpoint) {
		if lastErr != nil {
			return nil, nil, fmt.Errorf("pool exhausted for %s (requires auth): %w", endpoint, lastErr)
		}
		return nil, nil, fmt.Errorf("%s requires authenticated account", endpoint)
	}
	return c.doAppGET(ctx, endpoint, url, lastErr)
}

// doAppGET serves a read-only GET with the application-only token when no account can.
func (c *Client) doAppGET(ctx context.Context, endpoint, url string, poolErr error) ([]byte, map[string]string, error) {
	tok, ok := c.getAppTokenCached()
	if !ok {
		token, expiresAt, err := c.acquireAppToken(ctx)
		if err != nil {
			if poolErr != nil {
				return nil, nil, fmt.Errorf("pool exhausted for %s: %w; app token: %w", endpoint, poolErr, err)
			}
			return nil, nil, fmt.Errorf("app token unavailable for %s: %w", endpoint, err)
		}
		c.setAppToken(token, expiresAt)
		tok = token
		slog.Info("app token acquired as fallback", slog.String("endpoint", endpoint))
	}

	body, respHdrs, status, err := c.doRequest(ctx, c.client, "GET", url, apiHeaders(tok, c.cfg.UserAgent), nil)
	if err != nil {
		return nil, nil, err
	}
	switch classifyError(status, body) {
	case errNone, errAPI:
		c.recordAPICall(endpoint, true, false)
		return body, respHdrs, nil
	case errRateLimited:
		c.recordAPICall(endpoint, false, true)
		c.markAppTokenRateLimited(parseRateLimitReset(respHdrs["x-ratelimit-reset"]))
		return nil, nil, fmt.Errorf("app token rate-limited for %s", endpoint)
	case errNotFound:
		c.recordAPICall(endpoint, false, false)
		return nil, nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case errUnauthorized:
		slog.Warn("app token expired, reacquiring", slog.String("endpoint", endpoint))
		c.setAppToken("", time.Time{})
		token, expiresAt, err := c.acquireAppToken(ctx)
		if err != nil {
			c.recordAPICall(endpoint, false, false)
			return nil, nil, fmt.Errorf("app token reacquisition failed for %s: %w", endpoint, err)
		}
		c.setAppToken(token, expiresAt)
		body, respHdrs, status, err = c.doRequest(ctx, c.client, "GET", url, apiHeaders(token, c.cfg.UserAgent), nil)
		if err != nil {
			return nil, nil, err
		}
		if status != 200 {
			c.recordAPICall(endpoint, false, false)
			return nil, nil, fmt.Errorf("%s (app retry) HTTP %d: %s", endpoint, status, truncateBytes(body, 200))
		}
		c.recordAPICall(endpoint, true, false)
		return body, respHdrs, nil
	}
	c.recordAPICall(endpoint, false, false)
	return nil, nil, fmt.Errorf("%s (app) HTTP %d: %s", endpoint, status, truncateBytes(body, 200))
}

// doPOST executes a POST mutation with a specific account.
// Unlike doGET, it does not rotate accounts from the pool: mutations belong to the caller's identity.
// A 200 carrying json.errors is returned as-is for the caller to parse.
func (c *Client) doPOST(ctx context.Context, acc *Account, endpoint, url string, payload []byte) ([]byte, error) {
	if err := c.jitter.Sleep(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := range maxRetries {
		if attempt > 0 {
			delay := c.backoff.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if acc.IsEndpointRateLimited(endpoint) {
			wait := time.Until(acc.EndpointAvailableAt(endpoint))
			slog.Info("doPOST waiting for rate limit", slog.String("endpoint", endpoint), slog.Duration("wait", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if acc.TokenTTL() < tokenRefreshMargin {
			if err := c.relogin(ctx, acc); err != nil {
				lastErr = fmt.Errorf("token refresh failed: %w", err)
				continue
			}
		}

		bc := c.clientForAccount(acc)
		token, ua := acc.Credentials()
		body, respHdrs, status, err := c.doRequest(ctx, bc, "POST", url, apiHeaders(token, ua), bytes.NewReader(payload))
		if err != nil {
			if acc.Proxy != "" && isProxyError(err) {
				c.markProxyDown(acc)
			} else {
				acc.RecordFailure()
			}
			lastErr = err
			continue
		}

		acc.resetProxyFailures()
		c.trackRemaining(acc, endpoint, respHdrs)

		switch classifyError(status, body) {
		case errNone, errAPI:
			c.recordAPICall(endpoint, true, false)
			acc.RecordSuccess()
			return body, nil

		case errRateLimited:
			c.recordAPICall(endpoint, false, true)
			acc.MarkEndpointRateLimited(endpoint, parseRateLimitReset(respHdrs["x-ratelimit-reset"]))
			lastErr = fmt.Errorf("429 rate limited")
			continue

		case errUnauthorized:
			c.recordAPICall(endpoint, false, false)
			slog.Warn("doPOST: token rejected, attempting relogin", slog.String("user", acc.Username))
			if reErr := c.relogin(ctx, acc); reErr != nil {
				lastErr = fmt.Errorf("relogin failed: %w", reErr)
				continue
			}
			token2, ua2 := acc.Credentials()
			body2, _, status2, err2 := c.doRequest(ctx, bc, "POST", url, apiHeaders(token2, ua2), bytes.NewReader(payload))
			if err2 == nil && status2 == 200 {
				c.recordAPICall(endpoint, true, false)
				acc.RecordSuccess()
				return body2, nil
			}
			lastErr = fmt.Errorf("post-relogin request failed")
			continue

		case errServer:
			c.recordAPICall(endpoint, false, false)
			acc.RecordFailure()
			lastErr = fmt.Errorf("%s HTTP %d", endpoint, status)
			continue

		case errNotFound:
			c.recordAPICall(endpoint, false, false)
			return nil, fmt.Errorf("%s: %w", endpoint, ErrNotFound)

		default:
			c.recordAPICall(endpoint, false, false)
			acc.RecordFailure()
			return nil, fmt.Errorf("%s HTTP %d: %s", endpoint, status, truncateBytes(body, 200))
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%s failed after %d attempts: %w", endpoint, maxRetries, lastErr)
	}
	return nil, fmt.Errorf("%s failed after %d attempts", endpoint, maxRetries)
}

// trackRemaining blocks an endpoint for the account once Reddit reports an exhausted window.
func (c *Client) trackRemaining(acc *Account, endpoint string, headers map[string]string) {
	remaining, ok := rateLimitRemaining(headers)
	if !ok || remaining >= 1 {
		return
	}
	until := parseRateLimitReset(headers["x-ratelimit-reset"])
	acc.MarkEndpointRateLimited(endpoint, until)
	slog.Debug("rate window exhausted", slog.String("user", acc.Username), slog.String("endpoint", endpoint), slog.Time("until", until))
}

// isProxyError returns true if the error looks like a proxy connectivity failure.
func isProxyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "proxy") ||
		strings.Contains(msg, "SOCKS") ||
		strings.Contains(msg, "tunnel") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

// markProxyDown applies exponential backoff for proxy failures.
func (c *Client) markProxyDown(acc *Account) {
	acc.mu.Lock()
	acc.proxyConsecFails++
	fails := acc.proxyConsecFails
	acc.mu.Unlock()

	duration := stealth.BackoffConfig{
		InitialWait: c.cfg.ProxyBackoffInitial,
		MaxWait:     c.cfg.ProxyBackoffMax,
		Multiplier:  2.0,
		JitterPct:   0.3,
	}.Duration(fails - 1)

	acc.mu.Lock()
	acc.proxyBackoff = time.Now().Add(duration)
	acc.mu.Unlock()

	slog.Warn("proxy down, backing off",
		slog.String("user", acc.Username),
		slog.String("proxy", stealth.MaskProxy(acc.Proxy)),
		slog.Int("consec_fails", fails),
		slog.Duration("backoff", duration))
}
