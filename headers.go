package reddit

import (
	"encoding/base64"
	"strconv"

	stealth "github.com/anatolykoptev/go-stealth"
)

// defaultUserAgent follows Reddit's required "<platform>:<app id>:<version> (by /u/<user>)" form.
const defaultUserAgent = "go:github.com/anatolykoptev/go-reddit:v1.0.0 (by /u/anatolykoptev)"

// apiHeaders returns the headers for an authenticated OAuth API request.
func apiHeaders(accessToken, userAgent string) map[string]string {
	h := map[string]string{
		"authorization":   "bearer " + accessToken,
		"user-agent":      userAgent,
		"accept":          "application/json",
		"accept-language": "en-US,en;q=0.9",
		"accept-encoding": "gzip, deflate, br",
		"content-type":    "application/x-www-form-urlencoded",
	}
	if ch := stealth.ClientHintsHeaders(userAgent); ch != nil {
		for k, v := range ch {
			h[k] = v
		}
	}
	return h
}

// tokenHeaders returns headers for the access_token endpoint (HTTP basic client auth).
func tokenHeaders(clientID, clientSecret, userAgent string) map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	return map[string]string{
		"authorization": "Basic " + creds,
		"content-type":  "application/x-www-form-urlencoded",
		"user-agent":    userAgent,
		"accept":        "application/json",
	}
}

// rateLimitRemaining parses x-ratelimit-remaining. ok is false when the header is absent.
func rateLimitRemaining(headers map[string]string) (remaining float64, ok bool) {
	v, present := headers["x-ratelimit-remaining"]
	if !present {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// redditHeaderOrder is the header order for TLS fingerprint consistency.
var redditHeaderOrder = []string{
	"authorization",
	"content-type",
	"sec-ch-ua",
	"sec-ch-ua-mobile",
	"sec-ch-ua-platform",
	"user-agent",
	"accept",
	"accept-language",
	"accept-encoding",
}
