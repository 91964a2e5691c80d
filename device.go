package reddit

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// GenerateDeviceID returns a random 24-character id for the installed-client grant.
// Reddit accepts 20-30 characters.
func GenerateDeviceID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "DO_NOT_TRACK_THIS_DEVICE"
	}
	return hex.EncodeToString(b)
}

// tokenRefreshMargin is how long before expiry a token is proactively replaced.
const tokenRefreshMargin = 5 * time.Minute
