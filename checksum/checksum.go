// Package checksum computes the integrity values the brokerage expects when a request
// token is exchanged for an access token.
//
// Two algorithms coexist and must stay separate: the session exchange uses a plain
// SHA-256 over the concatenated credentials, while the legacy login path signs its
// payload with HMAC-SHA256.
package checksum

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Exchange returns hex(sha256(apiKey + requestToken + apiSecret)).
func Exchange(apiKey, requestToken, apiSecret string) string {
	sum := sha256.Sum256([]byte(apiKey + requestToken + apiSecret))
	return hex.EncodeToString(sum[:])
}

// Login returns hex(hmac_sha256(secret, data)) for the legacy login path.
func Login(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
