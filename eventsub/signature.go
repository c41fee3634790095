package eventsub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignaturePrefix tags the HMAC algorithm in the signature header value.
const SignaturePrefix = "sha256="

// ComputeSignature calculates the signature Twitch attaches to a webhook
// message: "sha256=" + lowercase hex of HMAC-SHA256 over the concatenation
// of message id, timestamp, and raw body. The order is fixed by the protocol.
func ComputeSignature(secret, messageID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return SignaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a presented signature header against the expected
// value. Comparison is constant-time. The body must be the raw request bytes,
// untouched by any parsing.
func VerifySignature(secret, messageID, timestamp string, body []byte, presented string) bool {
	expected := ComputeSignature(secret, messageID, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(presented))
}
