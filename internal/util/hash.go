package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short, stable identifier for a secret so logs can
// tell credentials apart without revealing them. Empty input yields "".
func Fingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])[:12]
}

// CredentialFingerprint identifies the credential a client authenticates
// with: the API key if set, otherwise the basic-auth username.
func CredentialFingerprint(apiKey, username string) string {
	if apiKey != "" {
		return "key:" + Fingerprint(apiKey)
	}
	if username != "" {
		return "basic:" + username
	}
	return "none"
}
