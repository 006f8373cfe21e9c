package rest

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
)

// SignSHA256 computes the hex-encoded HMAC-SHA256 digest of the payload,
// as expected by Binance-style APIs.
func SignSHA256(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}

// SignSHA512 computes the hex-encoded HMAC-SHA512 digest of the payload,
// as expected by Bittrex-style APIs.
func SignSHA512(payload, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))

	return hex.EncodeToString(mac.Sum(nil))
}
