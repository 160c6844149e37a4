package middleware

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"

	"github.com/songquanpeng/prompt-studio/common/logger"
)

// CookieKeys returns the cookie store key pairs for secret. A base64 secret is decoded and used
// for both signing and encryption only when it decodes to an AES key length. Anything else is
// used raw as the signing key.
func CookieKeys(secret string) [][]byte {
	decoded, err := base64.StdEncoding.DecodeString(secret)
	if err == nil {
		switch len(decoded) {
		case 16, 24, 32:
			return [][]byte{decoded, decoded}
		}
	}
	logger.Logger.Info("session secret is not a base64 AES key, signing cookies with the raw value")
	return [][]byte{[]byte(secret)}
}

// NewCookieStore builds the session cookie store. secure marks the cookie HTTPS-only.
func NewCookieStore(secret string, maxAgeSeconds int, secure bool) cookie.Store {
	store := cookie.NewStore(CookieKeys(secret)...)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAgeSeconds,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
	return store
}
