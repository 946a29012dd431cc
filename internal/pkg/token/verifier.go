package token

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: malformed, unsigned,
// tampered or expired credentials. Callers decide policy, the verifier never
// distinguishes beyond "valid principal" or "invalid".
var ErrInvalidToken = errors.New("invalid token")

const bearerPrefix = "Bearer "

// Verifier validates signed bearer tokens and extracts the principal.
// It holds its secret explicitly; construct it once and pass it by reference
// to whatever needs it.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a signed token and returns the principal
// identifier. Expiry is checked by the JWT library. It never panics and holds
// no shared mutable state, so it is safe for concurrent use.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Ensure Signing Method is HMAC
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	// Subject claim carries the principal; "user_id" is accepted for tokens
	// minted by the legacy auth service.
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID, nil
	}
	return "", ErrInvalidToken
}

// StripBearer removes the "Bearer " prefix from an Authorization header value.
// Returns the empty string when the prefix is missing.
func StripBearer(header string) string {
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return header[len(bearerPrefix):]
	}
	return ""
}
