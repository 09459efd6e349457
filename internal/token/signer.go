// Package token implements token issuance and verification behind a single
// Signer contract with two interchangeable signing strategies. The strategy
// only affects signing and verification; claim content is assembled once,
// identically for both.
package token

import (
	"time"

	"authservice/internal/apperror"
)

// Claims is the flat key-value payload carried by every token.
type Claims map[string]any

// Signer is the signing-strategy contract. Implementations must not alter
// claim content beyond adding "exp" (and "nonce" for refresh tokens when the
// strategy requires replay protection).
type Signer interface {
	// Mode identifies the strategy, persisted on refresh-token rows.
	Mode() string
	CreateToken(claims Claims, ttl time.Duration) (string, error)
	// CreateRefreshToken returns the token and the nonce embedded in it;
	// nonce is empty for strategies without replay protection.
	CreateRefreshToken(claims Claims, ttl time.Duration) (token string, nonce string, err error)
	VerifyToken(token string) (Claims, error)
}

// errInvalidToken is the single outcome of every verification failure; which
// specific check failed is never revealed to the caller.
func errInvalidToken() error {
	return apperror.Unauthorized("INVALID_CREDENTIALS", "could not validate credentials")
}

// stampExpiry copies claims and embeds the expiry as an RFC 3339 timestamp.
func stampExpiry(claims Claims, ttl time.Duration) Claims {
	out := make(Claims, len(claims)+1)
	for k, v := range claims {
		out[k] = v
	}
	out["exp"] = time.Now().UTC().Add(ttl).Format(time.RFC3339)
	return out
}

// checkExpiry validates the RFC 3339 "exp" claim against the wall clock. The
// claim shape is a string by contract, so the signing library's numeric exp
// validation cannot apply; this check runs after signature verification.
func checkExpiry(claims Claims) error {
	raw, ok := claims["exp"]
	if !ok {
		return nil
	}
	str, ok := raw.(string)
	if !ok {
		return errInvalidToken()
	}
	exp, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return errInvalidToken()
	}
	if exp.Before(time.Now().UTC()) {
		return errInvalidToken()
	}
	return nil
}
