package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACSigner signs structured tokens with a shared secret (HS256).
type HMACSigner struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACSigner(secret []byte) *HMACSigner {
	return &HMACSigner{
		secret: secret,
		// Claims validation is disabled because "exp" is an RFC 3339 string,
		// not the numeric claim the library validates; expiry is checked
		// manually after signature verification.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (s *HMACSigner) Mode() string { return "hmac" }

func (s *HMACSigner) CreateToken(claims Claims, ttl time.Duration) (string, error) {
	stamped := stampExpiry(claims, ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(stamped))
	return tok.SignedString(s.secret)
}

func (s *HMACSigner) CreateRefreshToken(claims Claims, ttl time.Duration) (string, string, error) {
	// The HMAC strategy carries no nonce; replay protection comes from the
	// persisted refresh-token row alone.
	token, err := s.CreateToken(claims, ttl)
	return token, "", err
}

func (s *HMACSigner) VerifyToken(tokenString string) (Claims, error) {
	parsed, err := s.parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken()
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken()
	}

	claims := Claims(mapClaims)
	if err := checkExpiry(claims); err != nil {
		return nil, err
	}
	return claims, nil
}
