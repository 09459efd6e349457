package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ed25519Signer signs tokens with an asymmetric Ed25519 keypair (EdDSA).
// Refresh tokens carry a random nonce to prevent reuse correlation.
type Ed25519Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	parser     *jwt.Parser
}

// NewEd25519SignerFromPEM builds a signer from PEM-encoded PKCS#8 private and
// PKIX public key material.
func NewEd25519SignerFromPEM(privatePEM, publicPEM []byte) (*Ed25519Signer, error) {
	priv, err := jwt.ParseEdPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parsing ed25519 private key: %w", err)
	}
	pub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing ed25519 public key: %w", err)
	}

	privateKey, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not ed25519")
	}
	publicKey, ok := pub.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ed25519")
	}

	return NewEd25519Signer(privateKey, publicKey), nil
}

func NewEd25519Signer(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey) *Ed25519Signer {
	return &Ed25519Signer{
		privateKey: privateKey,
		publicKey:  publicKey,
		// See NewHMACSigner: expiry is a string claim checked manually.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
}

func (s *Ed25519Signer) Mode() string { return "ed25519" }

func (s *Ed25519Signer) CreateToken(claims Claims, ttl time.Duration) (string, error) {
	stamped := stampExpiry(claims, ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims(stamped))
	return tok.SignedString(s.privateKey)
}

func (s *Ed25519Signer) CreateRefreshToken(claims Claims, ttl time.Duration) (string, string, error) {
	nonce, err := newNonce()
	if err != nil {
		return "", "", err
	}

	withNonce := make(Claims, len(claims)+1)
	for k, v := range claims {
		withNonce[k] = v
	}
	withNonce["nonce"] = nonce

	token, err := s.CreateToken(withNonce, ttl)
	if err != nil {
		return "", "", err
	}
	return token, nonce, nil
}

func (s *Ed25519Signer) VerifyToken(tokenString string) (Claims, error) {
	parsed, err := s.parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return s.publicKey, nil
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

func newNonce() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
