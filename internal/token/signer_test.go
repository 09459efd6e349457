package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEd25519Signer(t *testing.T) *Ed25519Signer {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return NewEd25519Signer(priv, pub)
}

func signers(t *testing.T) map[string]Signer {
	return map[string]Signer{
		"hmac":    NewHMACSigner([]byte("test-secret")),
		"ed25519": newTestEd25519Signer(t),
	}
}

func TestCreateAndVerifyRoundTrip(t *testing.T) {
	for name, s := range signers(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := s.CreateToken(Claims{"sub": "u@example.com"}, 15*time.Minute)
			require.NoError(t, err)

			claims, err := s.VerifyToken(tok)
			require.NoError(t, err)
			assert.Equal(t, "u@example.com", claims["sub"])

			// Expiry travels as an RFC 3339 string.
			expStr, ok := claims["exp"].(string)
			require.True(t, ok)
			exp, err := time.Parse(time.RFC3339, expStr)
			require.NoError(t, err)
			assert.True(t, exp.After(time.Now().UTC()))
		})
	}
}

func TestExpiredTokenRejectedDespiteValidSignature(t *testing.T) {
	for name, s := range signers(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := s.CreateToken(Claims{"sub": "u@example.com"}, -time.Minute)
			require.NoError(t, err)

			_, err = s.VerifyToken(tok)
			require.Error(t, err)
		})
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	for name, s := range signers(t) {
		t.Run(name, func(t *testing.T) {
			tok, err := s.CreateToken(Claims{"sub": "u@example.com"}, time.Minute)
			require.NoError(t, err)

			_, err = s.VerifyToken(tok + "x")
			require.Error(t, err)
		})
	}
}

func TestWrongKeyRejected(t *testing.T) {
	tok, err := NewHMACSigner([]byte("secret-a")).CreateToken(Claims{"sub": "u@example.com"}, time.Minute)
	require.NoError(t, err)
	_, err = NewHMACSigner([]byte("secret-b")).VerifyToken(tok)
	require.Error(t, err)

	tokEd, err := newTestEd25519Signer(t).CreateToken(Claims{"sub": "u@example.com"}, time.Minute)
	require.NoError(t, err)
	_, err = newTestEd25519Signer(t).VerifyToken(tokEd)
	require.Error(t, err)
}

func TestCrossAlgorithmTokensRejected(t *testing.T) {
	hmac := NewHMACSigner([]byte("test-secret"))
	ed := newTestEd25519Signer(t)

	tok, err := hmac.CreateToken(Claims{"sub": "u@example.com"}, time.Minute)
	require.NoError(t, err)
	_, err = ed.VerifyToken(tok)
	require.Error(t, err)

	tok, err = ed.CreateToken(Claims{"sub": "u@example.com"}, time.Minute)
	require.NoError(t, err)
	_, err = hmac.VerifyToken(tok)
	require.Error(t, err)
}

func TestRefreshTokenNonce(t *testing.T) {
	// The HMAC strategy carries no nonce.
	tok, nonce, err := NewHMACSigner([]byte("test-secret")).CreateRefreshToken(Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, nonce)
	assert.NotEmpty(t, tok)

	// The Ed25519 strategy embeds a random nonce claim.
	ed := newTestEd25519Signer(t)
	tok, nonce, err = ed.CreateRefreshToken(Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, nonce)

	claims, err := ed.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, nonce, claims["nonce"])

	_, nonce2, err := ed.CreateRefreshToken(Claims{"sub": "u@example.com"}, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, nonce, nonce2)
}

func TestClaimContentIdenticalAcrossStrategies(t *testing.T) {
	in := Claims{"sub": "u@example.com", "email": "u@example.com", "username": "u"}

	hmacTok, err := NewHMACSigner([]byte("test-secret")).CreateToken(in, time.Minute)
	require.NoError(t, err)
	edSigner := newTestEd25519Signer(t)
	edTok, err := edSigner.CreateToken(in, time.Minute)
	require.NoError(t, err)

	hmacClaims, err := NewHMACSigner([]byte("test-secret")).VerifyToken(hmacTok)
	require.NoError(t, err)
	edClaims, err := edSigner.VerifyToken(edTok)
	require.NoError(t, err)

	for k := range in {
		assert.Equal(t, hmacClaims[k], edClaims[k])
	}
}

func TestCheckExpiry(t *testing.T) {
	assert.NoError(t, checkExpiry(Claims{}))
	assert.NoError(t, checkExpiry(Claims{"exp": time.Now().UTC().Add(time.Minute).Format(time.RFC3339)}))
	assert.Error(t, checkExpiry(Claims{"exp": time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)}))
	assert.Error(t, checkExpiry(Claims{"exp": 12345}))
	assert.Error(t, checkExpiry(Claims{"exp": "not-a-timestamp"}))
}
