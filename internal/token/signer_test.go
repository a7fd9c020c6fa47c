package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSigner(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty ring", func(t *testing.T) {
		_, err := NewSigner()
		require.Error(t, err)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := NewSigner([]byte("good"), []byte(""))
		require.Error(t, err)
	})

	t.Run("copies keys", func(t *testing.T) {
		key := []byte("rotate-me")
		signer, err := NewSigner(key)
		require.NoError(t, err)

		claims := Claims{Session: "s1", Exp: time.Now().Add(time.Hour).Unix()}
		tok, err := signer.Sign(claims)
		require.NoError(t, err)

		// Mutating the caller's slice must not affect verification.
		key[0] = 'X'
		_, err = signer.Verify(tok, time.Now())
		require.NoError(t, err)
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner([]byte("super-secret-key"))
	require.NoError(t, err)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	claims := Claims{Session: "xK9fQ2mLpR7sT4vW8yB1nC3d", Exp: now.Add(time.Hour).Unix()}

	tok, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(tok, "."), 3)

	got, err := signer.Verify(tok, now)
	require.NoError(t, err)
	require.Equal(t, claims, got)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signerA, err := NewSigner([]byte("key-a"))
	require.NoError(t, err)
	signerB, err := NewSigner([]byte("key-b"))
	require.NoError(t, err)

	now := time.Now()
	tok, err := signerA.Sign(Claims{Session: "s1", Exp: now.Add(time.Hour).Unix()})
	require.NoError(t, err)

	_, err = signerB.Verify(tok, now)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsTampering(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner([]byte("super-secret-key"))
	require.NoError(t, err)

	now := time.Now()
	tok, err := signer.Sign(Claims{Session: "s1", Exp: now.Add(time.Hour).Unix()})
	require.NoError(t, err)

	t.Run("single flipped signature character", func(t *testing.T) {
		mutated := []byte(tok)
		last := len(mutated) - 1
		if mutated[last] == 'A' {
			mutated[last] = 'B'
		} else {
			mutated[last] = 'A'
		}

		_, err := signer.Verify(string(mutated), now)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("swapped payload keeps old signature", func(t *testing.T) {
		parts := strings.Split(tok, ".")
		forged, err := Encode(Claims{Session: "someone-else", Exp: now.Add(time.Hour).Unix()})
		require.NoError(t, err)

		_, verifyErr := signer.Verify(parts[0]+"."+forged+"."+parts[2], now)
		require.ErrorIs(t, verifyErr, ErrInvalidSignature)
	})
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner([]byte("super-secret-key"))
	require.NoError(t, err)
	now := time.Now()

	cases := []struct {
		name string
		tok  string
	}{
		{"empty", ""},
		{"two segments", "aaaa.bbbb"},
		{"four segments", "aaaa.bbbb.cccc.dddd"},
		{"header not base64url", "%%%.bbbb.cccc"},
		{"payload not a record", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.bm90LWpzb24.cccc"},
		{"signature not base64url", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzZXNzaW9uIjoiczEiLCJleHAiOjF9.%%%"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, verifyErr := signer.Verify(tc.tok, now)

			var formatErr *FormatError
			require.ErrorAs(t, verifyErr, &formatErr)
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner([]byte("super-secret-key"))
	require.NoError(t, err)

	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	exp := issued.Add(time.Hour)
	tok, err := signer.Sign(Claims{Session: "s1", Exp: exp.Unix()})
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		_, err := signer.Verify(tok, exp.Add(-time.Second))
		require.NoError(t, err)
	})

	t.Run("expired exactly at expiry", func(t *testing.T) {
		_, err := signer.Verify(tok, exp)
		require.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("expired after expiry", func(t *testing.T) {
		_, err := signer.Verify(tok, exp.Add(time.Second))
		require.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestKeyRotation(t *testing.T) {
	t.Parallel()

	oldKey := []byte("retired-secret")
	newKey := []byte("current-secret")
	now := time.Now()
	claims := Claims{Session: "s1", Exp: now.Add(time.Hour).Unix()}

	oldSigner, err := NewSigner(oldKey)
	require.NoError(t, err)
	oldToken, err := oldSigner.Sign(claims)
	require.NoError(t, err)

	t.Run("grace window accepts prior key", func(t *testing.T) {
		rotated, err := NewSigner(newKey, oldKey)
		require.NoError(t, err)

		_, err = rotated.Verify(oldToken, now)
		require.NoError(t, err)

		// New tokens come from the newest key only.
		newToken, err := rotated.Sign(claims)
		require.NoError(t, err)
		_, err = oldSigner.Verify(newToken, now)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("dropped key stops verifying", func(t *testing.T) {
		current, err := NewSigner(newKey)
		require.NoError(t, err)

		_, err = current.Verify(oldToken, now)
		require.ErrorIs(t, err, ErrInvalidSignature)
	})
}
