package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidSignature means the token is well-formed but was not signed
	// by any accepted key: forged, tampered with, or from a rotated-out
	// secret past its grace window.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrTokenExpired means the token's own embedded expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")
)

const separator = "."

// Signer issues and verifies compact signed tokens of the form
// header.payload.signature. The key ring is fixed at construction and must
// not change for the process lifetime: keys[0] signs new tokens, every key
// verifies, so rotation keeps tokens from the immediately prior secret
// acceptable until it is dropped from the ring.
type Signer struct {
	keys [][]byte
}

func NewSigner(keys ...[]byte) (*Signer, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one signing key is required")
	}

	ring := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if len(key) == 0 {
			return nil, errors.New("signing keys must not be empty")
		}
		ring = append(ring, append([]byte(nil), key...))
	}

	return &Signer{keys: ring}, nil
}

// Sign builds a token over the given claims using the newest key.
func (s *Signer) Sign(claims Claims) (string, error) {
	return signWith(defaultHeader, claims, s.keys[0])
}

// Verify checks the token against every accepted key by recomputing the
// full token from its decoded header and claims and comparing the result to
// the input in constant time. On success it also rejects tokens whose own
// expiry has elapsed at the given instant.
func (s *Signer) Verify(tok string, now time.Time) (Claims, error) {
	parts := strings.Split(tok, separator)
	if len(parts) != 3 {
		return Claims{}, &FormatError{Reason: "token must have exactly three segments"}
	}

	var header Header
	if err := Decode(parts[0], &header); err != nil {
		return Claims{}, err
	}

	var claims Claims
	if err := Decode(parts[1], &claims); err != nil {
		return Claims{}, err
	}

	if _, err := base64.RawURLEncoding.DecodeString(parts[2]); err != nil {
		return Claims{}, &FormatError{Reason: "signature segment is not valid base64url"}
	}

	for _, key := range s.keys {
		expected, err := signWith(header, claims, key)
		if err != nil {
			return Claims{}, err
		}
		if hmac.Equal([]byte(expected), []byte(tok)) {
			if !time.Unix(claims.Exp, 0).After(now) {
				return Claims{}, ErrTokenExpired
			}
			return claims, nil
		}
	}

	return Claims{}, ErrInvalidSignature
}

func signWith(header Header, claims Claims, key []byte) (string, error) {
	headerSegment, err := Encode(header)
	if err != nil {
		return "", err
	}
	claimsSegment, err := Encode(claims)
	if err != nil {
		return "", err
	}

	signingInput := headerSegment + separator + claimsSegment

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(signingInput))
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return signingInput + separator + signature, nil
}
