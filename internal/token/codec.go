package token

import (
	"encoding/base64"
	"encoding/json"
)

// FormatError reports input that is not structurally a token: wrong segment
// count, bytes outside the encoding alphabet, or an inner record that does
// not decode. It is always a client or data bug, never retried.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "malformed token: " + e.Reason
}

// Header identifies the signing algorithm. Only HS256 is ever produced.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

var defaultHeader = Header{Alg: "HS256", Typ: "JWT"}

// Claims is the token payload: the session it names and its absolute expiry
// as a unix timestamp.
type Claims struct {
	Session string `json:"session"`
	Exp     int64  `json:"exp"`
}

// Encode renders a flat record as base64url(JSON) with no padding. Struct
// fields marshal in declaration order with no whitespace, so encoding the
// same record twice is byte-identical; Verify depends on that to recompute
// signatures.
func Encode(record any) (string, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode is the exact inverse of Encode.
func Decode(segment string, record any) error {
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return &FormatError{Reason: "segment is not valid base64url"}
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return &FormatError{Reason: "segment does not decode to a record"}
	}
	return nil
}
