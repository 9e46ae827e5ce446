package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Caller is the per-request identity threaded through every proxy call: the
// raw bearer token, forwarded to the store as-is, and the user id read from it.
type Caller struct {
	Token  string
	UserID string
}

// BearerToken strips a leading "Bearer " from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}

// CallerFromHeader derives the caller from an Authorization header value.
func CallerFromHeader(header string) (Caller, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Caller{}, err
	}

	userID, ok := SubjectFromToken(token)
	if !ok {
		return Caller{Token: token}, ErrInvalidToken
	}
	return Caller{Token: token, UserID: userID}, nil
}

// SubjectFromToken returns the sub claim of a JWT without verifying it.
// Signature and expiry are checked by the bearer middleware before this runs.
func SubjectFromToken(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}

	payload := parts[1]
	if rem := len(payload) % 4; rem != 0 {
		payload += strings.Repeat("=", 4-rem)
	}

	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}

	var claims map[string]any
	if err := json.Unmarshal(data, &claims); err != nil {
		return "", false
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}
