package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrInvalidAuthToken is returned for every token verification failure.
	// The more specific causes below are always joined with it.
	ErrInvalidAuthToken = errors.New("invalid auth token")

	// ErrMalformedToken is returned when a token cannot be parsed or decoded.
	ErrMalformedToken = errors.New("malformed auth token")
	// ErrBadSignature is returned when a token's signature does not match its claims.
	ErrBadSignature = errors.New("auth token signature mismatch")
	// ErrTokenExpired is returned when the current time is at or after the token's expiry.
	ErrTokenExpired = errors.New("auth token expired")
)

// Claims is the identity carried inside a signed auth token.
type Claims struct {
	Subject   int64     // ID of the authenticated user
	IssuedAt  time.Time // Time the token was created
	ExpiresAt time.Time // Time from which the token is no longer accepted
}

// AuthTokenResponse represents a response containing an authentication token.
type AuthTokenResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"user_id"`
}
