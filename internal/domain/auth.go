package domain

import "time"

// AccessToken is the bearer token currently used for search calls.
// It is replaced wholesale on every successful exchange.
type AccessToken struct {
	Value      string
	ObtainedAt time.Time
}

// Valid reports whether the token carries a value.
func (t AccessToken) Valid() bool {
	return t.Value != ""
}

// TokenInfo is metadata read from a token for diagnostics only.
// Zero times mean the token did not expose the claim.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
