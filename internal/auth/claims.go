package auth

import (
	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/data-collector/internal/domain"
)

// InspectToken decodes registered claims without verifying the signature.
// It returns false for opaque tokens. The result is only used for log fields.
func InspectToken(value string) (domain.TokenInfo, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, claims); err != nil {
		return domain.TokenInfo{}, false
	}

	info := domain.TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, true
}
