package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "controller"

// Claims are the JWT claims carried by an issued access token. The subject is
// the user ID; organization and admin status travel with the token so request
// handling never needs a user lookup.
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID string `json:"organization_id"`
	Admin          bool   `json:"admin"`
}

// TokenIssuer issues and verifies HMAC-signed access tokens.
type TokenIssuer struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenIssuer creates a token issuer. The signing key must be at least 32
// bytes.
func NewTokenIssuer(signingKey []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(signingKey) < 32 {
		return nil, errors.New("signing key must be at least 32 bytes")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenIssuer{signingKey: signingKey, ttl: ttl}, nil
}

// Issue creates a signed token for the given identity.
func (i *TokenIssuer) Issue(identity Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenIssuer},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		OrganizationID: identity.OrganizationID.String(),
		Admin:          identity.Admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.signingKey)
}

// Verify parses and validates a token and returns the caller identity.
func (i *TokenIssuer) Verify(tokenStr string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("invalid signing method")
		}
		return i.signingKey, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenIssuer))
	if err != nil {
		return Identity{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token claims")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid subject claim: %w", err)
	}

	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid organization claim: %w", err)
	}

	return Identity{
		ID:             userID,
		OrganizationID: orgID,
		Admin:          claims.Admin,
	}, nil
}
