package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

type Claims struct {
	MerchantID string `json:"mid"`
	Type       string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// GeneratePair issues an access and a refresh token for a merchant.
func (tm *TokenManager) GeneratePair(merchantID string) (access, refresh string, accessExp time.Time, err error) {
	now := time.Now()

	sign := func(typ string, ttl time.Duration) (string, time.Time, error) {
		claims := Claims{
			MerchantID: merchantID,
			Type:       typ,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    tm.issuer,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
		return tok, claims.ExpiresAt.Time, err
	}

	access, accessExp, err = sign("access", tm.accessTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	refresh, _, err = sign("refresh", tm.refreshTTL)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return access, refresh, accessExp, nil
}

// ParseAccess validates an access token and returns its claims. Refresh
// tokens are rejected.
func (tm *TokenManager) ParseAccess(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return tm.secret, nil
	})
	if err != nil || claims.Type != "access" {
		return nil, errors.New("invalid access token")
	}
	return claims, nil
}
