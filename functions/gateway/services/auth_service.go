package services

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Wallet sessions: the wallet-connect edge verifies the signed message and
// exchanges the proven address for a short-lived bearer token. Everything
// downstream only ever sees the address string.

const sessionIssuer = "soulpass"
const sessionDuration = 24 * time.Hour

func getSessionSecret() ([]byte, error) {
	secret := os.Getenv("SESSION_JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_JWT_SECRET environment variable is required")
	}
	return []byte(secret), nil
}

func IssueSessionToken(address string) (string, time.Time, error) {
	secret, err := getSessionSecret()
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(sessionDuration)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   address,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseSessionToken validates a bearer token and returns the wallet address it
// was issued for.
func ParseSessionToken(tokenString string) (string, error) {
	secret, err := getSessionSecret()
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid session token: missing subject")
	}
	if claims.Issuer != sessionIssuer {
		return "", fmt.Errorf("invalid session token: unexpected issuer %q", claims.Issuer)
	}
	return claims.Subject, nil
}
