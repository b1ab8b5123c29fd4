package utils

import (
	"errors"
	"time"

	"bettermind/config"

	"github.com/golang-jwt/jwt"
)

// Roles carried in access tokens.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// Claims identifies the caller of an authenticated request.
type Claims struct {
	Subject string
	Role    string
}

// secretKey returns JWT_SECRET. The development fallback is never used in
// production because config validation requires the secret there.
func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = "BETTERMIND"
	}
	return []byte(secret)
}

// GenerateToken creates a signed JWT for subject with the given role.
// Token issuance belongs to the auth service; this is used by tooling and tests.
func GenerateToken(subject, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// ExtractClaims validates tokenString and returns its subject and role.
// Tokens without a role are treated as patient tokens.
func ExtractClaims(tokenString string) (*Claims, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = RolePatient
	}
	return &Claims{Subject: sub, Role: role}, nil
}
