package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"shadowtalk/internal/config"
)

// UserClaims are the JWT claims issued to clients by the identity service
// and validated here at connection time.
type UserClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.StandardClaims
}

// GenerateUserJWT issues a token for a user. Used by tests and local
// tooling; production tokens come from the identity service with the
// shared secret.
func GenerateUserJWT(userID, role string) (string, error) {
	cfg := config.Load()

	claims := UserClaims{
		UserID: userID,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			Issuer:    cfg.JWT.Issuer,
			Subject:   userID,
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(cfg.JWT.ExpiryHour)).Unix(),
			NotBefore: time.Now().Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWT.Secret))
}

// ValidateUserJWT validates a token and returns its claims.
func ValidateUserJWT(tokenString string) (*UserClaims, error) {
	cfg := config.Load()

	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token missing user_id claim")
	}
	return claims, nil
}
