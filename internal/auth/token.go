package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid access token")

// ExtractAccessToken pulls the bearer token from the cookie (preferred)
// or the Authorization header.
func ExtractAccessToken(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil {
		if cookie.Value != "" {
			return cookie.Value
		}
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

type Identity struct {
	UserID uint
	Admin  bool
}

// ParseToken verifies the signature and lifts out the identity claims.
// Tokens are minted by the identity service; this side only reads them.
func ParseToken(tokenStr, secret string) (*Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	uid, ok := claims["user_id"].(float64)
	if !ok || uid <= 0 {
		return nil, ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	return &Identity{
		UserID: uint(uid),
		Admin:  role == "admin",
	}, nil
}
