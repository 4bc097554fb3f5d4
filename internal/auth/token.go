package auth

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued session token remains valid. There is no
// refresh mechanism; a lapsed token requires re-login.
const TokenTTL = 24 * time.Hour

// RoleAdmin is the role claim required for privileged routes.
const RoleAdmin = "admin"

var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed assertion carried by a session token. The subject is
// the user id in decimal.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole reports whether the token asserts the given role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// IssueToken signs a session token for the given user. Returns the token
// string and its expiry so the cookie lifetime can mirror it.
func IssueToken(userID int64, roles []string, key []byte, now time.Time) (string, time.Time, error) {
	expiry := now.Add(TokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
		Roles: roles,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiry, nil
}

// VerifyToken checks the signature and expiry of a session token and returns
// its claims. Role checks are the caller's responsibility.
func VerifyToken(tokenString string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
