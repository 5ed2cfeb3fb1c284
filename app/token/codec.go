// Package token encodes and decodes the signed, typed, expiring JWT pair
// used for API access and refresh rotation.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("invalid token")
)

// Kind tags a token inside its signed payload so a refresh token can never
// be replayed as an access token, or vice versa.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the wire payload: jti, exp, iat, username, email, type.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret string, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) Issue(kind Kind, username, email string) (string, error) {
	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}

	// jti makes every token unique even when two are minted for the same
	// identity within the same second; rotation relies on the new refresh
	// token never matching the just-revoked one.
	now := time.Now()
	claims := &Claims{
		Username: username,
		Email:    email,
		Type:     string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// IssuePair mints one access and one refresh token for the same identity.
func (c *Codec) IssuePair(username, email string) (access, refresh string, err error) {
	access, err = c.Issue(KindAccess, username, email)
	if err != nil {
		return "", "", err
	}
	refresh, err = c.Issue(KindRefresh, username, email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (c *Codec) Decode(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}

	return claims, nil
}

// DecodeAs verifies the token and rejects it when its kind does not match
// the intended use site.
func (c *Codec) DecodeAs(tokenString string, kind Kind) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != string(kind) {
		return nil, ErrInvalid
	}
	return claims, nil
}
