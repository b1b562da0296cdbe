// Package token issues and validates the stateless bearer credentials handed
// out after a successful signup or signin.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Typed validation failures. Both ultimately mean "unauthenticated", but the
// client-visible reason differs, so the distinction is made here at the
// boundary instead of string-matching downstream.
var (
	ErrExpired = errors.New("token has expired")
	ErrInvalid = errors.New("could not validate credentials")
)

// Claims is the signed claim set: subject is the username, plus the email
// captured at issuance.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Issuer mints and validates HS256-signed tokens. It holds no server-side
// state: a token is valid until its expiry, with no revocation list.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

// NewIssuer builds an Issuer with the given signing secret and token lifetime.
func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), expiry: expiry}
}

// Issue signs a token for the given identity, expiring after the configured
// lifetime.
func (i *Issuer) Issue(username, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Validate verifies signature and expiry. Expired tokens return ErrExpired;
// anything else malformed, forged, or missing a subject returns ErrInvalid.
func (i *Issuer) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !tok.Valid || claims.Subject == "" || claims.Email == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
