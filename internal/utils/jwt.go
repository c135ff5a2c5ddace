package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by TokenExpiry for tokens that are not JWTs.
var ErrNotJWT = errors.New("token is not a jwt")

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
// The client never holds the signing key; the server remains responsible
// for rejecting forged tokens. A JWT without exp yields nil.
func TokenExpiry(tokenString string) (*time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotJWT, err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return nil, nil
	}

	t := exp.Time.UTC()
	return &t, nil
}

// TokenExpired reports whether tokenString is a JWT whose exp lies at or
// before now. Opaque tokens and JWTs without exp never expire here.
func TokenExpired(tokenString string, now time.Time) bool {
	exp, err := TokenExpiry(tokenString)
	if errors.Is(err, ErrNotJWT) || (err == nil && exp == nil) {
		return false
	}
	if err != nil {
		return true
	}
	return !now.Before(*exp)
}
