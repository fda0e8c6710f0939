package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformedToken indicates the token is structurally invalid.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken indicates the token is past its expiration instant.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidSignature indicates the signature check failed.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Issuer mints and verifies stateless HS256 bearer tokens. Verification is
// pure: a signature check plus timestamp comparison, no store lookup, which
// also means a token cannot be revoked before it expires.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
}

// NewIssuer builds an Issuer. leeway tolerates clock skew between the
// machine that minted a token and the one validating it.
func NewIssuer(secret string, ttl, leeway time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		leeway: leeway,
	}
}

// TTL reports the configured token lifetime.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints a signed token naming userID as its subject, valid from now
// until now plus the configured TTL.
func (i *Issuer) Issue(userID int64, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the embedded user id.
// Failures map onto the ErrExpiredToken / ErrInvalidSignature /
// ErrMalformedToken taxonomy; callers at the HTTP boundary collapse all
// three to a uniform 401.
func (i *Issuer) Verify(token string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(i.leeway))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return 0, ErrInvalidSignature
		default:
			return 0, ErrMalformedToken
		}
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, ErrMalformedToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrMalformedToken
	}
	return userID, nil
}

// DecodeUnverified extracts the subject and expiry without checking the
// signature. Display convenience only; never an authorization input.
func DecodeUnverified(token string) (userID int64, expiresAt time.Time, err error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return 0, time.Time{}, ErrMalformedToken
	}
	userID, err = strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, time.Time{}, ErrMalformedToken
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return userID, expiresAt, nil
}
