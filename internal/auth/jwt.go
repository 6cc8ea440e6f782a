package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
)

// TokenCodec issues and validates stateless bearer tokens. Validation is pure;
// possession of a valid, unexpired token is the sole proof of identity.
type TokenCodec interface {
	Issue(subject uint64, ttl time.Duration) (string, error)
	Validate(token string) (uint64, error)
}

// JWTCodec signs {sub, exp} with HS256 and a server-held symmetric secret.
type JWTCodec struct {
	secret []byte
}

func NewJWTCodec(secret string) *JWTCodec {
	return &JWTCodec{secret: []byte(secret)}
}

func (c *JWTCodec) Issue(subject uint64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(subject, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *JWTCodec) Validate(token string) (uint64, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return 0, ErrTokenSignature
		default:
			return 0, ErrTokenMalformed
		}
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, ErrTokenMalformed
	}
	sub, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenMalformed
	}
	return sub, nil
}
