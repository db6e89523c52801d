// Package token encodes and decodes the signed, expiring claim sets handed to
// clients. It is the only place that touches the signing secret and algorithm.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanasan/todo-api/internal/model"
)

const DefaultAlgorithm = "HS256"

// Kind discriminates access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the payload of every issued token. Email and Name are display
// copies only and must not be used for authorization.
type Claims struct {
	Kind  Kind   `json:"type"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// NewCodec builds a codec for one of the HMAC algorithms (HS256, HS384, HS512).
// now defaults to time.Now and is the clock used for expiry checks.
func NewCodec(secret string, algorithm string, now func() time.Time) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}

	algorithm = strings.ToUpper(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported token algorithm %q", algorithm)
	}

	if now == nil {
		now = time.Now
	}

	return &Codec{secret: []byte(secret), method: method, now: now}, nil
}

func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

func (c *Codec) Encode(claims Claims) (string, error) {
	if !claims.Kind.Valid() {
		return "", fmt.Errorf("encode token: invalid kind %q", claims.Kind)
	}
	if claims.ExpiresAt == nil {
		return "", errors.New("encode token: expiry is required")
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and the expiry of raw. Failures wrap
// model.ErrMalformedToken, model.ErrTokenSignature or model.ErrTokenExpired.
// A token whose exp has passed reports model.ErrTokenExpired even when its
// signature does not verify.
func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		// the parser fills claims before it checks the signature; exp is read
		// from them only to pick the error kind
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) && c.expired(claims) {
			return Claims{}, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return Claims{}, classify(err)
	}

	return claims, nil
}

func (c *Codec) expired(claims Claims) bool {
	return claims.ExpiresAt != nil && !c.now().Before(claims.ExpiresAt.Time)
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", model.ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", model.ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
	default:
		// missing exp, nbf in the future and other claim shape problems
		return fmt.Errorf("%w: %v", model.ErrMalformedToken, err)
	}
}
