// Package signer issues and verifies the read tokens used by the emulator and
// filesystem backends. Tokens are HS256 JWTs scoped to one object.
package signer

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kbukum/blobkit/errors"
	"github.com/kbukum/blobkit/storage"
)

// QueryParam is the query parameter carrying the token.
const QueryParam = "token"

// Claims are the JWT claims of a read token.
type Claims struct {
	Container  string `json:"ctr"`
	Key        string `json:"key"`
	Permission string `json:"sp"`
	jwt.RegisteredClaims
}

// Signer signs and verifies read tokens with a shared secret.
type Signer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// New creates a Signer. issuer is recorded in the token and checked on verify.
func New(secret, issuer string) (*Signer, error) {
	if secret == "" {
		return nil, fmt.Errorf("signer: secret is required")
	}
	return &Signer{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Sign returns the encoded query string granting policy on container/key.
func (s *Signer) Sign(container, key string, policy storage.ReadPolicy) (string, error) {
	claims := Claims{
		Container:  container,
		Key:        key,
		Permission: string(policy.Permission),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(policy.Expiry),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signer: sign token: %w", err)
	}
	return url.Values{QueryParam: {signed}}.Encode(), nil
}

// Verify checks that token grants read access to container/key.
func (s *Signer) Verify(token, container, key string) error {
	if token == "" {
		return errors.Forbidden("A signed token is required to read this object.")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return errors.TokenExpired().WithCause(err)
	case err != nil:
		return errors.Forbidden("The signed token is invalid.").WithCause(err)
	}

	if claims.Container != container || claims.Key != key {
		return errors.Forbidden("The signed token was issued for a different object.")
	}
	if claims.Permission != string(storage.PermissionRead) {
		return errors.Forbidden("The signed token does not grant read access.")
	}
	return nil
}
