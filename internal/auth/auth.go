// Package auth resolves the calling actor from a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey struct{}

// WithActor returns ctx carrying actorID.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, actorID)
}

// ActorFrom returns the actor on ctx, or "" if none.
func ActorFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Claims are the JWT claims the service reads. The actor is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

// Validator checks HS256 tokens signed with a shared secret.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a validator. An empty issuer accepts any issuer.
func NewValidator(secret []byte, issuer string) *Validator {
	return &Validator{secret: secret, issuer: issuer}
}

// Validate parses tokenStr and returns its subject.
func (v *Validator) Validate(tokenStr string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}
	return claims.Subject, nil
}

// Issue signs a token for actorID valid for ttl. Used by tooling and tests.
func (v *Validator) Issue(actorID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   actorID,
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Unauthorized writes the 401 response. The handler package installs its
// JSON error writer here.
type Unauthorized func(w http.ResponseWriter, r *http.Request, message string)

// Middleware resolves the caller and stores it on the request context.
// With a validator, an "Authorization: Bearer <token>" header is required.
// With devHeader set, that header names the actor when no token is sent.
func Middleware(v *Validator, devHeader string, deny Unauthorized) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if devHeader != "" {
					if actor := r.Header.Get(devHeader); actor != "" {
						next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
						return
					}
				}
				deny(w, r, "missing Authorization header")
				return
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			if !ok || scheme != "Bearer" {
				deny(w, r, "invalid Authorization header format (expected 'Bearer <token>')")
				return
			}
			if v == nil {
				deny(w, r, "authentication not configured")
				return
			}

			actor, err := v.Validate(tokenStr)
			if err != nil {
				deny(w, r, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
