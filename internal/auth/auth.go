// Package auth extracts the caller's identity from bearer tokens. The
// token's subject claim is the stable identity-provider string every
// reminder and user row is keyed by.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken means the request carried no bearer token.
var ErrNoToken = errors.New("missing bearer token")

type subjectKey struct{}

// Verifier validates HMAC-signed access tokens.
type Verifier struct {
	key []byte
}

// NewVerifier creates a Verifier for the given signing key.
func NewVerifier(signingKey string) *Verifier {
	return &Verifier{key: []byte(signingKey)}
}

// Subject verifies the token and returns its subject claim.
func (v *Verifier) Subject(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if sub == "" {
		return "", errors.New("token has empty subject")
	}
	return sub, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// token subject in the request context for the handlers.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		sub, err := v.Subject(raw)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
	})
}

// WithSubject stores the caller's subject in the context.
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

// SubjectFrom returns the caller's subject, empty when unauthenticated.
func SubjectFrom(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
