package auth

import (
	"context"
	"net/http"
	"strings"
)

// BearerPrefix is the case-sensitive Authorization scheme prefix.
const BearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", newError(KindNoCredential, nil)
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", newError(KindMalformedCredential, nil)
	}
	return strings.TrimPrefix(header, BearerPrefix), nil
}

// Gate authenticates HTTP requests carrying a bearer token.
type Gate struct {
	issuer *TokenIssuer
}

// NewGate creates a Gate backed by issuer.
func NewGate(issuer *TokenIssuer) *Gate {
	return &Gate{issuer: issuer}
}

// Authenticate returns the verified subject of r's bearer token.
func (g *Gate) Authenticate(r *http.Request) (string, error) {
	token, err := ParseBearer(r.Header.Get("Authorization"))
	if err != nil {
		return "", err
	}
	return g.issuer.Verify(token)
}

type subjectKey struct{}

// WithSubject returns ctx carrying the verified subject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// SubjectFromContext returns the subject stored by WithSubject.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok && s != ""
}
