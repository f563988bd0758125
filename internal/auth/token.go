package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrNoToken is returned when no user is signed in.
var ErrNoToken = errors.New("auth: no token available")

// TokenSource yields the current user's bearer token. It is passed
// explicitly to whatever needs to act on the user's behalf.
type TokenSource interface {
	GetToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource over a fixed token. The empty token means
// signed out.
type StaticToken string

// GetToken implements TokenSource.
func (s StaticToken) GetToken(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SignedIn reports whether src can currently produce a token.
func SignedIn(ctx context.Context, src TokenSource) bool {
	if src == nil {
		return false
	}
	_, err := src.GetToken(ctx)
	return err == nil
}
