// Package authz authenticates API callers and scopes them to an
// organization. Authentication distinguishes a missing or invalid
// credential (Unauthorized) from a valid credential used outside its
// organization or scope (Forbidden); callers surface both immediately and
// never silently drop a request.
package authz

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means no credential or an unrecognized one.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a valid credential with the wrong scope or
	// organization.
	ErrForbidden = errors.New("forbidden")
)

// Scope is a token permission level.
type Scope string

const (
	ScopeRead      Scope = "read"
	ScopeReadWrite Scope = "readwrite"
	ScopeAdmin     Scope = "admin"
)

// Identity is an authenticated caller.
type Identity struct {
	TokenID        string
	Name           string
	OrganizationID string
	Scope          Scope
}

// CanWrite reports whether the identity may mutate matter state.
func (id *Identity) CanWrite() bool {
	return id.Scope == ScopeReadWrite || id.Scope == ScopeAdmin
}

// Authenticator resolves a request credential to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) (*Identity, error)
}

// Directory answers organization and matter existence questions.
type Directory interface {
	OrgExists(ctx context.Context, orgID string) (bool, error)
	MatterExists(ctx context.Context, orgID, matterID string) (bool, error)
	// EnsureMatter registers a matter under the organization if it is
	// not already known. Matter registration happens implicitly on the
	// first authorized advance; this is the intake entry point.
	EnsureMatter(ctx context.Context, orgID, matterID string) error
}

// Authorize checks that the identity is bound to the organization and, for
// writes, carries a mutating scope.
func Authorize(id *Identity, orgID string, write bool) error {
	if id == nil {
		return ErrUnauthorized
	}
	if id.OrganizationID != orgID {
		return ErrForbidden
	}
	if write && !id.CanWrite() {
		return ErrForbidden
	}
	return nil
}

// BearerToken extracts the bearer credential from a request, preferring the
// Authorization header and falling back to the api_token query parameter.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("api_token")
}
