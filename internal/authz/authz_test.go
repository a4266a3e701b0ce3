package authz

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lawdesk/matterflow/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestCreateTokenAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateOrganization(ctx, "org1", "Org One"); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	plaintext, err := store.CreateToken(ctx, "intake", "org1", ScopeReadWrite)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if !strings.HasPrefix(plaintext, "mf_") {
		t.Errorf("token = %q, want mf_ prefix", plaintext)
	}

	r := httptest.NewRequest("GET", "/api/anything", nil)
	r.Header.Set("Authorization", "Bearer "+plaintext)

	id, err := store.Authenticate(ctx, r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.OrganizationID != "org1" || id.Scope != ScopeReadWrite || id.Name != "intake" {
		t.Errorf("identity = %+v", id)
	}
	if !id.CanWrite() {
		t.Error("readwrite scope must allow writes")
	}
}

func TestAuthenticateQueryParamFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateOrganization(ctx, "org1", ""); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	plaintext, err := store.CreateToken(ctx, "intake", "org1", ScopeRead)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/anything?api_token="+plaintext, nil)
	id, err := store.Authenticate(ctx, r)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.Scope != ScopeRead || id.CanWrite() {
		t.Errorf("identity = %+v, read scope must not allow writes", id)
	}
}

func TestAuthenticateRejectsMissingAndUnknownTokens(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	r := httptest.NewRequest("GET", "/api/anything", nil)
	if _, err := store.Authenticate(ctx, r); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("missing token: err = %v, want ErrUnauthorized", err)
	}

	r.Header.Set("Authorization", "Bearer mf_totally_made_up")
	if _, err := store.Authenticate(ctx, r); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("unknown token: err = %v, want ErrUnauthorized", err)
	}
}

func TestAuthenticateRejectsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateOrganization(ctx, "org1", ""); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	plaintext, err := store.CreateToken(ctx, "stale", "org1", ScopeReadWrite)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := store.db.ExecContext(ctx,
		"UPDATE api_tokens SET expires_at = datetime('now', '-1 hour') WHERE name = 'stale'"); err != nil {
		t.Fatalf("expiring token: %v", err)
	}

	r := httptest.NewRequest("GET", "/api/anything", nil)
	r.Header.Set("Authorization", "Bearer "+plaintext)
	if _, err := store.Authenticate(ctx, r); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expired token: err = %v, want ErrUnauthorized", err)
	}

	// A future expiry still authenticates.
	if _, err := store.db.ExecContext(ctx,
		"UPDATE api_tokens SET expires_at = datetime('now', '+1 hour') WHERE name = 'stale'"); err != nil {
		t.Fatalf("extending token: %v", err)
	}
	if _, err := store.Authenticate(ctx, r); err != nil {
		t.Errorf("unexpired token: %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	rw := &Identity{OrganizationID: "org1", Scope: ScopeReadWrite}
	ro := &Identity{OrganizationID: "org1", Scope: ScopeRead}

	if err := Authorize(rw, "org1", true); err != nil {
		t.Errorf("readwrite same org write: %v", err)
	}
	if err := Authorize(ro, "org1", false); err != nil {
		t.Errorf("read same org read: %v", err)
	}
	if err := Authorize(ro, "org1", true); !errors.Is(err, ErrForbidden) {
		t.Errorf("read scope write: err = %v, want ErrForbidden", err)
	}
	if err := Authorize(rw, "org2", false); !errors.Is(err, ErrForbidden) {
		t.Errorf("cross-org: err = %v, want ErrForbidden", err)
	}
	if err := Authorize(nil, "org1", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil identity: err = %v, want ErrUnauthorized", err)
	}
}

func TestDirectoryEnsureMatter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateOrganization(ctx, "org1", ""); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	exists, err := store.MatterExists(ctx, "org1", "m1")
	if err != nil {
		t.Fatalf("MatterExists: %v", err)
	}
	if exists {
		t.Fatal("matter should not exist yet")
	}

	if err := store.EnsureMatter(ctx, "org1", "m1"); err != nil {
		t.Fatalf("EnsureMatter: %v", err)
	}
	// Idempotent.
	if err := store.EnsureMatter(ctx, "org1", "m1"); err != nil {
		t.Fatalf("EnsureMatter again: %v", err)
	}

	exists, err = store.MatterExists(ctx, "org1", "m1")
	if err != nil {
		t.Fatalf("MatterExists: %v", err)
	}
	if !exists {
		t.Error("matter should exist after EnsureMatter")
	}

	orgExists, err := store.OrgExists(ctx, "org1")
	if err != nil || !orgExists {
		t.Errorf("OrgExists(org1) = %v, %v", orgExists, err)
	}
	otherExists, err := store.OrgExists(ctx, "nope")
	if err != nil || otherExists {
		t.Errorf("OrgExists(nope) = %v, %v", otherExists, err)
	}
}

func TestListTokensNeverExposesSecrets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateOrganization(ctx, "org1", ""); err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if _, err := store.CreateToken(ctx, "one", "org1", ScopeAdmin); err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	tokens, err := store.ListTokens(ctx, "org1")
	if err != nil {
		t.Fatalf("ListTokens: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Name != "one" || tokens[0].Scope != ScopeAdmin {
		t.Errorf("tokens = %+v", tokens)
	}
}
