package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/db"
)

func newRoutesFixture(t *testing.T) (chi.Router, *Store, string) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	ctx := context.Background()
	authStore := authz.NewStore(database)
	for _, org := range []string{"org1", "org2"} {
		if err := authStore.CreateOrganization(ctx, org, ""); err != nil {
			t.Fatalf("creating %s: %v", org, err)
		}
	}
	token, err := authStore.CreateToken(ctx, "viewer", "org1", authz.ScopeRead)
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}

	store := NewStore(database)
	r := chi.NewRouter()
	RegisterRoutes(r, store, authStore)
	return r, store, token
}

func seedEntries(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	for _, e := range []Entry{
		{ID: "own", OrganizationID: "org1", MatterID: "m1", Actor: "alpha", Action: ActionStageAdvance},
		{ID: "foreign", OrganizationID: "org2", MatterID: "m1", Actor: "beta", Action: ActionStageAdvance},
	} {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log(%s): %v", e.ID, err)
		}
	}
}

func TestQueryEndpointRequiresToken(t *testing.T) {
	router, store, _ := newRoutesFixture(t)
	seedEntries(t, store)

	req := httptest.NewRequest("GET", "/api/audit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestQueryEndpointScopesToCallerOrganization(t *testing.T) {
	router, store, token := newRoutesFixture(t)
	seedEntries(t, store)

	// Asking for another organization's entries still returns only the
	// caller's own.
	req := httptest.NewRequest("GET", "/api/audit?organization_id=org2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var entries []Entry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "own" {
		t.Errorf("entries = %+v, want only org1's entry", entries)
	}
}

func TestGetByIDEndpointHidesForeignEntries(t *testing.T) {
	router, store, token := newRoutesFixture(t)
	seedEntries(t, store)

	req := httptest.NewRequest("GET", "/api/audit/own", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("own entry: status = %d", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/audit/foreign", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign entry: status = %d, want 404", w.Code)
	}
}
