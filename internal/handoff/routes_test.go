package handoff

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

func TestListEndpointRequiresToken(t *testing.T) {
	router, _, _ := newRoutesFixture(t)

	req := httptest.NewRequest("GET", "/api/handoffs", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListEndpointScopesToCallerOrganization(t *testing.T) {
	router, store, token := newRoutesFixture(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, Notification{OrganizationID: "org1", MatterID: "m1", Reason: "hard_trigger"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := store.Create(ctx, Notification{OrganizationID: "org2", MatterID: "m1", Reason: "high_risk"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Asking for another organization's handoffs still returns only the
	// caller's own.
	req := httptest.NewRequest("GET", "/api/handoffs?organization_id=org2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var notifications []Notification
	if err := json.Unmarshal(w.Body.Bytes(), &notifications); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(notifications) != 1 || notifications[0].OrganizationID != "org1" {
		t.Errorf("notifications = %+v, want only org1's", notifications)
	}
}
