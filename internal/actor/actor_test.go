package actor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lawdesk/matterflow/internal/audit"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/conflicts"
	"github.com/lawdesk/matterflow/internal/db"
	"github.com/lawdesk/matterflow/internal/extract"
	"github.com/lawdesk/matterflow/internal/handoff"
	"github.com/lawdesk/matterflow/internal/matter"
)

type testEnv struct {
	db       *db.DB
	actor    *Actor
	store    *Store
	auth     *authz.Store
	audit    *audit.Store
	handoffs *handoff.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	authStore := authz.NewStore(database)
	if err := authStore.CreateOrganization(context.Background(), "org1", "Org One"); err != nil {
		t.Fatalf("creating org: %v", err)
	}

	auditStore := audit.NewStore(database)
	actorStore := NewStore(database)
	handoffStore := handoff.NewStore(database)

	a := New(actorStore, actorStore, auditStore, authStore, Options{
		Extractor: extract.New(nil, 0),
		Conflicts: conflicts.NewIndex(nil),
		Handoffs:  handoff.NewDispatcher(handoffStore, ""),
		Now:       func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})

	return &testEnv{
		db:       database,
		actor:    a,
		store:    actorStore,
		auth:     authStore,
		audit:    auditStore,
		handoffs: handoffStore,
	}
}

func writerIdentity(org string) *authz.Identity {
	return &authz.Identity{TokenID: "t1", Name: "intake", OrganizationID: org, Scope: authz.ScopeReadWrite}
}

func partiesEvent(key string) matter.Event {
	return matter.Event{
		Type:           matter.EventUserInput,
		OrganizationID: "org1",
		MatterID:       "m1",
		IdempotencyKey: key,
		UserInput: &matter.UserInputPayload{
			ClientInfo:    &matter.ClientInfo{Name: "Jane Doe"},
			OpposingParty: "Acme Corp",
			MatterType:    "Employment Law",
		},
	}
}

func TestAdvanceCreatesStateAndAudits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	resp, err := env.actor.Advance(ctx, writerIdentity("org1"), "org1", "m1", partiesEvent(""))
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if resp.Stage != matter.StageConflictsCheck {
		t.Fatalf("stage = %s, want conflicts_check", resp.Stage)
	}
	if resp.Idempotent {
		t.Error("first advance must not be marked idempotent")
	}
	if resp.Message == "" {
		t.Error("expected a client-facing message")
	}

	// State is persisted.
	state, err := env.store.Get(ctx, "org1", "m1")
	if err != nil {
		t.Fatalf("Get state: %v", err)
	}
	if state == nil || state.Stage != matter.StageConflictsCheck {
		t.Fatalf("persisted state = %+v", state)
	}

	// The matter is registered under the organization.
	exists, err := env.auth.MatterExists(ctx, "org1", "m1")
	if err != nil || !exists {
		t.Errorf("MatterExists = %v, %v", exists, err)
	}

	// One audit entry records the transition.
	entries, err := env.audit.Query(ctx, audit.QueryFilter{OrganizationID: "org1", MatterID: "m1"})
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.OldValues["stage"] != "collect_parties" || e.NewValues["stage"] != "conflicts_check" {
		t.Errorf("audit entry = %+v", e)
	}
	if e.Actor != "intake" {
		t.Errorf("audit actor = %q", e.Actor)
	}
}

func TestAdvanceIdempotencyReplay(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	first, err := env.actor.Advance(ctx, id, "org1", "m1", partiesEvent("key-1"))
	if err != nil {
		t.Fatalf("first Advance: %v", err)
	}

	second, err := env.actor.Advance(ctx, id, "org1", "m1", partiesEvent("key-1"))
	if err != nil {
		t.Fatalf("second Advance: %v", err)
	}

	if !second.Idempotent {
		t.Error("replayed key must be marked idempotent")
	}
	if second.Stage != first.Stage {
		t.Errorf("replay stage = %s, want %s", second.Stage, first.Stage)
	}

	// The replay must not apply the event again.
	entries, err := env.audit.Query(ctx, audit.QueryFilter{MatterID: "m1"})
	if err != nil {
		t.Fatalf("audit query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("audit entries = %d, replay must not log a second transition", len(entries))
	}

	state, err := env.store.Get(ctx, "org1", "m1")
	if err != nil {
		t.Fatalf("Get state: %v", err)
	}
	if state.Stage != matter.StageConflictsCheck {
		t.Errorf("state stage = %s, replay must not advance further", state.Stage)
	}
}

func TestAdvanceIdempotencyIgnoresPayloadChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	first, err := env.actor.Advance(ctx, id, "org1", "m1", partiesEvent("key-1"))
	if err != nil {
		t.Fatalf("first Advance: %v", err)
	}

	// Same key, different payload: the original response is replayed.
	different := matter.Event{
		Type:           matter.EventPaymentComplete,
		IdempotencyKey: "key-1",
		Payment:        &matter.PaymentPayload{AmountCents: 100},
	}
	second, err := env.actor.Advance(ctx, id, "org1", "m1", different)
	if err != nil {
		t.Fatalf("second Advance: %v", err)
	}
	if !second.Idempotent || second.Stage != first.Stage {
		t.Errorf("second = %+v, want the original response replayed", second)
	}
}

func TestAdvanceAuthorization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if _, err := env.actor.Advance(ctx, nil, "org1", "m1", partiesEvent("")); !errors.Is(err, authz.ErrUnauthorized) {
		t.Errorf("nil identity: err = %v, want ErrUnauthorized", err)
	}

	crossOrg := writerIdentity("org2")
	if _, err := env.actor.Advance(ctx, crossOrg, "org1", "m1", partiesEvent("")); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("cross-org: err = %v, want ErrForbidden", err)
	}

	readOnly := &authz.Identity{TokenID: "t2", OrganizationID: "org1", Scope: authz.ScopeRead}
	if _, err := env.actor.Advance(ctx, readOnly, "org1", "m1", partiesEvent("")); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("read scope: err = %v, want ErrForbidden", err)
	}

	unknownOrg := writerIdentity("ghost")
	if _, err := env.actor.Advance(ctx, unknownOrg, "ghost", "m1", partiesEvent("")); !errors.Is(err, authz.ErrForbidden) {
		t.Errorf("unknown org: err = %v, want ErrForbidden", err)
	}
}

func TestStatusAndChecklist(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	if _, err := env.actor.Status(ctx, id, "org1", "m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("status before any event: err = %v, want ErrNotFound", err)
	}

	if _, err := env.actor.Advance(ctx, id, "org1", "m1", partiesEvent("")); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	resp, err := env.actor.Status(ctx, id, "org1", "m1")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if resp.Stage != matter.StageConflictsCheck {
		t.Errorf("status stage = %s", resp.Stage)
	}

	checklist, err := env.actor.Checklist(ctx, id, "org1", "m1")
	if err != nil {
		t.Fatalf("Checklist: %v", err)
	}
	if len(checklist) != len(matter.ChecklistFor(matter.StageConflictsCheck)) {
		t.Errorf("checklist = %+v", checklist)
	}

	// Reads work with read scope.
	readOnly := &authz.Identity{OrganizationID: "org1", Scope: authz.ScopeRead}
	if _, err := env.actor.Status(ctx, readOnly, "org1", "m1"); err != nil {
		t.Errorf("read-scope status: %v", err)
	}
}

func TestAdvanceDispatchesHandoff(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	ev := matter.Event{
		Type: matter.EventUserInput,
		UserInput: &matter.UserInputPayload{
			Message: "I was arrested and I am facing criminal charges next month.",
		},
	}
	resp, err := env.actor.Advance(ctx, id, "org1", "m1", ev)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if resp.Directive != handoff.DirectiveHandoffToIntake {
		t.Fatalf("directive = %q, want handoff_to_intake", resp.Directive)
	}
	if resp.HandoffReason != "hard_trigger" {
		t.Errorf("handoff reason = %q", resp.HandoffReason)
	}

	notifications, err := env.handoffs.List(ctx, handoff.ListFilter{OrganizationID: "org1", MatterID: "m1"})
	if err != nil {
		t.Fatalf("listing handoffs: %v", err)
	}
	if len(notifications) != 1 || notifications[0].Reason != "hard_trigger" {
		t.Errorf("notifications = %+v", notifications)
	}
}

func TestAdvanceFlagsConflictsAcrossMatters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	// First matter indexes Acme Corp while entering conflicts_check.
	if _, err := env.actor.Advance(ctx, id, "org1", "m1", partiesEvent("")); err != nil {
		t.Fatalf("first matter: %v", err)
	}

	// Second matter against the same opposing party gets flagged.
	ev := matter.Event{
		Type: matter.EventUserInput,
		UserInput: &matter.UserInputPayload{
			ClientInfo:    &matter.ClientInfo{Name: "Bob Roe"},
			OpposingParty: "Acme Corp",
		},
	}
	resp, err := env.actor.Advance(ctx, id, "org1", "m2", ev)
	if err != nil {
		t.Fatalf("second matter: %v", err)
	}

	found := false
	for _, issue := range resp.CaseBrief.Issues {
		if strings.HasPrefix(issue, "Potential conflict:") {
			found = true
		}
	}
	if !found {
		t.Errorf("issues = %v, want a potential conflict flagged", resp.CaseBrief.Issues)
	}
}

func TestAdvanceReleasesMatterLocks(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := writerIdentity("org1")

	for _, matterID := range []string{"m1", "m2", "m3"} {
		ev := matter.Event{
			Type:      matter.EventUserInput,
			UserInput: &matter.UserInputPayload{Message: "hello"},
		}
		if _, err := env.actor.Advance(ctx, id, "org1", matterID, ev); err != nil {
			t.Fatalf("Advance(%s): %v", matterID, err)
		}
	}

	env.actor.mu.Lock()
	remaining := len(env.actor.locks)
	env.actor.mu.Unlock()
	if remaining != 0 {
		t.Errorf("lock registry holds %d entries after all requests finished, want 0", remaining)
	}
}

func TestIdempotencyStoreTTL(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.store.Save(ctx, "org1", "m1", "key-1", []byte(`{"stage":"conflicts_check"}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cached, ok, err := env.store.Lookup(ctx, "org1", "m1", "key-1")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if string(cached) != `{"stage":"conflicts_check"}` {
		t.Errorf("cached = %s", cached)
	}

	// Age the row past the TTL; the lookup must then miss.
	if _, err := env.db.ExecContext(ctx,
		"UPDATE idempotency_keys SET created_at = datetime('now', '-25 hours') WHERE idempotency_key = 'key-1'"); err != nil {
		t.Fatalf("aging row: %v", err)
	}

	_, ok, err = env.store.Lookup(ctx, "org1", "m1", "key-1")
	if err != nil {
		t.Fatalf("Lookup after aging: %v", err)
	}
	if ok {
		t.Error("expired key must not be replayed")
	}

	purged, err := env.store.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}
}

func TestIdempotencySaveFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.store.Save(ctx, "org1", "m1", "key-1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := env.store.Save(ctx, "org1", "m1", "key-1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	cached, ok, err := env.store.Lookup(ctx, "org1", "m1", "key-1")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if string(cached) != `{"v":1}` {
		t.Errorf("cached = %s, want the first write kept", cached)
	}
}
