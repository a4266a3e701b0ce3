package audit

import (
	"context"
	"testing"
	"time"

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

func TestLogAndGetByID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	entry := Entry{
		ID:             "e1",
		OrganizationID: "org1",
		MatterID:       "m1",
		Actor:          "intake-bot",
		Action:         ActionStageAdvance,
		OldValues:      map[string]string{"stage": "collect_parties"},
		NewValues:      map[string]string{"stage": "conflicts_check"},
		Metadata:       map[string]string{"event_type": "user_input"},
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "e1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Actor != "intake-bot" || got.Action != ActionStageAdvance {
		t.Errorf("entry = %+v", got)
	}
	if got.OldValues["stage"] != "collect_parties" || got.NewValues["stage"] != "conflicts_check" {
		t.Errorf("values not round-tripped: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not populated")
	}
}

func TestLogGeneratesID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Log(ctx, Entry{
		OrganizationID: "org1",
		MatterID:       "m1",
		Actor:          "intake-bot",
		Action:         ActionStageAdvance,
	}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	entries, err := store.Query(ctx, QueryFilter{OrganizationID: "org1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].ID == "" {
		t.Errorf("entries = %+v, want one entry with a generated id", entries)
	}
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seed := []Entry{
		{ID: "a", OrganizationID: "org1", MatterID: "m1", Actor: "alpha", Action: ActionStageAdvance},
		{ID: "b", OrganizationID: "org1", MatterID: "m2", Actor: "beta", Action: ActionStageAdvance},
		{ID: "c", OrganizationID: "org2", MatterID: "m1", Actor: "alpha", Action: ActionStageAdvance},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log(%s): %v", e.ID, err)
		}
	}

	byOrg, err := store.Query(ctx, QueryFilter{OrganizationID: "org1"})
	if err != nil {
		t.Fatalf("Query by org: %v", err)
	}
	if len(byOrg) != 2 {
		t.Errorf("byOrg = %d entries, want 2", len(byOrg))
	}

	byMatter, err := store.Query(ctx, QueryFilter{OrganizationID: "org1", MatterID: "m2"})
	if err != nil {
		t.Fatalf("Query by matter: %v", err)
	}
	if len(byMatter) != 1 || byMatter[0].ID != "b" {
		t.Errorf("byMatter = %+v", byMatter)
	}

	byActor, err := store.Query(ctx, QueryFilter{Actor: "alpha"})
	if err != nil {
		t.Fatalf("Query by actor: %v", err)
	}
	if len(byActor) != 2 {
		t.Errorf("byActor = %d entries, want 2", len(byActor))
	}

	limited, err := store.Query(ctx, QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %d entries, want 1", len(limited))
	}
}

func TestDeleteBefore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Log(ctx, Entry{ID: "old", OrganizationID: "org1", MatterID: "m1", Actor: "a", Action: ActionStageAdvance}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	deleted, err := store.DeleteBefore(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %+v, want none", remaining)
	}
}
