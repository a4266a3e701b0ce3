package actor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lawdesk/matterflow/internal/db"
	"github.com/lawdesk/matterflow/internal/matter"
)

// idempotencyTTL bounds how long a cached response is replayed. Expiry is
// enforced on read; stale rows are swept by Purge.
const idempotencyTTL = 24 * time.Hour

// StateStore persists matter state.
type StateStore interface {
	// Get returns the state, or nil when the matter has none yet.
	Get(ctx context.Context, orgID, matterID string) (*matter.State, error)
	Put(ctx context.Context, orgID, matterID string, s matter.State) error
}

// IdempotencyStore caches advance responses keyed by idempotency key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, orgID, matterID, key string) ([]byte, bool, error)
	Save(ctx context.Context, orgID, matterID, key string, response []byte) error
}

// Store is the SQLite implementation of StateStore and IdempotencyStore.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get loads a matter's state. A matter with no state returns (nil, nil).
func (s *Store) Get(ctx context.Context, orgID, matterID string) (*matter.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM matter_states WHERE organization_id = ? AND matter_id = ?",
		orgID, matterID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying matter state: %w", err)
	}

	var state matter.State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding matter state: %w", err)
	}
	return &state, nil
}

// Put upserts a matter's state as a JSON document.
func (s *Store) Put(ctx context.Context, orgID, matterID string, state matter.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding matter state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matter_states (organization_id, matter_id, state, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(organization_id, matter_id)
		DO UPDATE SET state = excluded.state, updated_at = datetime('now')`,
		orgID, matterID, string(raw))
	if err != nil {
		return fmt.Errorf("writing matter state: %w", err)
	}
	return nil
}

// Lookup returns the cached response for the key if one exists and is
// fresh.
func (s *Store) Lookup(ctx context.Context, orgID, matterID, key string) ([]byte, bool, error) {
	var (
		response string
		created  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT response, created_at FROM idempotency_keys
		WHERE organization_id = ? AND matter_id = ? AND idempotency_key = ?`,
		orgID, matterID, key).Scan(&response, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying idempotency key: %w", err)
	}

	createdAt := db.ParseTime(created)
	if !createdAt.IsZero() && time.Since(createdAt) > idempotencyTTL {
		return nil, false, nil
	}
	return []byte(response), true, nil
}

// Save caches a response under the key. First write wins; a replayed key
// keeps the original response.
func (s *Store) Save(ctx context.Context, orgID, matterID, key string, response []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO idempotency_keys (organization_id, matter_id, idempotency_key, response)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(organization_id, matter_id, idempotency_key) DO NOTHING`,
		orgID, matterID, key, string(response))
	if err != nil {
		return fmt.Errorf("writing idempotency key: %w", err)
	}
	return nil
}

// Purge deletes cached responses older than the TTL.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM idempotency_keys WHERE created_at < datetime('now', ?)",
		fmt.Sprintf("-%d hours", int(idempotencyTTL.Hours())))
	if err != nil {
		return 0, fmt.Errorf("purging idempotency keys: %w", err)
	}
	return res.RowsAffected()
}
