package authz

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lawdesk/matterflow/internal/db"
)

// Store implements Authenticator and Directory on SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Authenticate resolves the request's bearer token. Tokens are stored as
// SHA-256 hashes; the plaintext is only ever shown once, at creation.
func (s *Store) Authenticate(ctx context.Context, r *http.Request) (*Identity, error) {
	token := BearerToken(r)
	if token == "" {
		return nil, ErrUnauthorized
	}

	hash := hashToken(token)

	var (
		id        Identity
		scope     string
		expiresAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, organization_id, scope, expires_at
		FROM api_tokens WHERE token_hash = ?`, hash).
		Scan(&id.TokenID, &id.Name, &id.OrganizationID, &scope, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("looking up token: %w", err)
	}

	if expiresAt.Valid {
		if t := db.ParseTime(expiresAt.String); !t.IsZero() && time.Now().UTC().After(t) {
			return nil, ErrUnauthorized
		}
	}

	id.Scope = Scope(scope)

	// Best-effort usage tracking; failure never blocks the request.
	_, _ = s.db.ExecContext(ctx,
		"UPDATE api_tokens SET last_used = datetime('now') WHERE id = ?", id.TokenID)

	return &id, nil
}

// OrgExists reports whether the organization is registered.
func (s *Store) OrgExists(ctx context.Context, orgID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM organizations WHERE id = ?", orgID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up organization: %w", err)
	}
	return true, nil
}

// MatterExists reports whether the matter is registered under the
// organization.
func (s *Store) MatterExists(ctx context.Context, orgID, matterID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM matters WHERE organization_id = ? AND id = ?", orgID, matterID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up matter: %w", err)
	}
	return true, nil
}

// EnsureMatter registers the matter under the organization if absent.
func (s *Store) EnsureMatter(ctx context.Context, orgID, matterID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matters (id, organization_id) VALUES (?, ?)
		ON CONFLICT(organization_id, id) DO NOTHING`, matterID, orgID)
	if err != nil {
		return fmt.Errorf("registering matter: %w", err)
	}
	return nil
}

// CreateOrganization registers an organization, ignoring duplicates.
func (s *Store) CreateOrganization(ctx context.Context, id, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING`, id, name)
	if err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}
	return nil
}

// CreateToken mints a new API token bound to an organization and returns
// the plaintext exactly once.
func (s *Store) CreateToken(ctx context.Context, name, orgID string, scope Scope) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	plaintext := "mf_" + hex.EncodeToString(raw)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_tokens (id, name, token_hash, organization_id, scope)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), name, hashToken(plaintext), orgID, string(scope))
	if err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return plaintext, nil
}

// ListTokens returns token metadata (never the plaintext or hash) for an
// organization.
func (s *Store) ListTokens(ctx context.Context, orgID string) ([]Identity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, organization_id, scope
		FROM api_tokens WHERE organization_id = ? ORDER BY created_at`, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []Identity
	for rows.Next() {
		var id Identity
		var scope string
		if err := rows.Scan(&id.TokenID, &id.Name, &id.OrganizationID, &scope); err != nil {
			return nil, err
		}
		id.Scope = Scope(scope)
		tokens = append(tokens, id)
	}
	return tokens, rows.Err()
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
