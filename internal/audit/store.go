package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawdesk/matterflow/internal/db"
)

// Store provides persistence for audit entries. It implements Sink.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit entry. If entry.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, entry Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}

	oldValues, err := marshalMap(entry.OldValues)
	if err != nil {
		return fmt.Errorf("marshalling old values: %w", err)
	}
	newValues, err := marshalMap(entry.NewValues)
	if err != nil {
		return fmt.Errorf("marshalling new values: %w", err)
	}
	metadata, err := marshalMap(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, organization_id, matter_id, actor, action,
			old_values, new_values, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.OrganizationID,
		entry.MatterID,
		entry.Actor,
		string(entry.Action),
		oldValues,
		newValues,
		metadata,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}
	return nil
}

// GetByID retrieves a single audit entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, organization_id, matter_id, actor, action,
			   old_values, new_values, metadata
		FROM audit_entries WHERE id = ?`, id)
	return scanInto(row)
}

// QueryFilter controls which audit entries are returned by Query.
type QueryFilter struct {
	OrganizationID string
	MatterID       string
	Actor          string
	Action         Action
	Since          *time.Time
	Until          *time.Time
	Limit          int
	Offset         int
}

// Query returns audit entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.OrganizationID != "" {
		clauses = append(clauses, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}
	if filter.MatterID != "" {
		clauses = append(clauses, "matter_id = ?")
		args = append(args, filter.MatterID)
	}
	if filter.Actor != "" {
		clauses = append(clauses, "actor = ?")
		args = append(args, filter.Actor)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT id, timestamp, organization_id, matter_id, actor, action, old_values, new_values, metadata FROM audit_entries"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteBefore removes all audit entries older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit entries: %w", err)
	}
	return res.RowsAffected()
}

func marshalMap(m map[string]string) (string, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                              Entry
		ts, action                     string
		oldValues, newValues, metadata string
	)

	err := sc.Scan(
		&e.ID, &ts, &e.OrganizationID, &e.MatterID, &e.Actor, &action,
		&oldValues, &newValues, &metadata,
	)
	if err != nil {
		return nil, err
	}

	e.Action = Action(action)

	e.Timestamp = db.ParseTime(ts)

	if err := json.Unmarshal([]byte(oldValues), &e.OldValues); err != nil {
		e.OldValues = nil
	}
	if err := json.Unmarshal([]byte(newValues), &e.NewValues); err != nil {
		e.NewValues = nil
	}
	if err := json.Unmarshal([]byte(metadata), &e.Metadata); err != nil {
		e.Metadata = nil
	}

	return &e, nil
}
