package handoff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lawdesk/matterflow/internal/db"
)

// ListFilter controls which notifications are returned by List.
type ListFilter struct {
	OrganizationID string
	MatterID       string
	Delivered      *bool
	Since          time.Time
	Limit          int
	Offset         int
}

// Store provides persistence for handoff notifications.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new notification. If n.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, n Notification) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	delivered := 0
	if n.Delivered {
		delivered = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO handoff_notifications (id, organization_id, matter_id, reason, message, risk_level, delivered)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OrganizationID, n.MatterID, n.Reason, n.Message, n.RiskLevel, delivered)
	if err != nil {
		return "", fmt.Errorf("inserting handoff notification: %w", err)
	}
	return n.ID, nil
}

// MarkDelivered records successful webhook delivery.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE handoff_notifications SET delivered = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking handoff delivered: %w", err)
	}
	return nil
}

// List returns notifications matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Notification, error) {
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
	if filter.Delivered != nil {
		clauses = append(clauses, "delivered = ?")
		if *filter.Delivered {
			args = append(args, 1)
		} else {
			args = append(args, 0)
		}
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, organization_id, matter_id, reason, message, risk_level, delivered, created_at FROM handoff_notifications"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying handoff notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var (
			n         Notification
			ts        string
			delivered int
		)
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.MatterID, &n.Reason, &n.Message, &n.RiskLevel, &delivered, &ts); err != nil {
			return nil, err
		}
		n.Delivered = delivered == 1
		n.CreatedAt = db.ParseTime(ts)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
