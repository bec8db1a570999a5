package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the notification does not exist.
var ErrNotFound = errors.New("notify: notification not found")

// Repository defines the interface for notification storage.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// InMemoryRepository keeps notifications in a map for tests and demo mode.
type InMemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*Notification
	order []string
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{byID: make(map[string]*Notification)}
}

func (r *InMemoryRepository) Insert(ctx context.Context, n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	stored := *n
	r.byID[n.ID] = &stored
	r.order = append(r.order, n.ID)
	return nil
}

func (r *InMemoryRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Notification
	for _, id := range r.order {
		n := r.byID[id]
		if n.UserID == userID {
			copied := *n
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *InMemoryRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.byID {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *InMemoryRepository) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.byID[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (r *InMemoryRepository) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.byID {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

// PostgresRepository stores notifications in the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("notify: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Insert(ctx context.Context, n *Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	query := `
		INSERT INTO notifications (id, user_id, title, message, type, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		n.ID, n.UserID, n.Title, n.Message, string(n.Type), n.RelatedID,
	).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("notify: insert failed: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, user_id, title, message, type, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list failed: %w", err)
	}
	defer rows.Close()

	var result []*Notification
	for rows.Next() {
		var n Notification
		var kind string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &kind, &n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("notify: scan failed: %w", err)
		}
		n.Type = Type(kind)
		result = append(result, &n)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notify: unread count failed: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) MarkRead(ctx context.Context, userID, id string) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("notify: mark read failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return fmt.Errorf("notify: mark all read failed: %w", err)
	}
	return nil
}
