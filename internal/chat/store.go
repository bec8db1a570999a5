package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrEmptyMessage is returned when a message has no content.
var ErrEmptyMessage = errors.New("chat: message content required")

// Store is the durable message store.
type Store interface {
	Append(ctx context.Context, msg *Message) error
	History(ctx context.Context, appointmentID string, limit int) ([]Message, error)
	MarkRead(ctx context.Context, appointmentID, readerID string) error
	UnreadCount(ctx context.Context, appointmentID, readerID string) (int, error)
}

// InMemoryStore keeps messages per appointment for tests and demo mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]Message
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[string][]Message)}
}

func (s *InMemoryStore) Append(ctx context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now().UTC()
	}
	s.messages[msg.AppointmentID] = append(s.messages[msg.AppointmentID], *msg)
	return nil
}

func (s *InMemoryStore) History(ctx context.Context, appointmentID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[appointmentID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]Message, len(all))
	copy(out, all)
	return out, nil
}

func (s *InMemoryStore) MarkRead(ctx context.Context, appointmentID, readerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[appointmentID]
	for i := range msgs {
		if msgs[i].SenderID != readerID {
			msgs[i].IsRead = true
		}
	}
	return nil
}

func (s *InMemoryStore) UnreadCount(ctx context.Context, appointmentID, readerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.messages[appointmentID] {
		if m.SenderID != readerID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

// PostgresStore is the durable message store backed by pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore initializes a chat store over the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("chat: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, msg *Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	query := `
		INSERT INTO chat_messages (id, appointment_id, sender_id, content)
		VALUES ($1, $2, $3, $4)
		RETURNING sent_at
	`
	if err := s.pool.QueryRow(ctx, query,
		msg.ID, msg.AppointmentID, msg.SenderID, msg.Content,
	).Scan(&msg.SentAt); err != nil {
		return fmt.Errorf("chat: append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, appointmentID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	// Newest window of the thread, returned in chronological order.
	query := `
		SELECT id, appointment_id, sender_id, content, is_read, sent_at
		FROM (
			SELECT id, appointment_id, sender_id, content, is_read, sent_at
			FROM chat_messages
			WHERE appointment_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		) recent
		ORDER BY sent_at ASC
	`
	rows, err := s.pool.Query(ctx, query, appointmentID, limit)
	if err != nil {
		return nil, fmt.Errorf("chat: load history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.AppointmentID, &m.SenderID, &m.Content, &m.IsRead, &m.SentAt); err != nil {
			return nil, fmt.Errorf("chat: scan message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, appointmentID, readerID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE chat_messages SET is_read = true WHERE appointment_id = $1 AND sender_id <> $2 AND NOT is_read`,
		appointmentID, readerID)
	if err != nil {
		return fmt.Errorf("chat: mark read: %w", err)
	}
	return nil
}

func (s *PostgresStore) UnreadCount(ctx context.Context, appointmentID, readerID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM chat_messages WHERE appointment_id = $1 AND sender_id <> $2 AND NOT is_read`,
		appointmentID, readerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("chat: unread count: %w", err)
	}
	return count, nil
}
