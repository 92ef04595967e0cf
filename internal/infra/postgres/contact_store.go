package postgres

import (
	"context"
	"fmt"

	"board-reviewer/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContactStore records contact-form submissions.
type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

func (s *ContactStore) SaveContact(ctx context.Context, msg domain.ContactMessage) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contact_messages (name, email, message, ip, user_agent, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.Name, msg.Email, msg.Message, msg.IP, msg.UserAgent, msg.ReceivedAt)
	if err != nil {
		return fmt.Errorf("save contact message: %w", err)
	}
	return nil
}
