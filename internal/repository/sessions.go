package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/set-night/streamchat/internal/domain"
)

// SessionRepository stores named chat sessions and their transcripts in Postgres.
// New sessions record the model and temperature they were started with.
type SessionRepository struct {
	db          *pgxpool.Pool
	model       string
	temperature decimal.Decimal
}

func NewSessionRepository(db *pgxpool.Pool, model string, temperature float64) *SessionRepository {
	return &SessionRepository{
		db:          db,
		model:       model,
		temperature: decimal.NewFromFloat(temperature).Round(2),
	}
}

func (r *SessionRepository) ListSessions(ctx context.Context, ownerID string) ([]domain.SessionInfo, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("parse owner id: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id::text, name, model, temperature, messages, created_at, updated_at
		FROM chat_sessions
		WHERE owner_id = $1::uuid
		ORDER BY created_at`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.SessionInfo
	for rows.Next() {
		var (
			s                    domain.SessionInfo
			temperature          decimal.Decimal
			messages             []byte
			createdAt, updatedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Model, &temperature, &messages, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if err := json.Unmarshal(messages, &s.Messages); err != nil {
			return nil, fmt.Errorf("decode session %s messages: %w", s.ID, err)
		}
		s.Temperature = decimalToFloat(temperature)
		s.CreatedAt = pgTimestamptzToTime(createdAt)
		s.UpdatedAt = pgTimestamptzToTime(updatedAt)
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, ownerID, name string) (string, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return "", fmt.Errorf("parse owner id: %w", err)
	}

	id := uuid.New()
	_, err = r.db.Exec(ctx, `
		INSERT INTO chat_sessions (id, owner_id, name, model, temperature)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5)`,
		id.String(), owner.String(), name, r.model, r.temperature)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id.String(), nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM chat_sessions WHERE id = $1::uuid AND owner_id = $2::uuid`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// SaveMessages replaces the stored transcript of a session.
func (r *SessionRepository) SaveMessages(ctx context.Context, ownerID, id string, msgs []domain.Message) error {
	if msgs == nil {
		msgs = []domain.Message{}
	}
	payload, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE chat_sessions SET messages = $3::jsonb, updated_at = now()
		WHERE id = $1::uuid AND owner_id = $2::uuid`, id, ownerID, string(payload))
	if err != nil {
		return fmt.Errorf("save messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
