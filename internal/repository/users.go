package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/streamchat/internal/domain"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// FindSignedIn returns the identity bound to a Telegram account, or
// domain.ErrUserNotFound when the account is unknown or signed out.
func (r *UserRepository) FindSignedIn(ctx context.Context, telegramID int64) (domain.Identity, error) {
	var ident domain.Identity
	err := r.db.QueryRow(ctx, `
		SELECT id::text, display_name FROM users
		WHERE telegram_id = $1 AND signed_in`, telegramID).Scan(&ident.OwnerID, &ident.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Identity{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("find user: %w", err)
	}
	return ident, nil
}

// SignIn creates or refreshes the account and marks it signed in.
func (r *UserRepository) SignIn(ctx context.Context, telegramID int64, displayName string) (domain.Identity, error) {
	var ident domain.Identity
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, telegram_id, display_name, signed_in)
		VALUES ($1::uuid, $2, $3, TRUE)
		ON CONFLICT (telegram_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, signed_in = TRUE, updated_at = now()
		RETURNING id::text, display_name`,
		uuid.New().String(), telegramID, displayName).Scan(&ident.OwnerID, &ident.DisplayName)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("sign in: %w", err)
	}
	return ident, nil
}

// SignOut keeps the account and its sessions but stops resolving it.
func (r *UserRepository) SignOut(ctx context.Context, telegramID int64) error {
	if _, err := r.db.Exec(ctx, `
		UPDATE users SET signed_in = FALSE, updated_at = now()
		WHERE telegram_id = $1`, telegramID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}
