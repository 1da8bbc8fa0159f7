package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/set-night/streamchat/internal/domain"
)

type UserStore interface {
	FindSignedIn(ctx context.Context, telegramID int64) (domain.Identity, error)
	SignIn(ctx context.Context, telegramID int64, displayName string) (domain.Identity, error)
	SignOut(ctx context.Context, telegramID int64) error
}

// IdentityService tells the chat layer whether a Telegram account is signed in.
type IdentityService struct {
	users UserStore
}

func NewIdentityService(users UserStore) *IdentityService {
	return &IdentityService{users: users}
}

// Resolve returns the signed-in identity, or domain.Anonymous() for unknown accounts.
func (s *IdentityService) Resolve(ctx context.Context, telegramID int64) (domain.Identity, error) {
	ident, err := s.users.FindSignedIn(ctx, telegramID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Anonymous(), nil
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("resolve identity: %w", err)
	}
	return ident, nil
}

func (s *IdentityService) SignIn(ctx context.Context, telegramID int64, displayName string) (domain.Identity, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return domain.Identity{}, domain.ErrEmptyInput
	}
	return s.users.SignIn(ctx, telegramID, displayName)
}

func (s *IdentityService) SignOut(ctx context.Context, telegramID int64) error {
	return s.users.SignOut(ctx, telegramID)
}
