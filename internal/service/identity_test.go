package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/streamchat/internal/domain"
)

type fakeUsers struct {
	signedIn map[int64]domain.Identity
	findErr  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{signedIn: make(map[int64]domain.Identity)}
}

func (f *fakeUsers) FindSignedIn(_ context.Context, id int64) (domain.Identity, error) {
	if f.findErr != nil {
		return domain.Identity{}, f.findErr
	}
	ident, ok := f.signedIn[id]
	if !ok {
		return domain.Identity{}, domain.ErrUserNotFound
	}
	return ident, nil
}

func (f *fakeUsers) SignIn(_ context.Context, id int64, name string) (domain.Identity, error) {
	ident := domain.Identity{OwnerID: "owner-" + name, DisplayName: name}
	f.signedIn[id] = ident
	return ident, nil
}

func (f *fakeUsers) SignOut(_ context.Context, id int64) error {
	delete(f.signedIn, id)
	return nil
}

func TestIdentityResolve(t *testing.T) {
	users := newFakeUsers()
	svc := NewIdentityService(users)
	ctx := context.Background()

	ident, err := svc.Resolve(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ident.IsAnonymous())

	_, err = svc.SignIn(ctx, 42, "  ada ")
	require.NoError(t, err)

	ident, err = svc.Resolve(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "owner-ada", ident.OwnerID)
	assert.Equal(t, "ada", ident.DisplayName)

	require.NoError(t, svc.SignOut(ctx, 42))
	ident, err = svc.Resolve(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ident.IsAnonymous())
}

func TestIdentitySignInEmptyName(t *testing.T) {
	svc := NewIdentityService(newFakeUsers())
	_, err := svc.SignIn(context.Background(), 1, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestIdentityResolveError(t *testing.T) {
	users := newFakeUsers()
	users.findErr = errors.New("connection refused")
	svc := NewIdentityService(users)

	_, err := svc.Resolve(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve identity")
}
