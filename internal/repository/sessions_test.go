package repository

import (
	"context"
	"io/fs"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	streamchat "github.com/set-night/streamchat"
	"github.com/set-night/streamchat/internal/domain"
)

// openTestPool connects to TEST_DATABASE_URL and applies the migrations.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	migrations, err := fs.Sub(streamchat.MigrationsFS, "migrations")
	require.NoError(t, err)
	require.NoError(t, RunMigrations(url, migrations))

	pool, err := NewPool(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestSessionRepository(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	users := NewUserRepository(pool)
	telegramID := int64(uuid.New().ID())
	ident, err := users.SignIn(ctx, telegramID, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", ident.DisplayName)

	found, err := users.FindSignedIn(ctx, telegramID)
	require.NoError(t, err)
	assert.Equal(t, ident, found)

	repo := NewSessionRepository(pool, "test-model", 0.7)
	id, err := repo.CreateSession(ctx, ident.OwnerID, "Work")
	require.NoError(t, err)

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}
	require.NoError(t, repo.SaveMessages(ctx, ident.OwnerID, id, msgs))

	list, err := repo.ListSessions(ctx, ident.OwnerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Work", list[0].Name)
	assert.Equal(t, "test-model", list[0].Model)
	assert.InDelta(t, 0.7, list[0].Temperature, 1e-9)
	assert.Equal(t, msgs, list[0].Messages)

	require.NoError(t, repo.DeleteSession(ctx, ident.OwnerID, id))
	require.ErrorIs(t, repo.DeleteSession(ctx, ident.OwnerID, id), domain.ErrSessionNotFound)
	require.ErrorIs(t, repo.SaveMessages(ctx, ident.OwnerID, id, msgs), domain.ErrSessionNotFound)

	require.NoError(t, users.SignOut(ctx, telegramID))
	_, err = users.FindSignedIn(ctx, telegramID)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
