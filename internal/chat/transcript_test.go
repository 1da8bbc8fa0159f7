package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/streamchat/internal/domain"
)

func TestTranscript(t *testing.T) {
	tr := NewTranscript([]domain.Message{{Role: domain.RoleUser, Content: "a"}})
	i := tr.Append(domain.Message{Role: domain.RoleAssistant})
	assert.Equal(t, 1, i)

	require.NoError(t, tr.Replace(i, domain.Message{Role: domain.RoleAssistant, Content: "b"}))
	assert.Error(t, tr.Replace(5, domain.Message{}))
	assert.Error(t, tr.Replace(-1, domain.Message{}))

	snap := tr.Snapshot()
	snap[0].Content = "mutated"
	assert.Equal(t, "a", tr.Snapshot()[0].Content)
	assert.Equal(t, 2, tr.Len())

	tr.Reset()
	assert.Zero(t, tr.Len())
}
