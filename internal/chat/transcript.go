package chat

import (
	"fmt"

	"github.com/set-night/streamchat/internal/domain"
)

// Transcript is the ordered message history of one session. It only grows, except
// that a single entry may be swapped out whole with Replace.
type Transcript struct {
	messages []domain.Message
}

func NewTranscript(msgs []domain.Message) *Transcript {
	return &Transcript{messages: domain.CloneMessages(msgs)}
}

// Append adds msg and returns its index.
func (t *Transcript) Append(msg domain.Message) int {
	t.messages = append(t.messages, msg)
	return len(t.messages) - 1
}

// Replace swaps the message at index i for msg.
func (t *Transcript) Replace(i int, msg domain.Message) error {
	if i < 0 || i >= len(t.messages) {
		return fmt.Errorf("replace message %d: index out of range [0,%d)", i, len(t.messages))
	}
	t.messages[i] = msg
	return nil
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

// Snapshot returns a copy of the messages that the caller owns.
func (t *Transcript) Snapshot() []domain.Message {
	return domain.CloneMessages(t.messages)
}

func (t *Transcript) Reset() {
	t.messages = nil
}
