package domain

import "time"

// SessionInfo describes a durably stored chat session.
type SessionInfo struct {
	ID          string
	Name        string
	Model       string
	Temperature float64
	Messages    []Message
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Identity is who a chat belongs to. An empty OwnerID means anonymous.
type Identity struct {
	OwnerID     string
	DisplayName string
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAnonymous() bool {
	return i.OwnerID == ""
}
