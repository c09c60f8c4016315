package store

import (
	"errors"

	"ideaforge/pkg/domain"
)

// ErrNotFound is returned by mutation helpers that target a missing record.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for users, assistants, threads, and
// chat messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	HasUserEmail(email string) (bool, error)
	FindAnonymousUser(deviceID string, platform domain.Platform) (domain.User, bool, error)

	// assistants
	SaveAssistant(domain.Assistant) error
	GetActiveAssistant(appID string) (domain.Assistant, bool, error)
	GetAssistant(id string) (domain.Assistant, bool, error)
	ListActiveAssistants() ([]domain.Assistant, error)
	AssistantCount() (int, error)

	// threads
	CreateThread(domain.Thread) error
	GetThreadByOwner(id, userID string) (domain.Thread, bool, error)
	ListThreadsByUser(userID string) ([]domain.Thread, error)
	ListRecentThreads(appType string, limit int) ([]domain.Thread, error)
	FindThreadByShareID(shareID string) (domain.Thread, bool, error)
	DeleteThread(id, userID string) (bool, error)

	// UpdateThreadMetadata re-reads the thread inside a transaction, applies
	// the mutation, and writes the metadata document back, so interleaved
	// refine/save/share appends serialize instead of overwriting each other.
	UpdateThreadMetadata(id string, apply func(*domain.ThreadMetadata) error) error

	// messages
	AppendMessagePair(userMsg, assistantMsg domain.Message) error
	ListCardMessages(threadID, cardID string) ([]domain.Message, error)
}
