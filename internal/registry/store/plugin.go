package store

import (
	"context"
	"fmt"

	"github.com/chatstack/chat-service/internal/model"
)

// MessageStore is the narrow document-store contract the engine consumes.
//
// The backend is expected to provide read-your-writes consistency per
// connection but no transactions across documents: the append-then-fanout
// sequence is explicitly not atomic.
type MessageStore interface {
	// AppendMessage writes a new message to the log. The store assigns the
	// surrogate id when the message has none.
	AppendMessage(ctx context.Context, msg *model.Message) error

	// MessagesByParticipant returns every message whose participant list
	// contains userID, in document order. The order carries no guarantee
	// stronger than the backend provides.
	MessagesByParticipant(ctx context.Context, userID string) ([]model.Message, error)

	// MessagesByParticipantSet returns the messages of one conversation:
	// groupID must match exactly (empty matching absent) and the participant
	// list must contain every given participant.
	MessagesByParticipantSet(ctx context.Context, participants []string, groupID string) ([]model.Message, error)

	// UpdateSeen persists the message's mutated seen vector. Messages are
	// addressed by surrogate id when present, otherwise by the
	// (participants, sentAt) composite key.
	UpdateSeen(ctx context.Context, msg model.Message) error

	// FindGroup looks up a conversation target in the group directory.
	// Returns (nil, nil) when the id names no group; an error is a lookup
	// failure, which callers must not treat as "not found".
	FindGroup(ctx context.Context, id string) (*model.Group, error)

	// SaveGroup creates or replaces a group. Reports created=true when the
	// id was previously unknown.
	SaveGroup(ctx context.Context, group model.Group) (created bool, err error)

	// ListGroups returns the full group directory.
	ListGroups(ctx context.Context) ([]model.Group, error)

	// GetUser returns a user profile, or NotFoundError.
	GetUser(ctx context.Context, id string) (*model.User, error)

	// ListUsers returns the user directory.
	ListUsers(ctx context.Context) ([]model.User, error)

	// SaveUser upserts a user profile.
	SaveUser(ctx context.Context, user model.User) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// Loader creates a store from config carried in ctx.
type Loader func(ctx context.Context) (MessageStore, error)

// Plugin represents a store backend plugin.
type Plugin struct {
	Name   string
	Loader Loader
}

var plugins []Plugin

// Register adds a store plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	plugins = append(plugins, p)
}

// Names returns all registered store plugin names.
func Names() []string {
	names := make([]string, len(plugins))
	for i, p := range plugins {
		names[i] = p.Name
	}
	return names
}

// Select returns the loader for the named store plugin.
func Select(name string) (Loader, error) {
	for _, p := range plugins {
		if p.Name == name {
			return p.Loader, nil
		}
	}
	return nil, fmt.Errorf("unknown store %q; valid: %v", name, Names())
}
