package model

import (
	"time"
)

// Message is one entry in the append-only conversation log.
//
// Participants is ordered and at least two long; index 0 is the sender and is
// never reassigned. Seen holds one flag per non-sender participant, aligned
// with Participants[1:]. Only the chat seen-vector codec may index Seen.
type Message struct {
	ID           string   `json:"id,omitempty"`
	Participants []string `json:"participants"`
	GroupID      string   `json:"groupId,omitempty"`
	SentAt       int64    `json:"sent"`
	Body         string   `json:"body"`
	Seen         []bool   `json:"seen"`
}

// Origin returns the sender of the message.
func (m Message) Origin() string {
	if len(m.Participants) == 0 {
		return ""
	}
	return m.Participants[0]
}

// IsGroup reports whether the message belongs to a named group conversation.
func (m Message) IsGroup() bool { return m.GroupID != "" }

// Clone returns a copy of the message with its own seen vector, so codec
// mutations never alias a message held elsewhere.
func (m Message) Clone() Message {
	out := m
	out.Participants = append([]string(nil), m.Participants...)
	out.Seen = append([]bool(nil), m.Seen...)
	return out
}

// Group is a named conversation target. Its id shares a namespace with user
// ids: resolving a conversation target first consults the group directory.
type Group struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Resolvable reports whether the group can address a conversation. A group
// with fewer than two members is treated as absent and resolution falls back
// to direct-message semantics.
func (g *Group) Resolvable() bool {
	return g != nil && len(g.Users) >= 2
}

// User is a chat participant profile. Identity issuance lives outside this
// service; users are mirrored here for directory listings only.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ConversationSummary is one row of a user's conversation list. It is derived
// from the message log and never persisted. User holds the counterpart
// identifier, which is a group id when IsGroup is set.
type ConversationSummary struct {
	User        string `json:"user"`
	IsGroup     bool   `json:"isGroup"`
	LastMessage int64  `json:"lastMessage"`
	AnyUnseen   bool   `json:"anyUnseen"`
}

// PushEventType discriminates realtime push payloads.
type PushEventType string

const (
	// PushMessage announces a newly written message.
	PushMessage PushEventType = "message"
	// PushSeen announces a seen-vector transition on an existing message.
	PushSeen PushEventType = "seen"
)

// PushEvent is the JSON payload written to a live websocket connection.
// Both event types carry the full message so connected clients converge on
// the current seen vector without per-recipient diffing.
type PushEvent struct {
	Type    PushEventType `json:"type"`
	Message Message       `json:"message"`
}
