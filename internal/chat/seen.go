// Package chat implements the conversation engine: target resolution,
// seen-vector accounting, summary aggregation, and the send path.
package chat

import (
	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/store"
)

// The seen vector excludes the sender: slot i tracks Participants[i+1].
// All index arithmetic between participant order and the vector lives in
// this file; no other package may index Message.Seen.

// NewSeenVector returns the initial seen vector for a message with the given
// participant count: one false per non-sender participant.
func NewSeenVector(participantCount int) []bool {
	if participantCount < 2 {
		return nil
	}
	return make([]bool, participantCount-1)
}

// ParticipantIndex returns the position of userID in the participant list.
func ParticipantIndex(participants []string, userID string) (int, bool) {
	for i, p := range participants {
		if p == userID {
			return i, true
		}
	}
	return 0, false
}

// IsSeenBy reports whether userID has seen the message. The origin has by
// definition seen its own message. A userID outside the participant list is
// a contract violation.
func IsSeenBy(msg model.Message, userID string) (bool, error) {
	idx, ok := ParticipantIndex(msg.Participants, userID)
	if !ok {
		return false, &store.NotAParticipantError{UserID: userID}
	}
	if idx == 0 {
		return true, nil
	}
	slot := idx - 1
	if slot >= len(msg.Seen) {
		// Short vector from a legacy document: unseen.
		return false, nil
	}
	return msg.Seen[slot], nil
}

// MarkSeenBy returns a copy of the message with userID's slot set, and
// whether that changed anything. Marking the origin, or a participant whose
// slot is already set, is a no-op with changed=false, so callers can skip
// the persist. Slots only ever transition false to true.
func MarkSeenBy(msg model.Message, userID string) (model.Message, bool, error) {
	idx, ok := ParticipantIndex(msg.Participants, userID)
	if !ok {
		return msg, false, &store.NotAParticipantError{UserID: userID}
	}
	if idx == 0 {
		return msg, false, nil
	}
	slot := idx - 1
	if slot < len(msg.Seen) && msg.Seen[slot] {
		return msg, false, nil
	}
	out := msg.Clone()
	if len(out.Seen) < len(out.Participants)-1 {
		resized := NewSeenVector(len(out.Participants))
		copy(resized, out.Seen)
		out.Seen = resized
	}
	out.Seen[slot] = true
	return out, true, nil
}
