package chat

import (
	"errors"
	"testing"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/store"
	"github.com/stretchr/testify/require"
)

func TestNewSeenVector(t *testing.T) {
	require.Nil(t, NewSeenVector(0))
	require.Nil(t, NewSeenVector(1))
	require.Equal(t, []bool{false}, NewSeenVector(2))
	require.Equal(t, []bool{false, false, false}, NewSeenVector(4))
}

func TestIsSeenBy_OriginAlwaysSeen(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob"},
		Seen:         []bool{false},
	}
	seen, err := IsSeenBy(msg, "alice")
	require.NoError(t, err)
	require.True(t, seen)
}

func TestIsSeenBy_RecipientSlots(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob", "carol"},
		Seen:         []bool{true, false},
	}

	seen, err := IsSeenBy(msg, "bob")
	require.NoError(t, err)
	require.True(t, seen)

	seen, err = IsSeenBy(msg, "carol")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestIsSeenBy_NotAParticipant(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob"},
		Seen:         []bool{false},
	}
	_, err := IsSeenBy(msg, "mallory")

	var notParticipant *store.NotAParticipantError
	require.True(t, errors.As(err, &notParticipant))
	require.Equal(t, "mallory", notParticipant.UserID)
}

func TestIsSeenBy_ShortVectorReadsUnseen(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob", "carol"},
		Seen:         []bool{true},
	}
	seen, err := IsSeenBy(msg, "carol")
	require.NoError(t, err)
	require.False(t, seen)
}

func TestMarkSeenBy_Transition(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob", "carol"},
		Seen:         []bool{false, false},
	}

	updated, changed, err := MarkSeenBy(msg, "bob")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []bool{true, false}, updated.Seen)

	// The input message is untouched.
	require.Equal(t, []bool{false, false}, msg.Seen)
}

func TestMarkSeenBy_Idempotent(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob"},
		Seen:         []bool{true},
	}
	updated, changed, err := MarkSeenBy(msg, "bob")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, []bool{true}, updated.Seen)
}

func TestMarkSeenBy_OriginIsNoop(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob"},
		Seen:         []bool{false},
	}
	_, changed, err := MarkSeenBy(msg, "alice")
	require.NoError(t, err)
	require.False(t, changed)
}

func TestMarkSeenBy_NotAParticipant(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob"},
		Seen:         []bool{false},
	}
	_, changed, err := MarkSeenBy(msg, "mallory")
	require.False(t, changed)

	var notParticipant *store.NotAParticipantError
	require.True(t, errors.As(err, &notParticipant))
}

func TestMarkSeenBy_ResizesShortVector(t *testing.T) {
	msg := model.Message{
		Participants: []string{"alice", "bob", "carol"},
		Seen:         []bool{true},
	}
	updated, changed, err := MarkSeenBy(msg, "carol")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []bool{true, true}, updated.Seen)
}
