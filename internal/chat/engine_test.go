package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/plugin/store/memory"
	"github.com/chatstack/chat-service/internal/registry/store"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	written []model.Message
	seen    []model.Message
}

func (n *recordingNotifier) MessageWritten(_ context.Context, msg model.Message) {
	n.written = append(n.written, msg)
}

func (n *recordingNotifier) SeenUpdated(_ context.Context, msg model.Message) {
	n.seen = append(n.seen, msg)
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	notifier := &recordingNotifier{}
	return NewEngine(st, NewResolver(st), notifier), st, notifier
}

func TestSend_DirectMessage(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	ctx := context.Background()

	msg, err := engine.Send(ctx, "alice", "bob", "hi", 100)
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, []string{"alice", "bob"}, msg.Participants)
	require.Empty(t, msg.GroupID)
	require.Equal(t, []bool{false}, msg.Seen)
	require.Len(t, notifier.written, 1)
	require.Equal(t, msg.ID, notifier.written[0].ID)
}

func TestSend_GroupMessage(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := st.SaveGroup(ctx, model.Group{ID: "team", Users: []string{"alice", "bob", "carol"}})
	require.NoError(t, err)

	msg, err := engine.Send(ctx, "alice", "team", "standup?", 100)
	require.NoError(t, err)
	require.Equal(t, "team", msg.GroupID)
	require.Equal(t, []string{"alice", "bob", "carol"}, msg.Participants)
	require.Equal(t, []bool{false, false}, msg.Seen)
}

func TestSend_Validation(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		sender string
		target string
		body   string
		sentAt int64
		field  string
	}{
		{"missing sender", "", "bob", "hi", 100, "sender"},
		{"missing target", "alice", "", "hi", 100, "target"},
		{"missing body", "alice", "bob", "", 100, "body"},
		{"zero timestamp", "alice", "bob", "hi", 0, "sent"},
		{"negative timestamp", "alice", "bob", "hi", -5, "sent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Send(ctx, tc.sender, tc.target, tc.body, tc.sentAt)
			var validation *store.ValidationError
			require.True(t, errors.As(err, &validation))
			require.Equal(t, tc.field, validation.Field)
		})
	}
	require.Empty(t, notifier.written)
}

func TestSend_ResolveFailureAbortsWrite(t *testing.T) {
	st := memory.New()
	boom := errors.New("directory down")
	engine := NewEngine(st, NewResolver(&fakeGroupDirectory{err: boom}), nil)

	_, err := engine.Send(context.Background(), "alice", "bob", "hi", 100)
	require.ErrorIs(t, err, boom)

	msgs, err := st.MessagesByParticipant(context.Background(), "alice")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestThread_SortsAscendingAndMarksSeen(t *testing.T) {
	engine, st, notifier := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Send(ctx, "bob", "alice", "second", 20)
	require.NoError(t, err)
	_, err = engine.Send(ctx, "bob", "alice", "first", 10)
	require.NoError(t, err)
	_, err = engine.Send(ctx, "alice", "bob", "reply", 30)
	require.NoError(t, err)

	msgs, err := engine.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Body)
	require.Equal(t, "second", msgs[1].Body)
	require.Equal(t, "reply", msgs[2].Body)

	// Both of bob's messages transitioned to seen and were broadcast.
	for _, m := range msgs[:2] {
		seen, err := IsSeenBy(m, "alice")
		require.NoError(t, err)
		require.True(t, seen)
	}
	require.Len(t, notifier.seen, 2)

	// The transitions were persisted: a second read changes nothing.
	notifier.seen = nil
	_, err = engine.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Empty(t, notifier.seen)

	// Bob still has not seen alice's reply.
	stored, err := st.MessagesByParticipant(ctx, "bob")
	require.NoError(t, err)
	for _, m := range stored {
		if m.Origin() == "alice" {
			seen, err := IsSeenBy(m, "bob")
			require.NoError(t, err)
			require.False(t, seen)
		}
	}
}

func TestThread_GroupScopedByGroupID(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := st.SaveGroup(ctx, model.Group{ID: "team", Users: []string{"alice", "bob"}})
	require.NoError(t, err)

	_, err = engine.Send(ctx, "alice", "team", "in group", 10)
	require.NoError(t, err)
	_, err = engine.Send(ctx, "alice", "bob", "direct", 20)
	require.NoError(t, err)

	groupMsgs, err := engine.Thread(ctx, "alice", "team")
	require.NoError(t, err)
	require.Len(t, groupMsgs, 1)
	require.Equal(t, "in group", groupMsgs[0].Body)

	directMsgs, err := engine.Thread(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, directMsgs, 1)
	require.Equal(t, "direct", directMsgs[0].Body)
}

func TestThread_GroupMembershipEditHidesOlderMessages(t *testing.T) {
	engine, st, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := st.SaveGroup(ctx, model.Group{ID: "team", Users: []string{"dave", "eve"}})
	require.NoError(t, err)
	_, err = engine.Send(ctx, "dave", "team", "before the edit", 10)
	require.NoError(t, err)

	// After the membership edit the old message no longer contains the
	// current participant set and must not appear, nor be marked seen.
	_, err = st.SaveGroup(ctx, model.Group{ID: "team", Users: []string{"alice", "bob"}})
	require.NoError(t, err)

	msgs, err := engine.Thread(ctx, "alice", "team")
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestConversations_ThroughEngine(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.Send(ctx, "bob", "alice", "hello", 10)
	require.NoError(t, err)
	_, err = engine.Send(ctx, "carol", "alice", "hey", 20)
	require.NoError(t, err)

	summaries, err := engine.Conversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.Equal(t, "carol", summaries[0].User)
	require.True(t, summaries[0].AnyUnseen)
	require.Equal(t, "bob", summaries[1].User)
}

func TestNewEngine_NilNotifierDefaultsToNoop(t *testing.T) {
	st := memory.New()
	engine := NewEngine(st, NewResolver(st), nil)

	_, err := engine.Send(context.Background(), "alice", "bob", "hi", 100)
	require.NoError(t, err)
}
