package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeSeenWriter struct {
	updates []model.Message
	err     error
}

func (w *fakeSeenWriter) UpdateSeen(_ context.Context, msg model.Message) error {
	if w.err != nil {
		return w.err
	}
	w.updates = append(w.updates, msg.Clone())
	return nil
}

func groupMessage() model.Message {
	return model.Message{
		ID:           "m1",
		Participants: []string{"alice", "bob", "carol"},
		SentAt:       100,
		Body:         "hello",
		Seen:         []bool{false, false},
	}
}

func TestMessageWritten_SenderOfflineSkipsDelivery(t *testing.T) {
	registry := NewRegistry()
	bob := &fakeConn{}
	registry.Register("bob", bob)

	writer := &fakeSeenWriter{}
	f := NewFanout(writer, registry)
	f.MessageWritten(context.Background(), groupMessage())

	require.Empty(t, bob.pushed)
	require.Empty(t, writer.updates)
}

func TestMessageWritten_DeliversAndMarksSeen(t *testing.T) {
	registry := NewRegistry()
	alice := &fakeConn{}
	bob := &fakeConn{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)
	// carol is offline

	writer := &fakeSeenWriter{}
	f := NewFanout(writer, registry)
	f.MessageWritten(context.Background(), groupMessage())

	// One message push each; bob also receives the seen broadcast his own
	// delivery triggered, as does the sender.
	require.Len(t, writer.updates, 1)
	require.Equal(t, []bool{true, false}, writer.updates[0].Seen)

	requireEventTypes(t, alice.pushed, model.PushMessage, model.PushSeen)
	requireEventTypes(t, bob.pushed, model.PushMessage, model.PushSeen)

	// The broadcast carries the updated vector.
	require.Equal(t, []bool{true, false}, bob.pushed[1].Message.Seen)
}

func TestMessageWritten_SeenAccumulatesAcrossRecipients(t *testing.T) {
	registry := NewRegistry()
	for _, id := range []string{"alice", "bob", "carol"} {
		registry.Register(id, &fakeConn{})
	}

	writer := &fakeSeenWriter{}
	f := NewFanout(writer, registry)
	f.MessageWritten(context.Background(), groupMessage())

	require.Len(t, writer.updates, 2)
	require.Equal(t, []bool{true, false}, writer.updates[0].Seen)
	require.Equal(t, []bool{true, true}, writer.updates[1].Seen)
}

func TestMessageWritten_PersistFailureIsAbsorbed(t *testing.T) {
	registry := NewRegistry()
	alice := &fakeConn{}
	bob := &fakeConn{}
	registry.Register("alice", alice)
	registry.Register("bob", bob)

	writer := &fakeSeenWriter{err: errors.New("store down")}
	f := NewFanout(writer, registry)
	f.MessageWritten(context.Background(), groupMessage())

	// Delivery happened; the failed seen persist produced no broadcast.
	requireEventTypes(t, alice.pushed, model.PushMessage)
	requireEventTypes(t, bob.pushed, model.PushMessage)
}

func TestSeenUpdated_BroadcastsToConnectedParticipants(t *testing.T) {
	registry := NewRegistry()
	alice := &fakeConn{}
	registry.Register("alice", alice)

	f := NewFanout(&fakeSeenWriter{}, registry)
	msg := groupMessage()
	msg.Seen = []bool{true, false}
	f.SeenUpdated(context.Background(), msg)

	requireEventTypes(t, alice.pushed, model.PushSeen)
	require.Equal(t, []bool{true, false}, alice.pushed[0].Message.Seen)
}

func requireEventTypes(t *testing.T, events []model.PushEvent, want ...model.PushEventType) {
	t.Helper()
	got := make([]model.PushEventType, len(events))
	for i, ev := range events {
		got[i] = ev.Type
	}
	require.Equal(t, want, got)
}
