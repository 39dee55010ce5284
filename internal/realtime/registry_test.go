package realtime

import (
	"testing"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	pushed []model.PushEvent
	reject bool
	closed int
}

func (c *fakeConn) Push(ev model.PushEvent) bool {
	if c.reject {
		return false
	}
	c.pushed = append(c.pushed, ev)
	return true
}

func (c *fakeConn) Close() { c.closed++ }

func TestRegistry_RegisterAndPush(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{}
	r.Register("alice", conn)

	require.True(t, r.Connected("alice"))
	require.Equal(t, 1, r.Len())

	ev := model.PushEvent{Type: model.PushMessage}
	require.True(t, r.Push("alice", ev))
	require.Len(t, conn.pushed, 1)
}

func TestRegistry_PushUnknownParticipantIsNoop(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.Push("ghost", model.PushEvent{Type: model.PushMessage}))
}

func TestRegistry_LastConnectWins(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{}
	second := &fakeConn{}
	r.Register("alice", first)
	r.Register("alice", second)

	require.Equal(t, 1, r.Len())
	require.True(t, r.Push("alice", model.PushEvent{Type: model.PushMessage}))
	require.Empty(t, first.pushed)
	require.Len(t, second.pushed, 1)
	// The displaced handle is not closed by the registry.
	require.Zero(t, first.closed)
}

func TestRegistry_StaleDeregisterKeepsNewerConn(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{}
	second := &fakeConn{}
	r.Register("alice", first)
	r.Register("alice", second)

	// The old connection's pump winding down must not evict the new one.
	r.Deregister("alice", first)
	require.True(t, r.Connected("alice"))

	r.Deregister("alice", second)
	require.False(t, r.Connected("alice"))
	require.Zero(t, r.Len())
}

func TestRegistry_FailedPushEvictsAndCloses(t *testing.T) {
	r := NewRegistry()
	conn := &fakeConn{reject: true}
	r.Register("alice", conn)

	require.False(t, r.Push("alice", model.PushEvent{Type: model.PushMessage}))
	require.False(t, r.Connected("alice"))
	require.Equal(t, 1, conn.closed)
}
