package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/stretchr/testify/require"
)

type fakeGroupDirectory struct {
	groups map[string]*model.Group
	err    error
}

func (f *fakeGroupDirectory) FindGroup(_ context.Context, id string) (*model.Group, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[id], nil
}

func TestResolve_DirectTarget(t *testing.T) {
	r := NewResolver(&fakeGroupDirectory{})

	target, err := r.Resolve(context.Background(), "bob", "alice")
	require.NoError(t, err)
	require.False(t, target.IsGroup())
	require.Equal(t, []string{"alice", "bob"}, target.Participants)
}

func TestResolve_GroupTarget(t *testing.T) {
	dir := &fakeGroupDirectory{groups: map[string]*model.Group{
		"team": {ID: "team", Users: []string{"bob", "carol", "dave"}},
	}}
	r := NewResolver(dir)

	target, err := r.Resolve(context.Background(), "team", "alice")
	require.NoError(t, err)
	require.True(t, target.IsGroup())
	require.Equal(t, "team", target.GroupID)
	// Requester first, then members in stored order.
	require.Equal(t, []string{"alice", "bob", "carol", "dave"}, target.Participants)
}

func TestResolve_RequesterNotDuplicated(t *testing.T) {
	dir := &fakeGroupDirectory{groups: map[string]*model.Group{
		"team": {ID: "team", Users: []string{"bob", "alice", "carol"}},
	}}
	r := NewResolver(dir)

	target, err := r.Resolve(context.Background(), "team", "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, target.Participants)
}

func TestResolve_UnresolvableGroupFallsBackToDirect(t *testing.T) {
	dir := &fakeGroupDirectory{groups: map[string]*model.Group{
		"lonely": {ID: "lonely", Users: []string{"bob"}},
	}}
	r := NewResolver(dir)

	target, err := r.Resolve(context.Background(), "lonely", "alice")
	require.NoError(t, err)
	require.False(t, target.IsGroup())
	require.Equal(t, []string{"alice", "lonely"}, target.Participants)
}

func TestResolve_DirectoryFailurePropagates(t *testing.T) {
	boom := errors.New("directory down")
	r := NewResolver(&fakeGroupDirectory{err: boom})

	_, err := r.Resolve(context.Background(), "bob", "alice")
	require.ErrorIs(t, err, boom)
}
