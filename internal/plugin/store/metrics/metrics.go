package metrics

import (
	"context"
	"time"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/store"
	"github.com/chatstack/chat-service/internal/security"
)

// Wrap returns a MessageStore that records StoreLatency for every operation.
func Wrap(inner store.MessageStore) store.MessageStore {
	return &metricsStore{inner: inner}
}

type metricsStore struct {
	inner store.MessageStore
}

func observe(op string, start time.Time) {
	security.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *metricsStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	defer observe("append_message", time.Now())
	return m.inner.AppendMessage(ctx, msg)
}

func (m *metricsStore) MessagesByParticipant(ctx context.Context, userID string) ([]model.Message, error) {
	defer observe("messages_by_participant", time.Now())
	return m.inner.MessagesByParticipant(ctx, userID)
}

func (m *metricsStore) MessagesByParticipantSet(ctx context.Context, participants []string, groupID string) ([]model.Message, error) {
	defer observe("messages_by_participant_set", time.Now())
	return m.inner.MessagesByParticipantSet(ctx, participants, groupID)
}

func (m *metricsStore) UpdateSeen(ctx context.Context, msg model.Message) error {
	defer observe("update_seen", time.Now())
	return m.inner.UpdateSeen(ctx, msg)
}

func (m *metricsStore) FindGroup(ctx context.Context, id string) (*model.Group, error) {
	defer observe("find_group", time.Now())
	return m.inner.FindGroup(ctx, id)
}

func (m *metricsStore) SaveGroup(ctx context.Context, group model.Group) (bool, error) {
	defer observe("save_group", time.Now())
	return m.inner.SaveGroup(ctx, group)
}

func (m *metricsStore) ListGroups(ctx context.Context) ([]model.Group, error) {
	defer observe("list_groups", time.Now())
	return m.inner.ListGroups(ctx)
}

func (m *metricsStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	defer observe("get_user", time.Now())
	return m.inner.GetUser(ctx, id)
}

func (m *metricsStore) ListUsers(ctx context.Context) ([]model.User, error) {
	defer observe("list_users", time.Now())
	return m.inner.ListUsers(ctx)
}

func (m *metricsStore) SaveUser(ctx context.Context, user model.User) error {
	defer observe("save_user", time.Now())
	return m.inner.SaveUser(ctx, user)
}

func (m *metricsStore) Close(ctx context.Context) error {
	return m.inner.Close(ctx)
}

var _ store.MessageStore = (*metricsStore)(nil)
