package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chatstack/chat-service/internal/model"
	registrystore "github.com/chatstack/chat-service/internal/registry/store"
	"github.com/google/uuid"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "memory",
		Loader: func(ctx context.Context) (registrystore.MessageStore, error) {
			return New(), nil
		},
	})
}

// Store is an in-process MessageStore for development and tests. It keeps
// everything behind one mutex; document order is insertion order, matching
// what an unindexed backend scan would return.
type Store struct {
	mu       sync.Mutex
	messages []model.Message
	groups   map[string]model.Group
	users    map[string]model.User
	userIDs  []string
	groupIDs []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		groups: map[string]model.Group{},
		users:  map[string]model.User{},
	}
}

// ForceImport is a no-op variable that can be referenced to ensure this package's init() runs.
var ForceImport = 0

func (s *Store) AppendMessage(_ context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	s.messages = append(s.messages, msg.Clone())
	return nil
}

func (s *Store) MessagesByParticipant(_ context.Context, userID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.messages {
		for _, p := range m.Participants {
			if p == userID {
				out = append(out, m.Clone())
				break
			}
		}
	}
	return out, nil
}

func (s *Store) MessagesByParticipantSet(_ context.Context, participants []string, groupID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Message
	for _, m := range s.messages {
		// Group id and participant set must both match: a membership edit
		// must not surface messages that predate the requester's membership.
		if groupID != "" {
			if m.GroupID == groupID && containsAll(m.Participants, participants) {
				out = append(out, m.Clone())
			}
			continue
		}
		if m.GroupID != "" {
			continue
		}
		if containsAll(m.Participants, participants) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (s *Store) UpdateSeen(_ context.Context, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if matchesMessage(s.messages[i], msg) {
			s.messages[i].Seen = append([]bool(nil), msg.Seen...)
			return nil
		}
	}
	return &registrystore.NotFoundError{Resource: "message", ID: msg.ID}
}

func (s *Store) FindGroup(_ context.Context, id string) (*model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, nil
	}
	out := g
	out.Users = append([]string(nil), g.Users...)
	return &out, nil
}

func (s *Store) SaveGroup(_ context.Context, group model.Group) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	existing, ok := s.groups[group.ID]
	if ok {
		group.CreatedAt = existing.CreatedAt
	} else {
		group.CreatedAt = now
		s.groupIDs = append(s.groupIDs, group.ID)
	}
	group.UpdatedAt = now
	group.Users = append([]string(nil), group.Users...)
	s.groups[group.ID] = group
	return !ok, nil
}

func (s *Store) ListGroups(_ context.Context) ([]model.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Group, 0, len(s.groupIDs))
	for _, id := range s.groupIDs {
		g := s.groups[id]
		g.Users = append([]string(nil), g.Users...)
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, &registrystore.NotFoundError{Resource: "user", ID: id}
	}
	return &u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		out = append(out, s.users[id])
	}
	return out, nil
}

func (s *Store) SaveUser(_ context.Context, user model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
	} else {
		user.CreatedAt = time.Now()
		s.userIDs = append(s.userIDs, user.ID)
	}
	s.users[user.ID] = user
	return nil
}

func (s *Store) Close(_ context.Context) error { return nil }

func containsAll(haystack, needles []string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesMessage(stored, target model.Message) bool {
	if target.ID != "" {
		return stored.ID == target.ID
	}
	if stored.SentAt != target.SentAt || len(stored.Participants) != len(target.Participants) {
		return false
	}
	for i := range stored.Participants {
		if stored.Participants[i] != target.Participants[i] {
			return false
		}
	}
	return true
}

var _ registrystore.MessageStore = (*Store)(nil)
