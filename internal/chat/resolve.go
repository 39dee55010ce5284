package chat

import (
	"context"

	"github.com/chatstack/chat-service/internal/model"
)

// Target is the resolved addressing of a conversation target: the canonical
// ordered participant list (requester first) and, for named groups, the
// group id. Group and user ids share one namespace; the resolver decides
// which kind a target is so call sites never have to.
type Target struct {
	Participants []string
	GroupID      string
}

// IsGroup reports whether the target resolved to a named group.
func (t Target) IsGroup() bool { return t.GroupID != "" }

// GroupDirectory is the slice of the store the resolver consumes.
type GroupDirectory interface {
	FindGroup(ctx context.Context, id string) (*model.Group, error)
}

// Resolver turns a conversation target id into its canonical participant set.
type Resolver struct {
	groups GroupDirectory
}

func NewResolver(groups GroupDirectory) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve looks targetID up in the group directory. A resolvable group (two
// or more members) yields the requester followed by the remaining members in
// stored order; anything else is treated as a direct user id. A directory
// lookup failure propagates: falling back to direct semantics is only
// correct for "not found", never for a failed lookup.
func (r *Resolver) Resolve(ctx context.Context, targetID, requesterID string) (Target, error) {
	group, err := r.groups.FindGroup(ctx, targetID)
	if err != nil {
		return Target{}, err
	}
	if group.Resolvable() {
		participants := make([]string, 0, len(group.Users)+1)
		participants = append(participants, requesterID)
		for _, u := range group.Users {
			if u != requesterID {
				participants = append(participants, u)
			}
		}
		return Target{Participants: participants, GroupID: targetID}, nil
	}
	return Target{Participants: []string{requesterID, targetID}}, nil
}
