package chat

import (
	"context"
	"sort"

	"github.com/chatstack/chat-service/internal/model"
)

// MessageLog is the slice of the store the aggregator consumes.
type MessageLog interface {
	MessagesByParticipant(ctx context.Context, userID string) ([]model.Message, error)
}

// Aggregator folds a user's flat message log into one summary row per
// distinct counterpart.
type Aggregator struct {
	log MessageLog
}

func NewAggregator(log MessageLog) *Aggregator {
	return &Aggregator{log: log}
}

// Conversations returns one summary per counterpart of requesterID, most
// recent first. The fold visits messages in document order: the first
// message for a counterpart creates its summary, and only a strictly newer
// message replaces it, recomputing the unread flag from that message alone.
// The current newest message's unseen-ness is authoritative; an older unread
// message is deliberately hidden once a newer, read message supersedes it.
// Equal timestamps keep the earlier fold result, so the tie-break reproduces
// whatever order the store returned. The sort is stable and imposes no
// secondary key beyond discovery order.
func (a *Aggregator) Conversations(ctx context.Context, requesterID string) ([]model.ConversationSummary, error) {
	msgs, err := a.log.MessagesByParticipant(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	summaries := make([]model.ConversationSummary, 0, len(msgs))
	for _, msg := range msgs {
		key, isGroup := counterpart(msg, requesterID)
		if key == "" {
			continue
		}
		unseen := unseenByRequester(msg, requesterID)
		if i, ok := index[key]; ok {
			if msg.SentAt > summaries[i].LastMessage {
				summaries[i].LastMessage = msg.SentAt
				summaries[i].AnyUnseen = unseen
			}
			continue
		}
		index[key] = len(summaries)
		summaries = append(summaries, model.ConversationSummary{
			User:        key,
			IsGroup:     isGroup,
			LastMessage: msg.SentAt,
			AnyUnseen:   unseen,
		})
	}

	// Undated entries carry a zero timestamp and naturally sort last.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessage > summaries[j].LastMessage
	})
	return summaries, nil
}

// counterpart returns the summary key for a message from requester's point
// of view: the group id when present, otherwise the first participant that
// is not the requester.
func counterpart(msg model.Message, requesterID string) (string, bool) {
	if msg.IsGroup() {
		return msg.GroupID, true
	}
	for _, p := range msg.Participants {
		if p != requesterID {
			return p, false
		}
	}
	return "", false
}

// unseenByRequester implements the summary unread rule: a message counts as
// unread only when someone else sent it and the requester has not seen it.
func unseenByRequester(msg model.Message, requesterID string) bool {
	if msg.Origin() == requesterID {
		return false
	}
	seen, err := IsSeenBy(msg, requesterID)
	if err != nil {
		return false
	}
	return !seen
}
