package chat

import (
	"context"
	"sort"

	"github.com/chatstack/chat-service/internal/model"
	"github.com/chatstack/chat-service/internal/registry/store"
)

// Notifier receives write and seen-state events for best-effort realtime
// delivery. Implementations must not fail the originating request: fanout
// errors are theirs to absorb.
type Notifier interface {
	MessageWritten(ctx context.Context, msg model.Message)
	SeenUpdated(ctx context.Context, msg model.Message)
}

// NoopNotifier satisfies Notifier with no realtime delivery, for polling-only
// deployments and tests.
type NoopNotifier struct{}

func (NoopNotifier) MessageWritten(context.Context, model.Message) {}
func (NoopNotifier) SeenUpdated(context.Context, model.Message)   {}

// Engine coordinates the conversation write and read paths over the store,
// the resolver, and the realtime notifier.
type Engine struct {
	store    store.MessageStore
	resolver *Resolver
	notifier Notifier
}

func NewEngine(st store.MessageStore, resolver *Resolver, notifier Notifier) *Engine {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Engine{store: st, resolver: resolver, notifier: notifier}
}

// Send validates the request, resolves the target to its canonical
// participant set, appends the message with a fresh seen vector, and hands
// it to the notifier. Validation and store errors abort with no partial
// write; notifier failures never surface here.
func (e *Engine) Send(ctx context.Context, senderID, targetID, body string, sentAt int64) (model.Message, error) {
	if senderID == "" {
		return model.Message{}, &store.ValidationError{Field: "sender", Message: "missing sender"}
	}
	if targetID == "" {
		return model.Message{}, &store.ValidationError{Field: "target", Message: "missing conversation target"}
	}
	if body == "" {
		return model.Message{}, &store.ValidationError{Field: "body", Message: "missing message body"}
	}
	if sentAt <= 0 {
		return model.Message{}, &store.ValidationError{Field: "sent", Message: "missing or invalid timestamp"}
	}

	target, err := e.resolver.Resolve(ctx, targetID, senderID)
	if err != nil {
		return model.Message{}, err
	}

	msg := model.Message{
		Participants: target.Participants,
		GroupID:      target.GroupID,
		SentAt:       sentAt,
		Body:         body,
		Seen:         NewSeenVector(len(target.Participants)),
	}
	if err := e.store.AppendMessage(ctx, &msg); err != nil {
		return model.Message{}, err
	}

	e.notifier.MessageWritten(ctx, msg)
	return msg, nil
}

// Thread returns the full conversation with targetID ascending by timestamp,
// marking every message seen by the requester as a side effect. Each
// false-to-true transition is persisted and broadcast; already-seen messages
// cause no store write.
func (e *Engine) Thread(ctx context.Context, requesterID, targetID string) ([]model.Message, error) {
	target, err := e.resolver.Resolve(ctx, targetID, requesterID)
	if err != nil {
		return nil, err
	}

	msgs, err := e.store.MessagesByParticipantSet(ctx, target.Participants, target.GroupID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].SentAt < msgs[j].SentAt })

	for i := range msgs {
		if msgs[i].Origin() == requesterID {
			continue
		}
		updated, changed, err := MarkSeenBy(msgs[i], requesterID)
		if err != nil || !changed {
			continue
		}
		if err := e.store.UpdateSeen(ctx, updated); err != nil {
			return nil, err
		}
		msgs[i] = updated
		e.notifier.SeenUpdated(ctx, updated)
	}
	return msgs, nil
}

// Conversations is the aggregate summary view; see Aggregator.
func (e *Engine) Conversations(ctx context.Context, requesterID string) ([]model.ConversationSummary, error) {
	return NewAggregator(e.store).Conversations(ctx, requesterID)
}

// Resolve exposes target resolution for callers that need the participant
// set without a read or write, such as the delivery path.
func (e *Engine) Resolve(ctx context.Context, targetID, requesterID string) (Target, error) {
	return e.resolver.Resolve(ctx, targetID, requesterID)
}
