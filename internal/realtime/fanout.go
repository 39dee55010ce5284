package realtime

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/chatstack/chat-service/internal/chat"
	"github.com/chatstack/chat-service/internal/model"
)

// SeenWriter is the slice of the store the fanout needs to persist
// delivery-driven seen transitions.
type SeenWriter interface {
	UpdateSeen(ctx context.Context, msg model.Message) error
}

// Fanout implements chat.Notifier over the connection registry. Everything
// here is advisory: errors are logged and absorbed, never surfaced to the
// request that triggered the fanout.
type Fanout struct {
	seen     SeenWriter
	registry *Registry
}

func NewFanout(seen SeenWriter, registry *Registry) *Fanout {
	return &Fanout{seen: seen, registry: registry}
}

// MessageWritten pushes the message to every connected participant. Each
// delivery to a non-sender marks that recipient's seen slot, persists it,
// and re-broadcasts the updated vector to all connected participants so
// everyone's read receipts converge. When the sender has no live
// registration the realtime path is skipped entirely; the durable write
// surfaces on the next poll-based read.
func (f *Fanout) MessageWritten(ctx context.Context, msg model.Message) {
	origin := msg.Origin()
	if !f.registry.Connected(origin) {
		log.Debug("sender not connected, skipping realtime delivery", "sender", origin)
		return
	}

	current := msg
	for _, p := range msg.Participants {
		if !f.registry.Push(p, model.PushEvent{Type: model.PushMessage, Message: current}) {
			continue
		}
		if p == origin {
			continue
		}
		updated, changed, err := chat.MarkSeenBy(current, p)
		if err != nil {
			log.Warn("delivery seen update skipped", "participant", p, "err", err)
			continue
		}
		if !changed {
			continue
		}
		if err := f.seen.UpdateSeen(ctx, updated); err != nil {
			log.Warn("failed to persist delivery seen state", "participant", p, "err", err)
			continue
		}
		current = updated
		f.broadcastSeen(current)
	}
}

// SeenUpdated broadcasts a seen-vector transition, e.g. from a history read,
// to every connected participant of the message.
func (f *Fanout) SeenUpdated(_ context.Context, msg model.Message) {
	f.broadcastSeen(msg)
}

func (f *Fanout) broadcastSeen(msg model.Message) {
	for _, p := range msg.Participants {
		f.registry.Push(p, model.PushEvent{Type: model.PushSeen, Message: msg})
	}
}

var _ chat.Notifier = (*Fanout)(nil)
