package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chatstack/chat-service/internal/model"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a payload to the peer.
	writeWait = 10 * time.Second
	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize bounds inbound frames; clients send nothing but pongs.
	maxMessageSize = 512
	// sendBuffer is the per-connection outbound queue. A participant that
	// falls this far behind is dropped rather than allowed to block fanout.
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// session is the websocket-backed Conn implementation: a middleman between
// one participant's socket and the registry.
type session struct {
	participantID string
	registry      *Registry
	conn          *websocket.Conn

	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

// ServeWS upgrades the request to a websocket, registers the participant in
// the registry, and starts the read/write pumps. The handshake fails only on
// upgrade errors; registration itself is last-connect-wins.
func ServeWS(registry *Registry, w http.ResponseWriter, r *http.Request, participantID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	s := &session{
		participantID: participantID,
		registry:      registry,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		done:          make(chan struct{}),
	}
	registry.Register(participantID, s)
	go s.writePump()
	go s.readPump()
	return nil
}

// Push queues the event without blocking. A full queue reports failure and
// leaves the drop decision to the registry.
func (s *session) Push(ev model.PushEvent) bool {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error("failed to encode push event", "participant", s.participantID, "err", err)
		return true // nothing to deliver; not a connection failure
	}
	select {
	case s.send <- payload:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Close tears down the session. Safe to call from any goroutine, repeatedly.
func (s *session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// readPump drains the socket to service pong frames and detect disconnects.
// Inbound application traffic arrives over the HTTP API, not the socket.
func (s *session) readPump() {
	defer func() {
		s.registry.Deregister(s.participantID, s)
		s.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("websocket read failed", "participant", s.participantID, "err", err)
			}
			return
		}
	}
}

// writePump writes queued payloads and heartbeat pings to the socket.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()
	for {
		select {
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

var _ Conn = (*session)(nil)
