package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/identity"
)

const writeTimeout = 5 * time.Second

// ChatMessage is a transient chat broadcast. Messages are stamped server-side
// and never persisted.
type ChatMessage struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	User string    `json:"user"`
	Ts   time.Time `json:"ts"`
}

// inboundFrame is what clients send over the socket.
type inboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// socketConn is the slice of *websocket.Conn the hub drives; tests substitute
// their own.
type socketConn interface {
	Locals(key string, value ...interface{}) interface{}
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
}

// HandleSocket serves one websocket connection. The identity was resolved
// during the handshake and stays bound for the connection's lifetime.
func (h *Hub) HandleSocket(conn *websocket.Conn) {
	h.serve(conn)
}

func (h *Hub) serve(conn socketConn) {
	var user *domain.User
	if val := conn.Locals(identity.PrincipalKey); val != nil {
		user, _ = val.(*domain.User)
	}

	client := h.Register(user)

	done := make(chan struct{})
	go h.writeLoop(conn, client, done)
	h.readLoop(conn, client)

	// Unregister closes the send channel, which releases the writer. Doing it
	// before waiting on done keeps a disconnected peer from holding the
	// registration open until a later write happens to fail.
	h.Unregister(client)
	<-done
}

func (h *Hub) writeLoop(conn socketConn, client *Client, done chan<- struct{}) {
	defer close(done)
	for payload := range client.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("socket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Hub) readLoop(conn socketConn, client *Client) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		if events.EventType(frame.Type) != events.EventChatMessage {
			continue
		}

		var msg ChatMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			continue
		}
		h.relayChat(client, msg)
	}
}

// relayChat stamps the message and re-broadcasts it to every connection,
// sender included. An authenticated sender's account name overrides whatever
// name the client claimed.
func (h *Hub) relayChat(client *Client, msg ChatMessage) {
	msg.ID = uuid.NewString()
	msg.Ts = time.Now()
	if client.user != nil {
		msg.User = client.user.AccountName
	}
	if msg.User == "" {
		msg.User = "Anonymous"
	}
	h.Broadcast(context.Background(), string(events.EventChatMessage), msg)
}
