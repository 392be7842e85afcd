package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ThreadFrame is a websocket frame of the partner thread stream.
//
// Server to client: "history" carries the thread so far, "message" one
// appended message, "error" a rejected send.
// Client to server: "send" with Data holding the text to send.
type ThreadFrame struct {
	Type     string           `json:"type"`
	Data     string           `json:"data,omitempty"`
	Message  *models.Message  `json:"message,omitempty"`
	Messages []models.Message `json:"messages,omitempty"`
}

// threadConn serialises writes to a websocket connection
type threadConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *threadConn) send(frame ThreadFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		slog.Error("failed to marshal thread frame", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send thread frame", "error", err)
		return err
	}
	return nil
}

func (s *Server) handlePartnerWS(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	// The thread must exist before subscribing so the greeting lands in history
	if _, _, err := s.deps.Pairing.AssignIfAbsent(ctx, principal.UID); err != nil {
		writeServiceError(w, err, "load partner")
		return
	}

	stream, unsubscribe, err := s.deps.Pairing.Subscribe(ctx, principal.UID)
	if err != nil {
		writeServiceError(w, err, "subscribe to thread")
		return
	}
	defer unsubscribe()

	thread, err := s.deps.Pairing.Thread(ctx, principal.UID)
	if err != nil {
		writeServiceError(w, err, "load messages")
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()

	slog.Info("partner websocket connected", "user_id", principal.UID)

	conn := &threadConn{conn: ws}
	if err := conn.send(ThreadFrame{Type: "history", Messages: thread.Messages}); err != nil {
		return
	}

	seen := make(map[string]struct{}, len(thread.Messages))
	for _, m := range thread.Messages {
		seen[m.ID] = struct{}{}
	}

	var wg sync.WaitGroup

	// Bus -> client
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-stream:
				if !ok {
					return
				}
				if _, dup := seen[msg.ID]; dup {
					continue
				}
				if err := conn.send(ThreadFrame{Type: "message", Message: &msg}); err != nil {
					return
				}
			}
		}
	}()

	// Client -> thread
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var frame ThreadFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				slog.Debug("invalid thread frame", "error", err)
				continue
			}
			if frame.Type != "send" {
				continue
			}

			if _, err := s.deps.Pairing.SendMessage(ctx, principal.UID, frame.Data); err != nil {
				message := "failed to send message"
				if errors.Is(err, models.ErrMissingFields) {
					message = "message text is empty"
				}
				if conn.send(ThreadFrame{Type: "error", Data: message}) != nil {
					return
				}
			}
		}
	}()

	// Unblock the reader once the stream side gives up
	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	wg.Wait()
	slog.Info("partner websocket disconnected", "user_id", principal.UID)
}
