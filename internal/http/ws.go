package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// wsPreviewRequest is one dictation fragment from a frontend.
type wsPreviewRequest struct {
	Text      string `json:"text"`
	Recipient string `json:"recipient,omitempty"`
}

// handlePreviewWS streams live previews: the client sends text fragments
// as it dictates, the server answers each with the corrected text and
// resolved recipient. Nothing is sent to Telegram over this endpoint.
func (s *Server) handlePreviewWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go s.wsPingLoop(conn, done)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}

		var req wsPreviewRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			s.wsWrite(conn, map[string]string{"error": "invalid JSON: " + err.Error()})
			continue
		}
		if req.Text == "" {
			s.wsWrite(conn, map[string]string{"error": "text is required"})
			continue
		}

		preview := s.pipeline.Compose(r.Context(), req.Text, req.Recipient, true)
		s.wsWrite(conn, previewFrom(preview))
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, v interface{}) {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		slog.Warn("websocket write failed", "error", err)
	}
}

func (s *Server) wsPingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
