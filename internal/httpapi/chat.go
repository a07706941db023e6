package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gradeinsight/assistant/internal/chat"
)

// handleChat streams the response as server-sent events. Admission control
// runs before any work; a rejected request gets a plain 429 and no stream.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !s.orchestrator.Admit(clientID(r)) {
		respondError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer cannot stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	_ = s.orchestrator.Run(r.Context(), req, func(ev chat.Event) error {
		payload, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: ")); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if _, err := w.Write([]byte("\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
}

// handleChatWS is the websocket transport: the client sends one chat request
// as a text frame and receives the same event sequence as JSON frames.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.Admit(clientID(r)) {
		respondError(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var req chat.Request
	if err := json.Unmarshal(data, &req); err != nil {
		_ = conn.WriteJSON(chat.ErrorEvent("invalid request: " + err.Error()))
		return
	}
	if err := req.Validate(); err != nil {
		_ = conn.WriteJSON(chat.ErrorEvent(err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Surface client disconnects while the stream is in flight.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	_ = s.orchestrator.Run(ctx, req, func(ev chat.Event) error {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(ev)
	})

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}
