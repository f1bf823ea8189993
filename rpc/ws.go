package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"github.com/soomtochukwu/Veritasor-Contracts-sub001/core"
)

const (
	wsWriteTimeout = 10 * time.Second
)

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.node == nil {
		http.Error(w, "node unavailable", http.StatusServiceUnavailable)
		return
	}
	cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	// Clients never send frames; CloseRead surfaces their close handshake.
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, cursor); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, cursor string) error {
	updates, cancel, backlog, err := s.node.SubscribeEvents(ctx, cursor)
	if err != nil {
		return err
	}
	defer cancel()

	for _, update := range backlog {
		if err := writeEventUpdate(ctx, conn, update); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeEventUpdate(ctx, conn, update); err != nil {
				return err
			}
		}
	}
}

func eventPayloadFrom(update core.EventUpdate) EventPayload {
	payload := EventPayload{Sequence: update.Sequence, Cursor: update.Cursor}
	if update.Event != nil {
		payload.Type = update.Event.Type
		payload.Attributes = update.Event.Attributes
	}
	return payload
}

func writeEventUpdate(ctx context.Context, conn *websocket.Conn, update core.EventUpdate) error {
	data, err := json.Marshal(eventPayloadFrom(update))
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}

func (s *Server) handleRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit, _, err := uintQuery(r, "limit", 16)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recent := s.node.RecentEvents(int(limit))
	out := make([]EventPayload, len(recent))
	for i, update := range recent {
		out[i] = eventPayloadFrom(update)
	}
	writeJSON(w, http.StatusOK, out)
}
