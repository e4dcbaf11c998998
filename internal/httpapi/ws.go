package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/antoniostano/omnicart/internal/protocol"
	"github.com/antoniostano/omnicart/internal/session"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 120 * time.Second
)

func (s *Server) handleSessionWS(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	st, err := s.sessions.Get(r.Context(), sessionID)
	if err == nil && st.Status != session.StatusActive {
		err = session.ErrEnded
	}
	if err != nil {
		respondSessionError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.observeSessions("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	outbound := make(chan any, 64)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-outbound:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					s.log.WithError(err).WithField("session_id", sessionID).Debug("websocket write failed")
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.observeWS("outbound", t)
				}
			}
		}
	}()

	send := func(msg any) bool {
		select {
		case <-ctx.Done():
			return false
		case outbound <- msg:
			return true
		}
	}
	send(stateEvent(st))

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

readLoop:
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if msgType != websocket.TextMessage {
			continue
		}

		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			if !send(errorEvent(sessionID, "invalid_client_message", err)) {
				break
			}
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.observeWS("inbound", t)
		}

		replies, done := s.handleClientMessage(ctx, sessionID, parsed)
		for _, reply := range replies {
			if !send(reply) {
				break readLoop
			}
		}
		if done {
			break
		}
	}

	cancel()
	<-writerDone
	drain(conn, outbound)
	s.observeSessions("ws_disconnected")
}

// drain writes whatever was queued after the writer stopped, such as the
// final state of an ended session.
func drain(conn *websocket.Conn, outbound <-chan any) {
	for {
		select {
		case msg := <-outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if conn.WriteJSON(msg) != nil {
				return
			}
		default:
			return
		}
	}
}

// handleClientMessage applies one inbound message and returns the events to
// send back. done reports that the session ended and the socket should close.
func (s *Server) handleClientMessage(ctx context.Context, sessionID string, msg any) (replies []any, done bool) {
	switch m := msg.(type) {
	case protocol.ClientMessage:
		if m.SessionID != sessionID {
			return []any{errorEvent(sessionID, "session_mismatch", nil)}, false
		}
		var reply protocol.AssistantReply
		st, err := s.sessions.Do(ctx, sessionID, func(st *session.State) error {
			res := s.assistant.ProcessTurn(ctx, m.Text, st)
			reply = protocol.AssistantReply{
				Type:      protocol.TypeAssistantReply,
				SessionID: sessionID,
				Seq:       m.Seq,
				Intent:    string(res.Intent),
				AgentUsed: res.AgentUsed,
				Response:  res.Response,
				Data:      res.Data,
			}
			return nil
		})
		if err != nil {
			return []any{errorEvent(sessionID, "session_not_found", err)}, true
		}
		reply.CartTotal = st.CartTotal()
		reply.CartItems = st.CartItemCount()
		return []any{reply}, false

	case protocol.ClientControl:
		if m.SessionID != sessionID {
			return []any{errorEvent(sessionID, "session_mismatch", nil)}, false
		}
		if m.Action == protocol.ActionEnd {
			st, err := s.sessions.End(ctx, sessionID)
			if err != nil {
				return []any{errorEvent(sessionID, "session_not_found", err)}, true
			}
			s.observeSessions("ended")
			return []any{stateEvent(st)}, true
		}

		st, err := s.sessions.Do(ctx, sessionID, func(st *session.State) error {
			switch m.Action {
			case protocol.ActionReset:
				st.Reset()
			case protocol.ActionChannel:
				ch, ok := parseChannel(session.Channel(m.Value), "")
				if !ok {
					return errInvalidChannel
				}
				st.Channel = ch
			case protocol.ActionCustomer:
				return s.assistant.AttachCustomer(ctx, st, m.Value)
			}
			return nil
		})
		switch {
		case err == nil:
			return []any{stateEvent(st)}, false
		case st == nil:
			return []any{errorEvent(sessionID, "session_not_found", err)}, true
		default:
			return []any{errorEvent(sessionID, "invalid_control", err), stateEvent(st)}, false
		}
	}
	return nil, false
}

var errInvalidChannel = errors.New("channel must be web, mobile, whatsapp or kiosk")

func stateEvent(st *session.State) protocol.SessionState {
	return protocol.SessionState{
		Type:       protocol.TypeSessionState,
		SessionID:  st.ID,
		Status:     string(st.Status),
		Channel:    string(st.Channel),
		CustomerID: st.CustomerID,
		CartTotal:  st.CartTotal(),
		CartItems:  st.CartItemCount(),
	}
}

func errorEvent(sessionID, code string, err error) protocol.ErrorEvent {
	ev := protocol.ErrorEvent{
		Type:      protocol.TypeErrorEvent,
		SessionID: sessionID,
		Code:      code,
	}
	if err != nil {
		ev.Detail = err.Error()
	}
	return ev
}

func (s *Server) observeWS(direction string, t protocol.MessageType) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, string(t)).Inc()
	}
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientMessage:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SessionState:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
