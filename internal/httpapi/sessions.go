package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/orchestrator"
	"github.com/antoniostano/omnicart/internal/session"
)

type sessionResponse struct {
	*session.State
	CartTotal       int               `json:"cart_total"`
	CartItems       int               `json:"cart_items"`
	Analytics       session.Analytics `json:"analytics"`
	InactivityTTLMS int64             `json:"inactivity_ttl_ms"`
}

func (s *Server) sessionView(st *session.State) sessionResponse {
	return sessionResponse{
		State:           st,
		CartTotal:       st.CartTotal(),
		CartItems:       st.CartItemCount(),
		Analytics:       st.Analytics(),
		InactivityTTLMS: s.sessions.InactivityTimeout().Milliseconds(),
	}
}

type turnRequest struct {
	Text string `json:"text"`
}

type turnResponse struct {
	orchestrator.TurnResult
	SessionID string `json:"session_id"`
	CartTotal int    `json:"cart_total"`
	CartItems int    `json:"cart_items"`
}

type channelRequest struct {
	Channel session.Channel `json:"channel"`
}

type customerRequest struct {
	CustomerID string `json:"customer_id"`
}

// respondSessionError maps manager and orchestrator errors to HTTP responses.
func respondSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEnded):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, orchestrator.ErrUnknownCustomer):
		respondError(w, http.StatusNotFound, "customer_not_found", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func parseChannel(raw session.Channel, fallback string) (session.Channel, bool) {
	ch := session.Channel(strings.ToLower(strings.TrimSpace(string(raw))))
	if ch == "" {
		ch = session.Channel(fallback)
	}
	return ch, ch.Valid()
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	channel, ok := parseChannel(req.Channel, s.cfg.DefaultChannel)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_channel", "channel must be web, mobile, whatsapp or kiosk")
		return
	}

	var customer *catalog.Customer
	if id := strings.TrimSpace(req.CustomerID); id != "" {
		c, err := s.assistant.ResolveCustomer(r.Context(), id)
		if err != nil {
			respondSessionError(w, err)
			return
		}
		customer = c
	}

	st := s.sessions.Create(r.Context(), channel, customer)
	s.observeSessions("created")
	respondJSON(w, http.StatusCreated, s.sessionView(st))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionView(st))
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_message", "text is required")
		return
	}

	var res orchestrator.TurnResult
	st, err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(st *session.State) error {
		res = s.assistant.ProcessTurn(r.Context(), req.Text, st)
		return nil
	})
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, turnResponse{
		TurnResult: res,
		SessionID:  st.ID,
		CartTotal:  st.CartTotal(),
		CartItems:  st.CartItemCount(),
	})
}

func (s *Server) handleSetChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	channel, ok := parseChannel(req.Channel, "")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_channel", "channel must be web, mobile, whatsapp or kiosk")
		return
	}
	st, err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(st *session.State) error {
		st.Channel = channel
		return nil
	})
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.observeSessions("channel_switched")
	respondJSON(w, http.StatusOK, s.sessionView(st))
}

func (s *Server) handleSetCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	st, err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(st *session.State) error {
		return s.assistant.AttachCustomer(r.Context(), st, req.CustomerID)
	})
	if err != nil {
		respondSessionError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, s.sessionView(st))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(st *session.State) error {
		st.Reset()
		return nil
	})
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.observeSessions("reset")
	respondJSON(w, http.StatusOK, s.sessionView(st))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	st, err := s.sessions.End(r.Context(), id)
	if err != nil {
		respondSessionError(w, err)
		return
	}
	s.observeSessions("ended")
	respondJSON(w, http.StatusOK, struct {
		sessionResponse
		Duration string `json:"duration"`
	}{s.sessionView(st), st.LastActivityAt.Sub(st.StartedAt).Round(time.Second).String()})
}
