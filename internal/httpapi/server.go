package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/config"
	"github.com/antoniostano/omnicart/internal/observability"
	"github.com/antoniostano/omnicart/internal/orchestrator"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/session"
)

// Assistant runs turns and resolves customers for the API.
type Assistant interface {
	ProcessTurn(ctx context.Context, text string, s *session.State) orchestrator.TurnResult
	ResolveCustomer(ctx context.Context, customerID string) (*catalog.Customer, error)
	AttachCustomer(ctx context.Context, s *session.State, customerID string) error
	Orders() orders.Store
}

// Catalog is the read-only browse surface.
type Catalog interface {
	Products() []catalog.Product
	ProductsByCategory(category string) []catalog.Product
	Search(query string, limit int) []catalog.Product
	Categories() []catalog.CategorySummary
	Stores() []catalog.Store
	StoreInventory(storeID string) []catalog.StoreStockEntry
	Customers() []catalog.Customer
	CustomerByID(id string) (catalog.Customer, bool)
	CustomerByPhone(phone string) (catalog.Customer, bool)
}

type Server struct {
	cfg       config.Config
	sessions  *session.Manager
	assistant Assistant
	catalog   Catalog
	metrics   *observability.Metrics
	log       logrus.FieldLogger
	limiter   *clientLimiter
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, assistant Assistant, cat Catalog, metrics *observability.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		cfg:       cfg,
		sessions:  sessions,
		assistant: assistant,
		catalog:   cat,
		metrics:   metrics,
		log:       log,
		limiter:   newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browsers may drive a session unless told otherwise.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			http.NotFound(w, r)
			return
		}
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limiter.middleware)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Post("/sessions/{id}/turns", s.handleTurn)
		r.Put("/sessions/{id}/channel", s.handleSetChannel)
		r.Put("/sessions/{id}/customer", s.handleSetCustomer)
		r.Post("/sessions/{id}/reset", s.handleReset)
		r.Post("/sessions/{id}/end", s.handleEndSession)
		r.Get("/sessions/{id}/ws", s.handleSessionWS)

		r.Get("/catalog/products", s.handleListProducts)
		r.Get("/catalog/categories", s.handleListCategories)
		r.Get("/catalog/stores", s.handleListStores)
		r.Get("/catalog/stores/{id}/inventory", s.handleStoreInventory)
		r.Get("/customers", s.handleListCustomers)
		r.Get("/customers/{id}/orders", s.handleCustomerOrders)

		r.Get("/perf/agents", s.handlePerfAgents)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
	})
}

func (s *Server) observeSessions(event string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	s.metrics.SessionEvents.WithLabelValues(event).Inc()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
