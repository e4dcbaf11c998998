package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniostano/omnicart/internal/catalog"
)

const (
	defaultSearchLimit = 20
	defaultOrdersLimit = 20
	maxListLimit       = 100
)

func limitParam(r *http.Request, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil || n <= 0 {
		return fallback
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

// handleListProducts supports ?category= and ?q= filters.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var products []catalog.Product
	switch {
	case strings.TrimSpace(q.Get("q")) != "":
		products = s.catalog.Search(q.Get("q"), limitParam(r, defaultSearchLimit))
	case strings.TrimSpace(q.Get("category")) != "":
		products = s.catalog.ProductsByCategory(strings.ToLower(strings.TrimSpace(q.Get("category"))))
	default:
		products = s.catalog.Products()
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"count":    len(products),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"categories": s.catalog.Categories(),
	})
}

func (s *Server) handleListStores(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"stores": s.catalog.Stores(),
	})
}

func (s *Server) handleStoreInventory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var store *catalog.Store
	for _, st := range s.catalog.Stores() {
		if st.ID == id {
			store = &st
			break
		}
	}
	if store == nil {
		respondError(w, http.StatusNotFound, "store_not_found", "unknown store "+id)
		return
	}
	rows := s.catalog.StoreInventory(id)
	if rows == nil {
		rows = []catalog.StoreStockEntry{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"store":     store,
		"inventory": rows,
	})
}

// handleListCustomers narrows to a single match with ?phone=.
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		respondJSON(w, http.StatusOK, map[string]any{
			"customers": s.catalog.Customers(),
		})
		return
	}
	cu, ok := s.catalog.CustomerByPhone(phone)
	if !ok {
		respondError(w, http.StatusNotFound, "customer_not_found", "no customer with that phone")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"customers": []catalog.Customer{cu},
	})
}

func (s *Server) handleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.catalog.CustomerByID(id); !ok {
		respondError(w, http.StatusNotFound, "customer_not_found", "unknown customer "+id)
		return
	}
	list, err := s.assistant.Orders().ListByCustomer(r.Context(), id, limitParam(r, defaultOrdersLimit))
	if err != nil {
		s.log.WithError(err).WithField("customer_id", id).Error("list orders failed")
		respondError(w, http.StatusInternalServerError, "orders_unavailable", "could not load orders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"customer_id": id,
		"orders":      list,
	})
}
