package session

import (
	"time"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/intent"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Channel affects fulfillment defaulting only, never pricing.
type Channel string

const (
	ChannelWeb      Channel = "web"
	ChannelMobile   Channel = "mobile"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelKiosk    Channel = "kiosk"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWeb, ChannelMobile, ChannelWhatsApp, ChannelKiosk:
		return true
	default:
		return false
	}
}

type CartLine struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	UnitPrice int    `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Subtotal() int { return l.UnitPrice * l.Quantity }

// OrderSummary is what a session remembers about its most recent settled order.
type OrderSummary struct {
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	Total         int       `json:"total"`
	TrackingID    string    `json:"tracking_id,omitempty"`
	ReservationID string    `json:"reservation_id,omitempty"`
	PlacedAt      time.Time `json:"placed_at"`
}

// State is one conversation. The orchestrator mutates it in place; the Manager
// serializes turns so a State is never touched by two turns at once.
type State struct {
	ID             string            `json:"session_id"`
	Status         Status            `json:"status"`
	Channel        Channel           `json:"channel"`
	CustomerID     string            `json:"customer_id,omitempty"`
	Customer       *catalog.Customer `json:"customer,omitempty"`
	Cart           []CartLine        `json:"cart"`
	Intent         intent.Tag        `json:"intent,omitempty"`
	Context        []string          `json:"context"`
	FailedPayments int               `json:"failed_payments"`
	LastOrder      *OrderSummary     `json:"last_order,omitempty"`
	FocusSKU       string            `json:"focus_sku,omitempty"`
	OfferedStores  []catalog.Store   `json:"offered_stores,omitempty"`
	AgentUsage     map[string]int    `json:"agent_usage"`
	StartedAt      time.Time         `json:"started_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

func newState(id string, channel Channel, now time.Time) *State {
	return &State{
		ID:             id,
		Status:         StatusActive,
		Channel:        channel,
		Cart:           []CartLine{},
		Context:        []string{},
		AgentUsage:     map[string]int{},
		StartedAt:      now,
		LastActivityAt: now,
	}
}

// CartTotal is recomputed from the lines on every call.
func (s *State) CartTotal() int {
	total := 0
	for _, l := range s.Cart {
		total += l.Subtotal()
	}
	return total
}

func (s *State) CartItemCount() int {
	n := 0
	for _, l := range s.Cart {
		n += l.Quantity
	}
	return n
}

// AddToCart merges into an existing line for the same SKU; quantity below one
// counts as one. It returns the resulting line.
func (s *State) AddToCart(p catalog.Product, quantity int) CartLine {
	if quantity < 1 {
		quantity = 1
	}
	for i := range s.Cart {
		if s.Cart[i].SKU == p.SKU {
			s.Cart[i].Quantity += quantity
			return s.Cart[i]
		}
	}
	line := CartLine{SKU: p.SKU, Name: p.Name, Brand: p.Brand, UnitPrice: p.Price, Quantity: quantity}
	s.Cart = append(s.Cart, line)
	return line
}

// RemoveFromCart drops the whole line for sku.
func (s *State) RemoveFromCart(sku string) (CartLine, bool) {
	for i, l := range s.Cart {
		if l.SKU == sku {
			s.Cart = append(s.Cart[:i], s.Cart[i+1:]...)
			return l, true
		}
	}
	return CartLine{}, false
}

func (s *State) ClearCart() {
	s.Cart = []CartLine{}
}

func (s *State) CartCopy() []CartLine {
	return append([]CartLine(nil), s.Cart...)
}

func (s *State) AppendContext(message string) {
	s.Context = append(s.Context, message)
}

// Steps is the number of user messages seen.
func (s *State) Steps() int { return len(s.Context) }

func (s *State) RecordAgent(name string) {
	if s.AgentUsage == nil {
		s.AgentUsage = map[string]int{}
	}
	s.AgentUsage[name]++
}

// AttachCustomer replaces the customer snapshot; nil detaches.
func (s *State) AttachCustomer(c *catalog.Customer) {
	if c == nil {
		s.Customer = nil
		s.CustomerID = ""
		return
	}
	s.Customer = c.Clone()
	s.CustomerID = c.ID
}

// Reset starts a fresh conversation while keeping who is talking and where.
func (s *State) Reset() {
	s.Cart = []CartLine{}
	s.Context = []string{}
	s.Intent = ""
	s.FailedPayments = 0
	s.LastOrder = nil
	s.FocusSKU = ""
	s.OfferedStores = nil
	s.AgentUsage = map[string]int{}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	c := *s
	if s.Customer != nil {
		c.Customer = s.Customer.Clone()
	}
	c.Cart = s.CartCopy()
	c.Context = append([]string(nil), s.Context...)
	c.OfferedStores = append([]catalog.Store(nil), s.OfferedStores...)
	c.AgentUsage = make(map[string]int, len(s.AgentUsage))
	for k, v := range s.AgentUsage {
		c.AgentUsage[k] = v
	}
	if s.LastOrder != nil {
		o := *s.LastOrder
		c.LastOrder = &o
	}
	return &c
}

// Analytics summarizes a session for dashboards.
type Analytics struct {
	SessionID    string         `json:"session_id"`
	Steps        int            `json:"steps"`
	AgentUsage   map[string]int `json:"agent_usage"`
	CartValue    int            `json:"cart_value"`
	CartItems    int            `json:"cart_items"`
	LastIntent   intent.Tag     `json:"last_intent,omitempty"`
	Channel      Channel        `json:"channel"`
	CustomerTier catalog.Tier   `json:"customer_tier,omitempty"`
}

func (s *State) Analytics() Analytics {
	a := Analytics{
		SessionID:  s.ID,
		Steps:      s.Steps(),
		AgentUsage: s.Clone().AgentUsage,
		CartValue:  s.CartTotal(),
		CartItems:  s.CartItemCount(),
		LastIntent: s.Intent,
		Channel:    s.Channel,
	}
	if s.Customer != nil {
		a.CustomerTier = s.Customer.Tier
	}
	return a
}

// CreateRequest is the payload for opening a session.
type CreateRequest struct {
	CustomerID string  `json:"customer_id"`
	Channel    Channel `json:"channel"`
}
