// Package orchestrator runs one conversational turn: it classifies the
// message, dispatches to the domain agents, mutates the session and composes
// the reply.
package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/events"
	"github.com/antoniostano/omnicart/internal/intent"
	"github.com/antoniostano/omnicart/internal/observability"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/policy"
	"github.com/antoniostano/omnicart/internal/session"
)

var ErrUnknownCustomer = errors.New("unknown customer")

// TurnResult is the whole outcome of a turn. Business failures such as a
// declined payment are TurnResults too, never Go errors.
type TurnResult struct {
	Response  string     `json:"response"`
	AgentUsed string     `json:"agent_used"`
	Intent    intent.Tag `json:"intent"`
	Data      any        `json:"data,omitempty"`
}

// Catalog is the read-only lookup surface the orchestrator needs.
type Catalog interface {
	agents.ProductLookup
	agents.StockLookup
	ProductsByCategory(category string) []catalog.Product
	Search(query string, limit int) []catalog.Product
	Stores() []catalog.Store
	CustomerByID(id string) (catalog.Customer, bool)
}

// Pricing holds the delivery surcharge rule: carts below FreeShippingThreshold
// pay DeliveryFee.
type Pricing struct {
	FreeShippingThreshold int
	DeliveryFee           int
}

func DefaultPricing() Pricing {
	return Pricing{FreeShippingThreshold: 1999, DeliveryFee: 99}
}

func (p Pricing) FeeFor(cartValue int) int {
	if cartValue < p.FreeShippingThreshold {
		return p.DeliveryFee
	}
	return 0
}

type Deps struct {
	Catalog Catalog
	// Orders, Publisher and Notifier receive settled orders. Failures there
	// are logged and never fail the turn.
	Orders    orders.Store
	Publisher events.Publisher
	Notifier  events.Notifier
	Metrics   *observability.Metrics
	Log       logrus.FieldLogger

	IDs         agents.IDSource
	Clock       agents.Clock
	Roller      agents.Roller
	FailureRate float64

	Pricing        Pricing
	Loyalty        agents.LoyaltyPolicy
	Recommendation agents.RecommendationPolicy
}

type handlerFunc func(ctx context.Context, text string, s *session.State) TurnResult

type Orchestrator struct {
	catalog     Catalog
	orders      orders.Store
	publisher   events.Publisher
	notifier    events.Notifier
	metrics     *observability.Metrics
	log         logrus.FieldLogger
	ids         agents.IDSource
	now         agents.Clock
	pricing     Pricing
	inventory   *agents.Inventory
	loyalty     *agents.Loyalty
	payment     *agents.Payment
	fulfillment *agents.Fulfillment
	support     *agents.Support
	recommender *agents.Recommender
	handlers    map[intent.Tag]handlerFunc
}

func New(d Deps) *Orchestrator {
	if d.Orders == nil {
		d.Orders = orders.NewInMemoryStore()
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Notifier == nil {
		d.Notifier = events.Nop{}
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	if d.IDs == nil {
		d.IDs = &agents.SequenceIDs{}
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	if d.Pricing == (Pricing{}) {
		d.Pricing = DefaultPricing()
	}
	if d.Loyalty.TierPct == nil {
		d.Loyalty = agents.DefaultLoyaltyPolicy()
	}
	if d.Recommendation.Categories == nil {
		d.Recommendation = agents.DefaultRecommendationPolicy()
	}

	o := &Orchestrator{
		catalog:     d.Catalog,
		orders:      d.Orders,
		publisher:   d.Publisher,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		log:         d.Log,
		ids:         d.IDs,
		now:         d.Clock,
		pricing:     d.Pricing,
		inventory:   agents.NewInventory(d.Catalog),
		loyalty:     agents.NewLoyalty(d.Loyalty),
		recommender: agents.NewRecommender(d.Catalog, d.Recommendation),
		payment: agents.NewPayment(agents.PaymentConfig{
			FailureRate: d.FailureRate,
			Roller:      d.Roller,
			IDs:         d.IDs,
			Clock:       d.Clock,
		}),
		fulfillment: agents.NewFulfillment(d.IDs, d.Clock),
		support:     agents.NewSupport(d.IDs, d.Clock),
	}
	o.handlers = map[intent.Tag]handlerFunc{
		intent.Greeting:       o.greet,
		intent.AddToCart:      o.addToCart,
		intent.RemoveFromCart: o.removeFromCart,
		intent.ViewCart:       o.viewCart,
		intent.StoreSelection: o.selectStore,
		intent.Fulfillment:    o.chooseFulfillment,
		intent.CheckStock:     o.checkStock,
		intent.Checkout:       o.checkout,
		intent.Payment:        o.pay,
		intent.Recommendation: o.recommend,
		intent.TrackOrder:     o.trackOrder,
		intent.Return:         o.returnOrder,
		intent.Feedback:       o.feedback,
		intent.Help:           o.help,
		intent.General:        o.general,
	}
	return o
}

// ProcessTurn handles one user message against s, mutating it in place. The
// caller must not run two turns on the same session concurrently.
func (o *Orchestrator) ProcessTurn(ctx context.Context, text string, s *session.State) TurnResult {
	start := time.Now()
	text = strings.TrimSpace(text)

	s.AppendContext(text)
	tag := intent.Classify(text)
	s.Intent = tag

	handle, ok := o.handlers[tag]
	if !ok {
		handle = o.general
	}
	res := handle(ctx, text, s)
	res.Intent = tag
	s.RecordAgent(res.AgentUsed)

	elapsed := time.Since(start)
	if o.metrics != nil {
		o.metrics.ObserveTurn(string(tag), res.AgentUsed, elapsed)
	}
	o.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"intent":     tag,
		"agent":      res.AgentUsed,
		"latency_ms": float64(elapsed.Microseconds()) / 1000,
		"text":       policy.Redact(text),
	}).Debug("turn processed")
	return res
}

// ResolveCustomer loads a customer and adds the loyalty points credited by
// orders already settled in the ledger.
func (o *Orchestrator) ResolveCustomer(ctx context.Context, customerID string) (*catalog.Customer, error) {
	c, ok := o.catalog.CustomerByID(customerID)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCustomer, "customer %q", customerID)
	}
	out := c.Clone()
	credited, err := o.orders.PointsCredited(ctx, c.ID)
	if err != nil {
		o.log.WithError(err).WithField("customer_id", c.ID).Warn("could not restore credited loyalty points")
		return out, nil
	}
	out.LoyaltyPoints += credited
	return out, nil
}

// AttachCustomer identifies the shopper on s; an empty id detaches.
func (o *Orchestrator) AttachCustomer(ctx context.Context, s *session.State, customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		s.AttachCustomer(nil)
		return nil
	}
	c, err := o.ResolveCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	s.AttachCustomer(c)
	return nil
}

// Orders exposes the ledger for read-only API views.
func (o *Orchestrator) Orders() orders.Store { return o.orders }
