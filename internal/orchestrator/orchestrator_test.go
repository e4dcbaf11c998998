package orchestrator

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/events"
	"github.com/antoniostano/omnicart/internal/intent"
	"github.com/antoniostano/omnicart/internal/observability"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/session"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type recordingSink struct {
	published []events.OrderConfirmed
	notified  []events.Notification
	err       error
}

func (r *recordingSink) PublishOrderConfirmed(ctx context.Context, evt events.OrderConfirmed) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	r.published = append(r.published, evt)
	return nil
}

func (r *recordingSink) NotifyOrderConfirmed(ctx context.Context, n events.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.err != nil {
		return r.err
	}
	r.notified = append(r.notified, n)
	return nil
}

func (r *recordingSink) Close() error { return nil }

type harness struct {
	orch    *Orchestrator
	ledger  *orders.InMemoryStore
	sink    *recordingSink
	metrics *observability.Metrics
}

// newHarness builds an orchestrator whose payment gateway always rolls roll;
// rolls below 0.2 fail the first attempt.
func newHarness(t *testing.T, roll float64) *harness {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	h := &harness{
		ledger:  orders.NewInMemoryStore(),
		sink:    &recordingSink{},
		metrics: observability.NewMetrics("test"),
	}
	h.orch = New(Deps{
		Catalog:     catalog.New(catalog.Seed()),
		Orders:      h.ledger,
		Publisher:   h.sink,
		Notifier:    h.sink,
		Metrics:     h.metrics,
		Log:         log,
		IDs:         &agents.SequenceIDs{},
		Clock:       func() time.Time { return testNow },
		Roller:      agents.FixedRoller(roll),
		FailureRate: 0.2,
	})
	return h
}

func (h *harness) session(t *testing.T, channel session.Channel, customerID string) *session.State {
	t.Helper()
	s := session.NewManager(time.Minute).Create(context.Background(), channel, nil)
	require.NoError(t, h.orch.AttachCustomer(context.Background(), s, customerID))
	return s
}

func (h *harness) turn(s *session.State, text string) TurnResult {
	return h.orch.ProcessTurn(context.Background(), text, s)
}

func TestProcessTurnRecordsIntentContextAndAgent(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "  hello there ")
	assert.Equal(t, intent.Greeting, res.Intent)
	assert.Equal(t, agents.NameSales, res.AgentUsed)
	assert.Equal(t, intent.Greeting, s.Intent)
	assert.Equal(t, []string{"hello there"}, s.Context)
	assert.Equal(t, 1, s.AgentUsage[agents.NameSales])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Turns.WithLabelValues("greeting", agents.NameSales)))
}

func TestGreetingIsPersonalized(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")

	res := h.turn(s, "Hi")
	assert.Contains(t, res.Response, "Priya Sharma")
	assert.Contains(t, res.Response, "2500 points")
}

func TestAddBySKUChecksStockFirst(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "add LV001 to cart")
	require.Equal(t, intent.AddToCart, res.Intent)
	assert.Equal(t, agents.NameSales, res.AgentUsed)

	added, ok := res.Data.(AddedToCart)
	require.True(t, ok)
	assert.True(t, added.Stock.Available)
	assert.Equal(t, 27, added.Stock.TotalAvailable)
	require.Len(t, added.Stock.Stores, 2)
	for _, st := range added.Stock.Stores {
		assert.NotEqual(t, "S005", st.StoreID)
	}
	require.Len(t, s.Cart, 1)
	assert.Equal(t, "LV001", s.Cart[0].SKU)
	assert.Equal(t, 2999, s.CartTotal())
	assert.Contains(t, res.Response, "₹2,999")
	assert.Contains(t, res.Response, "Complete your formal look")
}

func TestAddSameProductTwiceMergesLine(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	h.turn(s, "add LV001")
	h.turn(s, "add lv001 to my cart")
	require.Len(t, s.Cart, 1)
	assert.Equal(t, 2, s.Cart[0].Quantity)
	assert.Equal(t, 5998, s.CartTotal())
}

func TestAddResolvesNameAndBrand(t *testing.T) {
	h := newHarness(t, 0.99)

	cases := []struct {
		text string
		sku  string
	}{
		{"I'll take the Premium Linen Shirt by Louis Philippe", "LV001"},
		{"add premium linen shirt", "LV001"},
		{"add the louis philippe shoes", "LV006"},
		{"buy wool blend blazer", "PB004"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			s := h.session(t, session.ChannelWeb, "")
			res := h.turn(s, tc.text)
			require.Equal(t, intent.AddToCart, res.Intent)
			require.Len(t, s.Cart, 1)
			assert.Equal(t, tc.sku, s.Cart[0].SKU)
		})
	}
}

func TestAddUnresolvedOffersSuggestions(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "hi, add the polo shirt")
	require.Equal(t, intent.AddToCart, res.Intent)
	assert.Equal(t, agents.NameRecommendation, res.AgentUsed)
	assert.Empty(t, s.Cart)

	sugg, ok := res.Data.(Suggestions)
	require.True(t, ok)
	require.NotEmpty(t, sugg.Suggestions)
	assert.Equal(t, "PB009", sugg.Suggestions[0].SKU)
}

func TestAddWithLoyaltyShowsSavings(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")

	res := h.turn(s, "add LV001")
	added := res.Data.(AddedToCart)
	assert.Equal(t, 450, added.Savings)
	assert.Contains(t, res.Response, "GOLD discount: 15%")
}

func TestRecommendationTurn(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "show me formal under 3000")
	require.Equal(t, intent.Recommendation, res.Intent)
	rec, ok := res.Data.(agents.RecommendationResult)
	require.True(t, ok)
	var skus []string
	for _, p := range rec.Products {
		skus = append(skus, p.SKU)
	}
	assert.Equal(t, []string{"LV001", "VH008"}, skus)
	assert.Empty(t, s.Cart)
}

func TestCheckStockNeedsProductCode(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "is it in stock?")
	require.Equal(t, intent.CheckStock, res.Intent)
	assert.Equal(t, agents.NameSales, res.AgentUsed)
	assert.Nil(t, res.Data)

	res = h.turn(s, "check stock for PB004")
	assert.Equal(t, agents.NameInventory, res.AgentUsed)
	report := res.Data.(agents.StockReport)
	assert.Equal(t, 14, report.TotalAvailable)
	assert.Equal(t, "PB004", s.FocusSKU)
}

func TestCheckoutIsAPreview(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")

	first := h.turn(s, "checkout")
	require.Equal(t, intent.Checkout, first.Intent)
	assert.Equal(t, agents.NameLoyalty, first.AgentUsed)

	sum, ok := first.Data.(CheckoutSummary)
	require.True(t, ok)
	assert.Equal(t, 450, sum.Quote.DiscountAmount)
	assert.Equal(t, 2549, sum.Quote.FinalAmount)
	assert.Equal(t, 29, sum.Quote.PointsEarned)
	assert.Equal(t, 0, sum.DeliveryFee)
	assert.Equal(t, 2549, sum.FinalTotal)
	assert.Equal(t, Breakdown{Subtotal: 2999, Discount: 450, Delivery: 0}, sum.Breakdown)

	second := h.turn(s, "proceed to checkout")
	assert.Equal(t, sum, second.Data.(CheckoutSummary))
	assert.Len(t, s.Cart, 1)
	assert.Equal(t, 2500, s.Customer.LoyaltyPoints)
}

func TestCheckoutChargesDeliveryBelowThreshold(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add PB009")

	sum := h.turn(s, "checkout").Data.(CheckoutSummary)
	assert.Equal(t, 99, sum.DeliveryFee)
	assert.Equal(t, 999+99, sum.FinalTotal)
}

func TestCheckoutWithEmptyCartRecommends(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "checkout")
	assert.Equal(t, agents.NameRecommendation, res.AgentUsed)
	rec := res.Data.(agents.RecommendationResult)
	assert.Len(t, rec.Products, 3)
}

func TestFailedPaymentLeavesCartAndPointsThenRetrySucceeds(t *testing.T) {
	h := newHarness(t, 0.0)
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")

	res := h.turn(s, "pay with upi")
	require.Equal(t, intent.Payment, res.Intent)
	outcome, ok := res.Data.(agents.PaymentOutcome)
	require.True(t, ok)
	assert.False(t, outcome.Success)
	assert.True(t, outcome.Retryable)
	assert.Len(t, s.Cart, 1)
	assert.Equal(t, 2500, s.Customer.LoyaltyPoints)
	assert.Equal(t, 1, s.FailedPayments)
	assert.Nil(t, s.LastOrder)
	assert.Empty(t, h.sink.published)

	res = h.turn(s, "retry payment")
	conf, ok := res.Data.(OrderConfirmation)
	require.True(t, ok)
	assert.True(t, conf.Payment.Success)
	assert.Equal(t, agents.MethodUPI, conf.Payment.Method)
	assert.Equal(t, 2549, conf.OrderValue)
	assert.Equal(t, 29, conf.PointsEarned)
	assert.Equal(t, 2529, conf.NewBalance)
	require.Len(t, conf.OrderItems, 1)
	assert.Equal(t, "LV001", conf.OrderItems[0].SKU)

	assert.Empty(t, s.Cart)
	assert.Equal(t, 0, s.FailedPayments)
	assert.Equal(t, 2529, s.Customer.LoyaltyPoints)
	require.NotNil(t, s.LastOrder)
	assert.Equal(t, conf.OrderID, s.LastOrder.OrderID)
	assert.Equal(t, 2549, s.LastOrder.Total)
}

func TestSuccessfulPaymentSettlesOrder(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")

	res := h.turn(s, "pay by credit card")
	conf := res.Data.(OrderConfirmation)
	assert.Equal(t, agents.MethodCard, conf.Payment.Method)
	assert.Equal(t, agents.FulfillDelivery, conf.Fulfillment.Kind)
	assert.NotEmpty(t, conf.Fulfillment.TrackingID)
	assert.Contains(t, conf.Fulfillment.Message, "21 Oct 2026")

	ctx := context.Background()
	order, err := h.ledger.Get(ctx, conf.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 2549, order.Total)
	assert.Equal(t, 450, order.Discount)
	assert.Equal(t, "C001", order.CustomerID)
	assert.Equal(t, 29, order.PointsEarned)
	require.Len(t, order.Lines, 1)

	credited, err := h.ledger.PointsCredited(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, 29, credited)

	require.Len(t, h.sink.published, 1)
	assert.Equal(t, conf.OrderID, h.sink.published[0].OrderID)
	require.Len(t, h.sink.notified, 1)
	assert.Equal(t, "priya@email.com", h.sink.notified[0].Email)
}

func TestPaymentMethodDetection(t *testing.T) {
	cases := map[string]string{
		"pay with gpay":       agents.MethodUPI,
		"pay":                 agents.MethodUPI,
		"debit card please":   agents.MethodCard,
		"pay cash":            agents.MethodCash,
		"pay using paytm":     agents.MethodWallet,
		"use net banking":     agents.MethodNetBanking,
		"netbanking":          agents.MethodNetBanking,
		"swipe at pos to pay": agents.MethodPOS,
		"cash on delivery":    agents.MethodCash,
		"pay cod":             agents.MethodCash,

		"pay with upi code":        agents.MethodUPI,
		"pay with upi, i suppose":  agents.MethodUPI,
		"pay now please, positive": agents.MethodUPI,
		"my purpose is to pay":     agents.MethodUPI,
		"phonepe, not my card":     agents.MethodUPI,
		"pay by credit card":       agents.MethodCard,
		"amazon pay wallet":        agents.MethodWallet,
	}
	for text, want := range cases {
		assert.Equal(t, want, detectMethod(text), text)
	}
}

func TestKioskPaymentArrangesPickup(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelKiosk, "")
	h.turn(s, "add LV001")

	conf := h.turn(s, "pay with upi").Data.(OrderConfirmation)
	assert.Equal(t, agents.FulfillPickup, conf.Fulfillment.Kind)
	assert.Equal(t, "S001", conf.Fulfillment.StoreID)
	assert.NotEmpty(t, conf.Fulfillment.ReservationID)
	assert.Equal(t, conf.Fulfillment.ReservationID, s.LastOrder.ReservationID)
}

func TestAnonymousPaymentCreditsNoPoints(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add LV001")

	conf := h.turn(s, "pay").Data.(OrderConfirmation)
	assert.Equal(t, 2999, conf.OrderValue)
	assert.Equal(t, 0, conf.NewBalance)

	order, err := h.ledger.Get(context.Background(), conf.OrderID)
	require.NoError(t, err)
	assert.Equal(t, 0, order.PointsEarned)
	assert.Len(t, h.sink.published, 1)
	assert.Empty(t, h.sink.notified)
}

func TestPaymentWithEmptyCartIsRefused(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")

	res := h.turn(s, "pay with card")
	assert.Equal(t, agents.NamePayment, res.AgentUsed)
	outcome := res.Data.(agents.PaymentOutcome)
	assert.False(t, outcome.Success)
	assert.Equal(t, "cart is empty", outcome.Error)
	assert.Nil(t, s.LastOrder)
	assert.Empty(t, h.sink.published)
}

func TestSettlementFailuresDoNotFailTheTurn(t *testing.T) {
	h := newHarness(t, 0.99)
	h.sink.err = errors.New("broker down")
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")

	res := h.turn(s, "pay with upi")
	conf := res.Data.(OrderConfirmation)
	assert.True(t, conf.Payment.Success)
	assert.Empty(t, s.Cart)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SideEffectErrors.WithLabelValues("kafka")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.SideEffectErrors.WithLabelValues("asynq")))

	_, err := h.ledger.Get(context.Background(), conf.OrderID)
	assert.NoError(t, err)
}

func TestSettlementSurvivesCancelledTurnContext(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conf := h.orch.ProcessTurn(ctx, "pay with upi", s).Data.(OrderConfirmation)
	require.True(t, conf.Payment.Success)

	require.Len(t, h.sink.published, 1)
	require.Len(t, h.sink.notified, 1)
	assert.Zero(t, testutil.ToFloat64(h.metrics.SideEffectErrors.WithLabelValues("kafka")))

	restored, err := h.orch.ResolveCustomer(context.Background(), "C001")
	require.NoError(t, err)
	assert.Equal(t, 2500+29, restored.LoyaltyPoints)
}

func TestRemoveAndClearCart(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add LV001")
	h.turn(s, "add PB009")
	h.turn(s, "add AB002")

	res := h.turn(s, "remove LV001")
	require.Equal(t, intent.RemoveFromCart, res.Intent)
	view := res.Data.(CartView)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, 999+2499, view.CartTotal)

	h.turn(s, "remove the chinos")
	require.Len(t, s.Cart, 1)
	assert.Equal(t, "PB009", s.Cart[0].SKU)

	h.turn(s, "clear cart")
	assert.Empty(t, s.Cart)

	res = h.turn(s, "show my cart")
	assert.Equal(t, intent.ViewCart, res.Intent)
	assert.Contains(t, res.Response, "empty")
}

func TestPickupOffersStoresThenReserves(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add LV001")

	res := h.turn(s, "store pickup")
	require.Equal(t, intent.Fulfillment, res.Intent)
	require.Len(t, s.OfferedStores, 2)
	assert.Contains(t, res.Response, "Option 2: DLF Mall Delhi")

	res = h.turn(s, "option 2")
	require.Equal(t, intent.StoreSelection, res.Intent)
	assert.Equal(t, agents.NameFulfillment, res.AgentUsed)
	resv, ok := res.Data.(StoreReservation)
	require.True(t, ok)
	assert.Equal(t, "S002", resv.Store.ID)
	assert.Equal(t, "LV001", resv.SKU)
	assert.NotEmpty(t, resv.Plan.ReservationID)
	require.NotNil(t, resv.Plan.ValidUntil)
	assert.Equal(t, testNow.Add(48*time.Hour), *resv.Plan.ValidUntil)
	assert.Nil(t, s.OfferedStores)
}

func TestStoreSelectionChecksStoreStock(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add LV001")

	res := h.turn(s, "I'd prefer the Hyderabad store")
	require.Equal(t, intent.StoreSelection, res.Intent)
	assert.Equal(t, agents.NameInventory, res.AgentUsed)
	report := res.Data.(agents.StockReport)
	assert.False(t, report.Available)

	res = h.turn(s, "phoenix")
	resv := res.Data.(StoreReservation)
	assert.Equal(t, "S001", resv.Store.ID)
}

func TestPickupWithoutProductAsks(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "I'd like to reserve for pickup")
	assert.Equal(t, agents.NameFulfillment, res.AgentUsed)
	assert.Nil(t, res.Data)
	assert.Empty(t, s.OfferedStores)
}

func TestStoreSelectionReservesNamedProduct(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add AB002")

	res := h.turn(s, "reserve LV001 at Phoenix Mall")
	require.Equal(t, intent.StoreSelection, res.Intent)
	resv, ok := res.Data.(StoreReservation)
	require.True(t, ok)
	assert.Equal(t, "LV001", resv.SKU)
	assert.Equal(t, "S001", resv.Store.ID)
	assert.Contains(t, res.Response, "Premium Linen Shirt (LV001)")
	require.Len(t, s.Cart, 1)
	assert.Equal(t, "AB002", s.Cart[0].SKU)
}

func TestStoreSelectionWithProductCodeOnEmptySession(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "is LV001 available in Mumbai?")
	require.Equal(t, intent.StoreSelection, res.Intent)
	resv, ok := res.Data.(StoreReservation)
	require.True(t, ok)
	assert.Equal(t, "LV001", resv.SKU)
	assert.Equal(t, "S001", resv.Store.ID)
}

func TestPickupOfferForNamedProductKeepsItForOption(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")
	h.turn(s, "add AB002")

	res := h.turn(s, "pickup for LV001")
	require.Equal(t, intent.Fulfillment, res.Intent)
	assert.Contains(t, res.Response, "Premium Linen Shirt (LV001) is available for pickup")
	require.Len(t, s.OfferedStores, 2)

	res = h.turn(s, "option 2")
	resv, ok := res.Data.(StoreReservation)
	require.True(t, ok)
	assert.Equal(t, "LV001", resv.SKU)
	assert.Equal(t, "S002", resv.Store.ID)
}

func TestDeliveryInfo(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "home delivery")
	require.Equal(t, intent.Fulfillment, res.Intent)
	info := res.Data.(DeliveryInfo)
	assert.Equal(t, testNow.AddDate(0, 0, 3), info.EstimatedDelivery)
	assert.Equal(t, 99, info.DeliveryFee)
	assert.Contains(t, res.Response, "21 Oct 2026")
}

func TestTrackAndReturnUseLastOrder(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "track my order")
	require.Equal(t, intent.TrackOrder, res.Intent)
	assert.Nil(t, res.Data)

	h.turn(s, "add LV001")
	conf := h.turn(s, "pay with upi").Data.(OrderConfirmation)

	res = h.turn(s, "track my order")
	status := res.Data.(agents.TrackingStatus)
	assert.Equal(t, conf.OrderID, status.OrderID)

	res = h.turn(s, "return this, the colour is off")
	require.Equal(t, intent.Return, res.Intent)
	ticket := res.Data.(agents.ReturnTicket)
	assert.Equal(t, conf.OrderID, ticket.OrderID)
	assert.Equal(t, "colour mismatch", ticket.Reason)
	assert.Equal(t, 2999, ticket.RefundAmount)
}

func TestReturnByOrderIDLooksUpLedger(t *testing.T) {
	h := newHarness(t, 0.99)
	first := h.session(t, session.ChannelWeb, "")
	h.turn(first, "add PB004")
	conf := h.turn(first, "pay with upi").Data.(OrderConfirmation)

	other := h.session(t, session.ChannelMobile, "")
	res := h.turn(other, "refund "+conf.OrderID+", it arrived damaged")
	ticket := res.Data.(agents.ReturnTicket)
	assert.Equal(t, conf.OrderID, ticket.OrderID)
	assert.Equal(t, "damaged item", ticket.Reason)
	assert.Equal(t, 5999, ticket.RefundAmount)

	res = h.turn(other, "refund ORD999999")
	ticket = res.Data.(agents.ReturnTicket)
	assert.Equal(t, "ORD999999", ticket.OrderID)
	assert.Equal(t, "size issue", ticket.Reason)
	assert.Equal(t, 0, ticket.RefundAmount)
}

func TestFeedbackTurn(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWhatsApp, "")

	res := h.turn(s, "I'd give five stars, great rating from me")
	require.Equal(t, intent.Feedback, res.Intent)
	receipt := res.Data.(agents.FeedbackReceipt)
	assert.NotEmpty(t, receipt.FeedbackID)
	assert.Contains(t, res.Response, receipt.FeedbackID)
}

func TestAttachCustomerRestoresCreditedPoints(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "C001")
	h.turn(s, "add LV001")
	h.turn(s, "pay with upi")

	again := h.session(t, session.ChannelMobile, "C001")
	assert.Equal(t, 2529, again.Customer.LoyaltyPoints)

	err := h.orch.AttachCustomer(context.Background(), again, "C999")
	assert.True(t, errors.Is(err, ErrUnknownCustomer))
	assert.Equal(t, "C001", again.CustomerID)

	require.NoError(t, h.orch.AttachCustomer(context.Background(), again, ""))
	assert.Nil(t, again.Customer)
}

func TestUnknownTextFallsBackToGeneral(t *testing.T) {
	h := newHarness(t, 0.99)
	s := h.session(t, session.ChannelWeb, "")

	res := h.turn(s, "qwerty")
	assert.Equal(t, intent.General, res.Intent)
	assert.Equal(t, agents.NameSales, res.AgentUsed)
	assert.NotEmpty(t, res.Response)
}
