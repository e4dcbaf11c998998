package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/events"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/session"
)

type Breakdown struct {
	Subtotal int `json:"subtotal"`
	Discount int `json:"discount"`
	Delivery int `json:"delivery"`
}

// CheckoutSummary is a priced preview of the cart. Building one never
// changes the session.
type CheckoutSummary struct {
	Quote       agents.LoyaltyQuote `json:"quote"`
	Cart        []session.CartLine  `json:"cart"`
	DeliveryFee int                 `json:"delivery_fee"`
	FinalTotal  int                 `json:"final_total"`
	Breakdown   Breakdown           `json:"breakdown"`
}

func (o *Orchestrator) summarize(s *session.State) CheckoutSummary {
	subtotal := s.CartTotal()
	q := o.loyalty.Quote(s.Customer, subtotal)
	fee := o.pricing.FeeFor(subtotal)
	return CheckoutSummary{
		Quote:       q,
		Cart:        s.CartCopy(),
		DeliveryFee: fee,
		FinalTotal:  q.FinalAmount + fee,
		Breakdown:   Breakdown{Subtotal: subtotal, Discount: q.DiscountAmount, Delivery: fee},
	}
}

func (o *Orchestrator) checkout(_ context.Context, _ string, s *session.State) TurnResult {
	if len(s.Cart) == 0 {
		rec := o.recommender.Recommend(s.Customer, "popular")
		if len(rec.Products) > suggestionLimit {
			rec.Products = rec.Products[:suggestionLimit]
		}
		var b strings.Builder
		b.WriteString("Your cart is empty! Here are some popular items:")
		productList(&b, rec.Products, true)
		b.WriteString("\n\nSay \"Add <product code>\" to get started.")
		return TurnResult{Response: b.String(), AgentUsed: agents.NameRecommendation, Data: rec}
	}

	sum := o.summarize(s)
	q := sum.Quote

	var b strings.Builder
	b.WriteString("Checkout summary\n")
	if c := s.Customer; c != nil {
		fmt.Fprintf(&b, "\n%s (%s), %d points available\n", c.Name, strings.ToUpper(string(c.Tier)), c.LoyaltyPoints)
	}
	b.WriteString("\nOrder details:")
	for i, l := range sum.Cart {
		fmt.Fprintf(&b, "\n%d. %s\n   %s, qty %d, %s", i+1, l.Name, l.Brand, l.Quantity, rupees(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\n\nSubtotal: %s", rupees(sum.Breakdown.Subtotal))
	if q.TotalPct > 0 {
		fmt.Fprintf(&b, "\n%s discount (%d%%): -%s", strings.ToUpper(string(q.Tier)), q.TotalPct, rupees(q.DiscountAmount))
		if q.VolumePct > 0 {
			fmt.Fprintf(&b, "\nincluding volume bonus: -%s", rupees(q.VolumeAmount()))
		}
	}
	if sum.DeliveryFee == 0 {
		b.WriteString("\nDelivery: FREE")
	} else {
		fmt.Fprintf(&b, "\nDelivery: %s", rupees(sum.DeliveryFee))
	}
	fmt.Fprintf(&b, "\n\nTotal: %s", rupees(sum.FinalTotal))

	if s.Customer != nil && q.PointsEarned > 0 {
		fmt.Fprintf(&b, "\n\nLoyalty: +%d points, new balance %d", q.PointsEarned, q.NewPoints)
		if q.CanRedeemPoints {
			b.WriteString("\nYou can redeem points for discounts!")
		}
	} else if s.Customer == nil {
		fmt.Fprintf(&b, "\n\n%s", q.Message)
	}
	b.WriteString("\n\nPay with UPI (GPay/PhonePe/Paytm), card, net banking, wallet or cash on delivery. Choose a payment method to proceed!")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameLoyalty, Data: sum}
}

// methodRules are checked in order; an explicit UPI app wins over everything else.
var methodRules = []struct {
	method  string
	pattern *regexp.Regexp
}{
	{agents.MethodUPI, regexp.MustCompile(`\b(upi|gpay|google pay|phonepe|bhim)\b`)},
	{agents.MethodCard, regexp.MustCompile(`\b(card|credit|debit)\b`)},
	{agents.MethodCash, regexp.MustCompile(`\b(cash|cod)\b`)},
	{agents.MethodWallet, regexp.MustCompile(`\b(wallet|paytm|amazon pay)\b`)},
	{agents.MethodNetBanking, regexp.MustCompile(`\bnet ?banking\b`)},
	{agents.MethodPOS, regexp.MustCompile(`\b(pos|swipe)\b`)},
}

// detectMethod maps whole-word payment keywords to a method, defaulting to UPI.
func detectMethod(lower string) string {
	for _, r := range methodRules {
		if r.pattern.MatchString(lower) {
			return r.method
		}
	}
	return agents.MethodUPI
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// OrderConfirmation is the data payload of a settled payment.
type OrderConfirmation struct {
	OrderID      string                 `json:"order_id"`
	Payment      agents.PaymentOutcome  `json:"payment"`
	Fulfillment  agents.FulfillmentPlan `json:"fulfillment"`
	OrderValue   int                    `json:"order_value"`
	OrderItems   []session.CartLine     `json:"order_items"`
	PointsEarned int                    `json:"points_earned"`
	NewBalance   int                    `json:"new_balance,omitempty"`
}

func (o *Orchestrator) pay(ctx context.Context, text string, s *session.State) TurnResult {
	method := detectMethod(strings.ToLower(text))
	if len(s.Cart) == 0 {
		return TurnResult{
			Response:  "Your cart is empty, so there is nothing to pay for yet. Add something first!",
			AgentUsed: agents.NamePayment,
			Data: agents.PaymentOutcome{
				Method:  method,
				Error:   "cart is empty",
				Message: "Nothing was charged.",
			},
		}
	}

	sum := o.summarize(s)
	outcome := o.payment.Attempt(sum.FinalTotal, method, s.FailedPayments)
	if o.metrics != nil {
		o.metrics.ObservePayment(method, outcome.Success)
	}
	if !outcome.Success {
		s.FailedPayments++
		var b strings.Builder
		fmt.Fprintf(&b, "%s payment of %s failed: %s.\n\n%s", method, rupees(sum.FinalTotal), outcome.Error, outcome.Message)
		b.WriteString("\n\nYou can say:\n- \"Retry payment\"\n- \"Pay with UPI\"\n- \"Pay with card\"\n- \"Pay with cash\"")
		b.WriteString("\n\nYour cart is saved.")
		return TurnResult{Response: b.String(), AgentUsed: agents.NamePayment, Data: outcome}
	}

	kind, storeID := agents.FulfillDelivery, ""
	if s.Channel == session.ChannelKiosk {
		kind = agents.FulfillPickup
		storeID = o.pickupStore(s.Cart[0].SKU)
	}
	orderID := o.ids.Next("ORD")
	plan := o.fulfillment.Arrange(orderID, kind, "", storeID)

	items := s.CartCopy()
	conf := OrderConfirmation{
		OrderID:      orderID,
		Payment:      outcome,
		Fulfillment:  plan,
		OrderValue:   sum.FinalTotal,
		OrderItems:   items,
		PointsEarned: sum.Quote.PointsEarned,
	}
	if s.Customer != nil {
		s.Customer.LoyaltyPoints += sum.Quote.PointsEarned
		conf.NewBalance = s.Customer.LoyaltyPoints
	}
	s.ClearCart()
	s.FailedPayments = 0
	s.FocusSKU = ""
	s.OfferedStores = nil
	s.LastOrder = &session.OrderSummary{
		OrderID:       conf.OrderID,
		TransactionID: outcome.TransactionID,
		Total:         sum.FinalTotal,
		TrackingID:    plan.TrackingID,
		ReservationID: plan.ReservationID,
		PlacedAt:      outcome.Timestamp,
	}
	o.settle(ctx, s, sum, conf)

	var b strings.Builder
	fmt.Fprintf(&b, "Payment successful!\n\n%s payment: %s\nTransaction ID: %s\nOrder ID: %s\n\nOrder confirmed:",
		method, rupees(sum.FinalTotal), outcome.TransactionID, conf.OrderID)
	for i, l := range items {
		fmt.Fprintf(&b, "\n%d. %s x%d", i+1, l.Name, l.Quantity)
	}
	fmt.Fprintf(&b, "\n\n%s", plan.Message)
	if plan.TrackingID != "" {
		fmt.Fprintf(&b, "\nTracking ID: %s", plan.TrackingID)
	}
	if plan.ReservationID != "" {
		fmt.Fprintf(&b, "\nReservation ID: %s", plan.ReservationID)
	}
	if s.Customer != nil && conf.PointsEarned > 0 {
		fmt.Fprintf(&b, "\n\nLoyalty: +%d points, new balance %d", conf.PointsEarned, conf.NewBalance)
	}
	b.WriteString("\n\nThank you for shopping with us! Say \"Track my order\" any time.")
	return TurnResult{Response: b.String(), AgentUsed: agents.NamePayment, Data: conf}
}

// pickupStore picks the first store holding sku, if any.
func (o *Orchestrator) pickupStore(sku string) string {
	report := o.inventory.CheckStock(sku, "")
	if len(report.Stores) == 0 {
		return ""
	}
	return report.Stores[0].StoreID
}

// settle records a paid order in the ledger, publishes it and queues the
// customer notification. Every step is best-effort and outlives the caller's
// cancellation, since the session has already been charged and credited.
func (o *Orchestrator) settle(ctx context.Context, s *session.State, sum CheckoutSummary, conf OrderConfirmation) {
	ctx = context.WithoutCancel(ctx)
	order := orders.Order{
		ID:            conf.OrderID,
		SessionID:     s.ID,
		CustomerID:    s.CustomerID,
		TransactionID: conf.Payment.TransactionID,
		Channel:       string(s.Channel),
		Method:        conf.Payment.Method,
		Subtotal:      sum.Breakdown.Subtotal,
		Discount:      sum.Breakdown.Discount,
		DeliveryFee:   sum.DeliveryFee,
		Total:         sum.FinalTotal,
		Fulfillment:   string(conf.Fulfillment.Kind),
		TrackingID:    conf.Fulfillment.TrackingID,
		ReservationID: conf.Fulfillment.ReservationID,
		CreatedAt:     conf.Payment.Timestamp,
	}
	if s.Customer != nil {
		order.PointsEarned = conf.PointsEarned
	}
	evt := events.OrderConfirmed{
		OrderID:       order.ID,
		SessionID:     order.SessionID,
		CustomerID:    order.CustomerID,
		TransactionID: order.TransactionID,
		Channel:       order.Channel,
		Method:        order.Method,
		Total:         order.Total,
		PointsEarned:  order.PointsEarned,
		Fulfillment:   order.Fulfillment,
		OccurredAt:    order.CreatedAt,
	}
	for _, l := range conf.OrderItems {
		order.Lines = append(order.Lines, orders.Line{SKU: l.SKU, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
		evt.Lines = append(evt.Lines, events.OrderLine{SKU: l.SKU, Quantity: l.Quantity, Price: l.UnitPrice})
	}

	log := o.log.WithFields(logrus.Fields{"session_id": s.ID, "order_id": order.ID})
	sideEffect := func(sink string, err error) {
		if err == nil {
			return
		}
		log.WithError(err).WithField("sink", sink).Warn("order settlement side effect failed")
		if o.metrics != nil {
			o.metrics.ObserveSideEffectError(sink)
		}
	}

	sideEffect("ledger", o.orders.Save(ctx, order))
	sideEffect("kafka", o.publisher.PublishOrderConfirmed(ctx, evt))
	if c := s.Customer; c != nil {
		sideEffect("asynq", o.notifier.NotifyOrderConfirmed(ctx, events.Notification{
			OrderID:    order.ID,
			CustomerID: c.ID,
			Name:       c.Name,
			Email:      c.Email,
			Phone:      c.Phone,
			Channel:    order.Channel,
			Message:    fmt.Sprintf("Hi %s, your order %s for %s is confirmed. %s", c.Name, order.ID, rupees(order.Total), conf.Fulfillment.Message),
		}))
	}
	if o.metrics != nil {
		o.metrics.ObserveOrder(order.Total)
	}
	log.WithFields(logrus.Fields{
		"total":       order.Total,
		"method":      order.Method,
		"fulfillment": order.Fulfillment,
	}).Info("order settled")
}
