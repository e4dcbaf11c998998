package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/orders"
	"github.com/antoniostano/omnicart/internal/policy"
	"github.com/antoniostano/omnicart/internal/session"
)

var orderToken = regexp.MustCompile(`(?i)\b(?:ORD|TXN)\d[A-Za-z0-9]*\b`)

var returnReasons = []struct {
	keywords []string
	reason   string
}{
	{[]string{"size", "fit"}, "size issue"},
	{[]string{"damaged", "torn"}, "damaged item"},
	{[]string{"defective", "faulty"}, "defective item"},
	{[]string{"quality"}, "quality issue"},
	{[]string{"colour", "color"}, "colour mismatch"},
	{[]string{"changed my mind", "changed mind", "don't want", "dont want"}, "changed mind"},
}

const defaultReturnReason = "size issue"

func returnReason(lower string) string {
	for _, r := range returnReasons {
		if containsAny(lower, r.keywords...) {
			return r.reason
		}
	}
	return defaultReturnReason
}

// referencedOrder returns the order a support turn is about: an id in the
// text, else the session's last order. total is 0 when unknown.
func (o *Orchestrator) referencedOrder(ctx context.Context, text string, s *session.State) (id string, total int, ok bool) {
	if m := orderToken.FindString(text); m != "" {
		id = strings.ToUpper(m)
		if lo := s.LastOrder; lo != nil && (lo.OrderID == id || lo.TransactionID == id) {
			return lo.OrderID, lo.Total, true
		}
		if strings.HasPrefix(id, "ORD") {
			order, err := o.orders.Get(ctx, id)
			switch {
			case err == nil:
				return id, order.Total, true
			case !errors.Is(err, orders.ErrNotFound):
				o.log.WithError(err).WithField("order_id", id).Warn("order lookup failed")
			}
		}
		return id, 0, true
	}
	if lo := s.LastOrder; lo != nil {
		return lo.OrderID, lo.Total, true
	}
	return "", 0, false
}

func (o *Orchestrator) trackOrder(ctx context.Context, text string, s *session.State) TurnResult {
	id, _, ok := o.referencedOrder(ctx, text, s)
	if !ok {
		return TurnResult{
			Response:  "Please share your order ID (it starts with ORD) so I can track it.",
			AgentUsed: agents.NameSupport,
		}
	}
	st := o.support.Track(id)
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s\n\nStatus: %s\nCurrent location: %s\nExpected delivery: %s\n\nRecent updates:",
		st.OrderID, st.Status, st.Location, st.EstimatedDelivery.Format("2 Jan 2006"))
	for _, u := range st.Updates {
		fmt.Fprintf(&b, "\n- %s: %s", u.Time, u.Status)
	}
	return TurnResult{Response: b.String(), AgentUsed: agents.NameSupport, Data: st}
}

func (o *Orchestrator) returnOrder(ctx context.Context, text string, s *session.State) TurnResult {
	id, total, ok := o.referencedOrder(ctx, text, s)
	if !ok {
		return TurnResult{
			Response:  "Please share the order ID you'd like to return (it starts with ORD).",
			AgentUsed: agents.NameSupport,
		}
	}
	ticket := o.support.Return(id, returnReason(strings.ToLower(text)), total)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nReturn ID: %s", ticket.Message, ticket.ReturnID)
	if ticket.RefundAmount > 0 {
		fmt.Fprintf(&b, "\nRefund: %s to your %s", rupees(ticket.RefundAmount), strings.ToLower(ticket.RefundMethod))
	}
	b.WriteString("\nRefunds are processed within 5-7 business days of pickup.")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameSupport, Data: ticket}
}

func (o *Orchestrator) feedback(_ context.Context, text string, s *session.State) TurnResult {
	receipt := o.support.Feedback()
	o.log.WithField("session_id", s.ID).
		WithField("feedback_id", receipt.FeedbackID).
		WithField("text", policy.Redact(text)).
		Info("feedback received")
	return TurnResult{
		Response:  fmt.Sprintf("%s\nReference: %s", receipt.Message, receipt.FeedbackID),
		AgentUsed: agents.NameSupport,
		Data:      receipt,
	}
}
