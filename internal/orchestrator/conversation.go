package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/session"
)

func (o *Orchestrator) greet(_ context.Context, _ string, s *session.State) TurnResult {
	if c := s.Customer; c != nil {
		return TurnResult{
			Response: fmt.Sprintf("Hello %s! Welcome back. As a %s member with %d points, you have exclusive offers waiting. What are you looking for today?",
				c.Name, c.Tier, c.LoyaltyPoints),
			AgentUsed: agents.NameSales,
		}
	}
	return TurnResult{
		Response:  "Welcome to OmniCart! I'm your personal shopping assistant. I can help you discover outfits, check availability and check out in a few messages. What brings you here today?",
		AgentUsed: agents.NameSales,
	}
}

func (o *Orchestrator) recommend(_ context.Context, text string, s *session.State) TurnResult {
	res := o.recommender.Recommend(s.Customer, text)
	if len(res.Products) == 0 {
		return TurnResult{
			Response:  res.Reasoning + "\n\nNothing matches that yet. Try another category or a wider budget.",
			AgentUsed: agents.NameRecommendation,
			Data:      res,
		}
	}

	var b strings.Builder
	b.WriteString(res.Reasoning)
	b.WriteString("\n\nI've curated these for you:")
	productList(&b, res.Products, true)
	if len(res.Bundles) > 0 {
		bundle := res.Bundles[0]
		fmt.Fprintf(&b, "\n\nSpecial bundle: %s for %s (save %d%%)", bundle.Name, rupees(bundle.TotalPrice), bundle.Discount)
	}
	if res.Upsell != nil {
		fmt.Fprintf(&b, "\n\nYou might also love our premium %s - %s", res.Upsell.Name, rupees(res.Upsell.Price))
	}
	b.WriteString("\n\nWould you like to check availability or add any to your cart?")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameRecommendation, Data: res}
}

func (o *Orchestrator) checkStock(_ context.Context, text string, s *session.State) TurnResult {
	sku, ok := findSKU(text)
	if !ok {
		return TurnResult{
			Response:  "Which product would you like me to check? Mention its product code, for example LV001.",
			AgentUsed: agents.NameSales,
		}
	}

	report := o.inventory.CheckStock(sku, "")
	if !report.Available {
		return TurnResult{
			Response:  fmt.Sprintf("%s %s", report.Message, report.Alternatives),
			AgentUsed: agents.NameInventory,
			Data:      report,
		}
	}
	s.FocusSKU = sku

	var b strings.Builder
	name := sku
	if p, ok := o.catalog.ProductBySKU(sku); ok {
		name = fmt.Sprintf("%s (%s)", p.Name, sku)
	}
	fmt.Fprintf(&b, "Great news! %s is available at %d stores:\n", name, len(report.Stores))
	for _, st := range report.Stores {
		fmt.Fprintf(&b, "\n- %s: %s (%d units)", st.StoreName, st.Status, st.Quantity)
	}
	b.WriteString("\n\nWould you like to reserve it for store pickup or go with home delivery?")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameInventory, Data: report}
}

func (o *Orchestrator) help(context.Context, string, *session.State) TurnResult {
	return TurnResult{
		Response: "Here's what I can do:\n" +
			"\n- \"Show me formal wear under 3000\" to browse" +
			"\n- \"Check stock for LV001\" to check availability" +
			"\n- \"Add LV001 to cart\" to add items" +
			"\n- \"Show my cart\" or \"Remove LV001\" to manage your cart" +
			"\n- \"Checkout\" then \"Pay with UPI\" to complete a purchase" +
			"\n- \"Store pickup\" or \"Home delivery\" to choose fulfillment" +
			"\n- \"Track my order\" or \"Return an order\" for support" +
			"\n\nYour cart stays with you when you switch between web, mobile, WhatsApp and kiosk.",
		AgentUsed: agents.NameSales,
	}
}

func (o *Orchestrator) general(context.Context, string, *session.State) TurnResult {
	return TurnResult{
		Response: "I can help you with shopping! Try saying:\n" +
			"\n- \"Show me products\"" +
			"\n- \"Add LV001 to cart\"" +
			"\n- \"Show my cart\"" +
			"\n- \"Help\"" +
			"\n\nWhat interests you today?",
		AgentUsed: agents.NameSales,
	}
}
