package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/session"
)

const (
	deliveryLeadDays = 3
	holdLayout       = "2 Jan 2006, 15:04"
)

type DeliveryInfo struct {
	EstimatedDelivery     time.Time `json:"estimated_delivery"`
	DeliveryFee           int       `json:"delivery_fee"`
	FreeShippingThreshold int       `json:"free_shipping_threshold"`
}

// StoreReservation is the data payload of a store pick.
type StoreReservation struct {
	Store catalog.Store          `json:"store"`
	SKU   string                 `json:"sku"`
	Plan  agents.FulfillmentPlan `json:"plan"`
}

func (o *Orchestrator) chooseFulfillment(_ context.Context, text string, s *session.State) TurnResult {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "pickup", "pick up", "reserve", "book", "collect"):
		return o.offerStores(text, s)
	case containsAny(lower, "deliver", "ship"):
		return o.deliveryInfo(s)
	}
	return TurnResult{
		Response:  "Would you like home delivery or store pickup?",
		AgentUsed: agents.NameFulfillment,
	}
}

func (o *Orchestrator) deliveryInfo(s *session.State) TurnResult {
	info := DeliveryInfo{
		EstimatedDelivery:     o.now().AddDate(0, 0, deliveryLeadDays),
		DeliveryFee:           o.pricing.FeeFor(s.CartTotal()),
		FreeShippingThreshold: o.pricing.FreeShippingThreshold,
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Home delivery takes %d days. Order now and it arrives by %s.", deliveryLeadDays, info.EstimatedDelivery.Format("2 Jan 2006"))
	fmt.Fprintf(&b, "\nDelivery is free on orders of %s and above, otherwise %s.",
		rupees(o.pricing.FreeShippingThreshold), rupees(o.pricing.DeliveryFee))
	if len(s.Cart) > 0 {
		if info.DeliveryFee == 0 {
			b.WriteString("\n\nYour cart qualifies for free delivery.")
		} else {
			fmt.Fprintf(&b, "\n\nAdd %s more for free delivery.", rupees(o.pricing.FreeShippingThreshold-s.CartTotal()))
		}
		b.WriteString(" Say \"Checkout\" when you're ready.")
	}
	return TurnResult{Response: b.String(), AgentUsed: agents.NameFulfillment, Data: info}
}

// targetProduct is the product a fulfillment turn refers to: a known product
// code in the message, else the product whose stores were just offered, else
// the last cart line, else the last product whose stock was checked.
func (o *Orchestrator) targetProduct(text string, s *session.State) string {
	if sku, ok := findSKU(text); ok {
		if _, known := o.catalog.ProductBySKU(sku); known {
			return sku
		}
	}
	if len(s.OfferedStores) > 0 && s.FocusSKU != "" {
		return s.FocusSKU
	}
	if n := len(s.Cart); n > 0 {
		return s.Cart[n-1].SKU
	}
	return s.FocusSKU
}

func (o *Orchestrator) offerStores(text string, s *session.State) TurnResult {
	sku := o.targetProduct(text, s)
	if sku == "" {
		return TurnResult{
			Response:  "Which product would you like to pick up? Add it to your cart or check its stock first, for example \"Check stock for LV001\".",
			AgentUsed: agents.NameFulfillment,
		}
	}
	report := o.inventory.CheckStock(sku, "")
	if !report.Available {
		return TurnResult{
			Response:  fmt.Sprintf("%s is not held by any store right now. Home delivery is still available.", o.productName(sku)),
			AgentUsed: agents.NameInventory,
			Data:      report,
		}
	}

	s.FocusSKU = sku
	s.OfferedStores = nil
	var b strings.Builder
	fmt.Fprintf(&b, "%s is available for pickup at:", o.productName(sku))
	for i, st := range report.Stores {
		s.OfferedStores = append(s.OfferedStores, catalog.Store{ID: st.StoreID, Name: st.StoreName, Location: st.Location})
		fmt.Fprintf(&b, "\nOption %d: %s (%s, %d units)", i+1, st.StoreName, st.Status, st.Quantity)
	}
	b.WriteString("\n\nReply with \"option 1\" or the store name to reserve it for 48 hours.")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameInventory, Data: report}
}

var optionPattern = regexp.MustCompile(`\b(?:store|option) (\d+)\b`)

// pickStore matches "option N" against candidates, then a city or the first
// word of a store name.
func pickStore(lower string, candidates []catalog.Store) (catalog.Store, bool) {
	if m := optionPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(candidates) {
			return catalog.Store{}, false
		}
		return candidates[n-1], true
	}
	for _, st := range candidates {
		if strings.Contains(lower, strings.ToLower(st.Location)) {
			return st, true
		}
		if f := strings.Fields(strings.ToLower(st.Name)); len(f) > 0 && strings.Contains(lower, f[0]) {
			return st, true
		}
	}
	return catalog.Store{}, false
}

func (o *Orchestrator) selectStore(_ context.Context, text string, s *session.State) TurnResult {
	candidates := s.OfferedStores
	if len(candidates) == 0 {
		candidates = o.catalog.Stores()
	}
	store, ok := pickStore(strings.ToLower(text), candidates)
	if !ok {
		var b strings.Builder
		b.WriteString("I couldn't tell which store you mean. Choose one of:")
		for i, st := range candidates {
			fmt.Fprintf(&b, "\nOption %d: %s", i+1, st.Name)
		}
		return TurnResult{Response: b.String(), AgentUsed: agents.NameFulfillment}
	}

	sku := o.targetProduct(text, s)
	if sku == "" {
		return TurnResult{
			Response:  fmt.Sprintf("%s it is! Which product would you like to reserve there?", store.Name),
			AgentUsed: agents.NameFulfillment,
		}
	}
	report := o.inventory.CheckStock(sku, store.ID)
	if !report.Available {
		return TurnResult{
			Response:  fmt.Sprintf("Sorry, %s is not available at %s. Say \"Store pickup\" to see the stores that have it.", o.productName(sku), store.Name),
			AgentUsed: agents.NameInventory,
			Data:      report,
		}
	}

	plan := o.fulfillment.Arrange("", agents.FulfillPickup, "", store.ID)
	s.OfferedStores = nil
	res := StoreReservation{Store: store, SKU: sku, Plan: plan}

	var b strings.Builder
	fmt.Fprintf(&b, "Reserved %s at %s, %s.\nReservation ID: %s", o.productName(sku), store.Name, store.Location, plan.ReservationID)
	if plan.ValidUntil != nil {
		fmt.Fprintf(&b, "\nHeld until %s.", plan.ValidUntil.Format(holdLayout))
	}
	fmt.Fprintf(&b, "\n\n%s", plan.Message)
	return TurnResult{Response: b.String(), AgentUsed: agents.NameFulfillment, Data: res}
}

func (o *Orchestrator) productName(sku string) string {
	if p, ok := o.catalog.ProductBySKU(sku); ok {
		return fmt.Sprintf("%s (%s)", p.Name, sku)
	}
	return sku
}
