package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniostano/omnicart/internal/agents"
	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/session"
)

const (
	suggestionLimit = 3
	complementLimit = 2
	minMatchWordLen = 4
)

// AddedToCart is the data payload of a successful add.
type AddedToCart struct {
	Added     session.CartLine   `json:"added"`
	Cart      []session.CartLine `json:"cart"`
	CartTotal int                `json:"cart_total"`
	Stock     agents.StockReport `json:"stock"`
	Savings   int                `json:"savings,omitempty"`
}

type Suggestions struct {
	Suggestions []catalog.Product `json:"suggestions"`
}

func (o *Orchestrator) addToCart(_ context.Context, text string, s *session.State) TurnResult {
	p, ok := o.resolveProduct(text)
	if !ok {
		return o.suggest(text)
	}

	stock := o.inventory.CheckStock(p.SKU, "")
	if !stock.Available {
		return TurnResult{
			Response:  fmt.Sprintf("Sorry, %s is currently out of stock. %s", p.Name, stock.Alternatives),
			AgentUsed: agents.NameInventory,
			Data:      stock,
		}
	}

	line := s.AddToCart(p, 1)
	s.FocusSKU = p.SKU
	total := s.CartTotal()

	var b strings.Builder
	fmt.Fprintf(&b, "Added to cart: %s by %s - %s\nAvailable at %d stores.\n", p.Name, p.Brand, rupees(p.Price), len(stock.Stores))
	fmt.Fprintf(&b, "\nYour cart (%d items):", s.CartItemCount())
	cartList(&b, s.Cart)
	fmt.Fprintf(&b, "\n\nSubtotal: %s", rupees(total))

	data := AddedToCart{Added: line, Cart: s.CartCopy(), CartTotal: total, Stock: stock}
	if s.Customer != nil {
		q := o.loyalty.Quote(s.Customer, total)
		data.Savings = q.DiscountAmount
		fmt.Fprintf(&b, "\n%s discount: %d%%, you save %s", strings.ToUpper(string(q.Tier)), q.TotalPct, rupees(q.DiscountAmount))
	}

	if p.Category == "formal" {
		var complements []catalog.Product
		for _, c := range o.catalog.ProductsByCategory("formal") {
			if c.SKU != p.SKU {
				complements = append(complements, c)
			}
			if len(complements) == complementLimit {
				break
			}
		}
		if len(complements) > 0 {
			b.WriteString("\n\nComplete your formal look:")
			for _, c := range complements {
				fmt.Fprintf(&b, "\n- %s (%s) - %s", c.Name, c.SKU, rupees(c.Price))
			}
		}
	}
	b.WriteString("\n\nReady to checkout or add more items?")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameSales, Data: data}
}

// resolveProduct tries, in order: a product code, the full "name by brand"
// phrase (or the message stripped of cart words being part of it), then a
// brand mention together with a significant word of the product name.
func (o *Orchestrator) resolveProduct(text string) (catalog.Product, bool) {
	if sku, ok := findSKU(text); ok {
		if p, ok := o.catalog.ProductBySKU(sku); ok {
			return p, true
		}
	}

	lower := strings.ToLower(text)
	query := stripCartWords(lower)
	products := o.catalog.Products()
	for _, p := range products {
		full := strings.ToLower(p.Name + " by " + p.Brand)
		if strings.Contains(lower, full) {
			return p, true
		}
		if len(query) >= minMatchWordLen && strings.Contains(full, query) {
			return p, true
		}
	}
	for _, p := range products {
		if !strings.Contains(lower, strings.ToLower(p.Brand)) {
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(p.Name)) {
			if len(w) >= minMatchWordLen && strings.Contains(lower, w) {
				return p, true
			}
		}
	}
	return catalog.Product{}, false
}

var cartWords = strings.NewReplacer(
	"add ", " ", "to my cart", " ", "to cart", " ", "to the cart", " ",
	"please", " ", "i want", " ", "i'll take", " ", "buy ", " ",
)

func stripCartWords(lower string) string {
	out := cartWords.Replace(" " + lower + " ")
	return strings.Join(strings.Fields(strings.Trim(out, " .,!?")), " ")
}

func (o *Orchestrator) suggest(text string) TurnResult {
	found := o.catalog.Search(text, suggestionLimit)
	if len(found) == 0 {
		return TurnResult{
			Response:  "I couldn't find that product. Try \"Show me products\" to browse the collection.",
			AgentUsed: agents.NameSales,
		}
	}
	var b strings.Builder
	b.WriteString("I found these similar products:")
	productList(&b, found, true)
	b.WriteString("\n\nSay \"Add <product name>\" or \"Add <product code>\" to add one to your cart.")
	return TurnResult{Response: b.String(), AgentUsed: agents.NameRecommendation, Data: Suggestions{Suggestions: found}}
}

func (o *Orchestrator) removeFromCart(_ context.Context, text string, s *session.State) TurnResult {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "clear") || strings.Contains(lower, "empty") {
		s.ClearCart()
		return TurnResult{Response: "Cart cleared! Ready for a fresh start?", AgentUsed: agents.NameSales, Data: cartView(s)}
	}

	sku, ok := findSKU(text)
	if !ok {
		sku, ok = matchCartLine(lower, s.Cart)
	}
	if ok {
		if removed, ok := s.RemoveFromCart(sku); ok {
			return TurnResult{
				Response:  fmt.Sprintf("Removed %s from your cart. Cart total is now %s.", removed.Name, rupees(s.CartTotal())),
				AgentUsed: agents.NameSales,
				Data:      cartView(s),
			}
		}
	}
	return TurnResult{
		Response:  "Which item would you like to remove? Use its product code, for example LV001.",
		AgentUsed: agents.NameSales,
		Data:      cartView(s),
	}
}

// matchCartLine finds the cart line sharing the most significant name words with lower.
func matchCartLine(lower string, cart []session.CartLine) (string, bool) {
	best, bestHits := "", 0
	for _, l := range cart {
		hits := 0
		for _, w := range strings.Fields(strings.ToLower(l.Name)) {
			if len(w) >= minMatchWordLen && strings.Contains(lower, w) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = l.SKU, hits
		}
	}
	return best, bestHits > 0
}

func (o *Orchestrator) viewCart(_ context.Context, _ string, s *session.State) TurnResult {
	if len(s.Cart) == 0 {
		return TurnResult{
			Response:  "Your cart is empty. Ask me for recommendations to get started!",
			AgentUsed: agents.NameSales,
			Data:      cartView(s),
		}
	}
	var b strings.Builder
	b.WriteString("Your cart:")
	cartList(&b, s.Cart)
	fmt.Fprintf(&b, "\n\nTotal: %s\n\nReady to checkout? Or need to add or remove items?", rupees(s.CartTotal()))
	return TurnResult{Response: b.String(), AgentUsed: agents.NameSales, Data: cartView(s)}
}
