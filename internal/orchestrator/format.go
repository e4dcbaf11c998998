package orchestrator

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/antoniostano/omnicart/internal/catalog"
	"github.com/antoniostano/omnicart/internal/session"
)

var printer = message.NewPrinter(language.English)

// rupees renders whole-rupee amounts with digit grouping, e.g. ₹15,999.
func rupees(n int) string {
	return printer.Sprintf("₹%d", n)
}

var skuToken = regexp.MustCompile(`(?i)\b[a-z]{2}\d{3}\b`)

// findSKU returns the first product code in text, upper-cased.
func findSKU(text string) (string, bool) {
	m := skuToken.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

func productList(b *strings.Builder, products []catalog.Product, withSKU bool) {
	for i, p := range products {
		fmt.Fprintf(b, "\n%d. %s by %s - %s", i+1, p.Name, p.Brand, rupees(p.Price))
		if withSKU {
			fmt.Fprintf(b, " (%s)", p.SKU)
		}
	}
}

func cartList(b *strings.Builder, cart []session.CartLine) {
	for i, l := range cart {
		fmt.Fprintf(b, "\n%d. %s (%s) x%d - %s", i+1, l.Name, l.SKU, l.Quantity, rupees(l.Subtotal()))
	}
}

// CartView is the data payload for turns that show the cart.
type CartView struct {
	Cart      []session.CartLine `json:"cart"`
	CartTotal int                `json:"cart_total"`
	ItemCount int                `json:"item_count"`
}

func cartView(s *session.State) CartView {
	return CartView{Cart: s.CartCopy(), CartTotal: s.CartTotal(), ItemCount: s.CartItemCount()}
}
