// Package intent maps a free-text shopper message to a single symbolic intent.
//
// Classification is an ordered rule table: the first matching rule wins and an
// unmatched message is General. Cart-mutating rules come before informational
// ones, which come before meta rules such as Help.
package intent

import (
	"regexp"
	"strings"
)

type Tag string

const (
	Greeting       Tag = "greeting"
	AddToCart      Tag = "add_to_cart"
	RemoveFromCart Tag = "remove_from_cart"
	ViewCart       Tag = "view_cart"
	StoreSelection Tag = "store_selection"
	Fulfillment    Tag = "fulfillment"
	CheckStock     Tag = "check_stock"
	Checkout       Tag = "checkout"
	Payment        Tag = "payment"
	Recommendation Tag = "recommendation"
	TrackOrder     Tag = "track_order"
	Return         Tag = "return"
	Feedback       Tag = "feedback"
	Help           Tag = "help"
	General        Tag = "general"
)

type rule struct {
	tag     Tag
	pattern *regexp.Regexp
	// unless vetoes the rule even when pattern matches.
	unless *regexp.Regexp
}

var rules = []rule{
	{
		tag:     Greeting,
		pattern: regexp.MustCompile(`^(hello|hi|hey|good morning|good evening|welcome)\b`),
		unless:  regexp.MustCompile(`add`),
	},
	{
		tag:     AddToCart,
		pattern: regexp.MustCompile(`\badd\b|add.*cart|\bbuy\b|purchase|\btake\b|\bget\b|i want|i'll take|\bselect\b`),
		unless:  regexp.MustCompile(`\bbuy now\b`),
	},
	{tag: RemoveFromCart, pattern: regexp.MustCompile(`remove|delete|clear cart|empty cart`)},
	{tag: ViewCart, pattern: regexp.MustCompile(`show.*cart|view cart|^cart$|what.*in.*cart|my cart`)},
	{tag: StoreSelection, pattern: regexp.MustCompile(`phoenix|dlf|forum|express avenue|inorbit|mumbai|delhi|bangalore|chennai|hyderabad|\bmall\b|\b(store|option) \d\b`)},
	{tag: Fulfillment, pattern: regexp.MustCompile(`delivery|deliver to|\bship|pickup|pick up|reserve|\bbook\b`)},
	{tag: CheckStock, pattern: regexp.MustCompile(`stock|available|inventory|check.*for|availability`)},
	{tag: Checkout, pattern: regexp.MustCompile(`checkout|check out|proceed|complete|finish|buy now`)},
	{tag: Payment, pattern: regexp.MustCompile(`payment|\bpay\b|\bupi\b|\bcard\b|\bcash\b|\bcod\b|wallet|retry|gpay|paytm|phonepe|net ?banking`)},
	{tag: Recommendation, pattern: regexp.MustCompile(`recommend|suggest|show|looking for|\bneed\b|want to see|browse|products|categories|formal|casual|ethnic|accessories|footwear`)},
	{tag: TrackOrder, pattern: regexp.MustCompile(`track|where is|order status|my order`)},
	{tag: Return, pattern: regexp.MustCompile(`return|refund|exchange|cancel`)},
	{tag: Feedback, pattern: regexp.MustCompile(`feedback|review|\brat(e|ing)\b|complain`)},
	{tag: Help, pattern: regexp.MustCompile(`help|what can you do|commands|options|assist`)},
}

// Classify returns the intent of text. It is case-insensitive and ignores
// surrounding whitespace.
func Classify(text string) Tag {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return General
	}
	for _, r := range rules {
		if !r.pattern.MatchString(lower) {
			continue
		}
		if r.unless != nil && r.unless.MatchString(lower) {
			continue
		}
		return r.tag
	}
	return General
}

// Order lists the tags in the priority they are evaluated.
func Order() []Tag {
	out := make([]Tag, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.tag)
	}
	return append(out, General)
}

// Valid reports whether t is a known intent tag.
func Valid(t Tag) bool {
	for _, known := range Order() {
		if t == known {
			return true
		}
	}
	return false
}
