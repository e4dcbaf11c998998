package agents

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antoniostano/omnicart/internal/catalog"
)

type CategoryKeywords struct {
	Category string
	Keywords []string
}

type Bundle struct {
	Name       string   `json:"name"`
	Items      []string `json:"items"`
	Discount   int      `json:"discount"`
	TotalPrice int      `json:"total_price"`
}

type RecommendationPolicy struct {
	// Categories are checked in order; the first keyword hit wins.
	Categories     []CategoryKeywords
	BudgetCeiling  int
	PremiumFloor   int
	MaxResults     int
	TierMultiplier map[catalog.Tier]float64
	UpsellMinAOV   int
	UpsellAbove    int
	BundleTrigger  string
	FormalBundle   Bundle
}

func DefaultRecommendationPolicy() RecommendationPolicy {
	return RecommendationPolicy{
		Categories: []CategoryKeywords{
			{Category: "formal", Keywords: []string{"formal"}},
			{Category: "casual", Keywords: []string{"casual"}},
			{Category: "ethnic", Keywords: []string{"ethnic"}},
			{Category: "footwear", Keywords: []string{"footwear", "shoes"}},
			{Category: "accessories", Keywords: []string{"accessories"}},
		},
		BudgetCeiling: 2000,
		PremiumFloor:  5000,
		MaxResults:    4,
		TierMultiplier: map[catalog.Tier]float64{
			catalog.TierPlatinum: 2.0,
			catalog.TierGold:     1.5,
		},
		UpsellMinAOV:  5000,
		UpsellAbove:   10000,
		BundleTrigger: "formal",
		FormalBundle: Bundle{
			Name:     "Complete Formal Look",
			Items:      []string{"LV001", "VH008", "LV006"},
			Discount:   15,
			TotalPrice: 8797,
		},
	}
}

type AppliedFilters struct {
	Category string `json:"category"`
	MinPrice int    `json:"min_price"`
	MaxPrice *int   `json:"max_price,omitempty"`
}

type RecommendationResult struct {
	Products       []catalog.Product         `json:"products"`
	Bundles        []Bundle                  `json:"bundles,omitempty"`
	Reasoning      string                    `json:"reasoning"`
	Upsell         *catalog.Product          `json:"upsell,omitempty"`
	Categories     []catalog.CategorySummary `json:"categories"`
	TotalProducts  int                       `json:"total_products"`
	AppliedFilters AppliedFilters            `json:"applied_filters"`
}

var priceCeilingPattern = regexp.MustCompile(`\b(under|below|max)\s+(?:rs\.?\s*|₹\s*)?(\d+)`)

type Recommender struct {
	products ProductLookup
	policy   RecommendationPolicy
}

func NewRecommender(products ProductLookup, policy RecommendationPolicy) *Recommender {
	if policy.MaxResults <= 0 {
		policy.MaxResults = 4
	}
	return &Recommender{products: products, policy: policy}
}

func (a *Recommender) Name() string { return NameRecommendation }

// ParseFilters extracts the category and price window from free text.
func (a *Recommender) ParseFilters(contextText string) AppliedFilters {
	lower := strings.ToLower(contextText)
	var f AppliedFilters

categories:
	for _, c := range a.policy.Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(lower, kw) {
				f.Category = c.Category
				break categories
			}
		}
	}

	if ceiling, ok := numericCeiling(lower); ok {
		f.MaxPrice = &ceiling
	} else if strings.Contains(lower, "budget") || strings.Contains(lower, "cheap") {
		ceiling := a.policy.BudgetCeiling
		f.MaxPrice = &ceiling
	} else if strings.Contains(lower, "premium") || strings.Contains(lower, "luxury") {
		f.MinPrice = a.policy.PremiumFloor
	}
	return f
}

// numericCeiling honours "under N" before "below N" before "max N".
func numericCeiling(lower string) (int, bool) {
	matches := priceCeilingPattern.FindAllStringSubmatch(lower, -1)
	for _, kw := range []string{"under", "below", "max"} {
		for _, m := range matches {
			if m[1] != kw {
				continue
			}
			n, err := strconv.Atoi(m[2])
			if err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func (a *Recommender) Recommend(customer *catalog.Customer, contextText string) RecommendationResult {
	filters := a.ParseFilters(contextText)

	var filtered []catalog.Product
	for _, p := range a.products.Products() {
		if filters.Category != "" && p.Category != filters.Category {
			continue
		}
		if p.Price < filters.MinPrice {
			continue
		}
		if filters.MaxPrice != nil && p.Price > *filters.MaxPrice {
			continue
		}
		filtered = append(filtered, p)
	}

	label := filters.Category
	if label == "" {
		label = "popular"
	}

	if customer == nil {
		return RecommendationResult{
			Products:       truncate(filtered, a.policy.MaxResults),
			Reasoning:      fmt.Sprintf("Showing %s items for new customers. Sign up for personalized recommendations!", label),
			Categories:     a.products.Categories(),
			TotalProducts:  len(filtered),
			AppliedFilters: filters,
		}
	}

	ranked := filtered
	if len(ranked) == 0 {
		ranked = a.products.ProductsByTags(customer.Preferences)
	}
	ranked = a.rank(ranked, customer)

	reasoning := fmt.Sprintf("Based on your preference for %s and %s tier status",
		strings.Join(customer.Preferences, ", "), customer.Tier)
	if filters.MaxPrice != nil {
		reasoning += fmt.Sprintf(" - showing items under ₹%d", *filters.MaxPrice)
	}
	if filters.Category != "" {
		reasoning += fmt.Sprintf(" in %s category", filters.Category)
	}

	res := RecommendationResult{
		Products:       truncate(ranked, a.policy.MaxResults),
		Bundles:        a.bundles(customer),
		Reasoning:      reasoning,
		Categories:     a.products.Categories(),
		TotalProducts:  len(ranked),
		AppliedFilters: filters,
	}
	if customer.AvgOrderValue > a.policy.UpsellMinAOV && filters.MaxPrice == nil {
		res.Upsell = a.upsell()
	}
	return res
}

// rank orders by preference-tag overlap, then by distance from the tier-scaled
// ideal price. The sort is stable so catalog order breaks remaining ties.
func (a *Recommender) rank(products []catalog.Product, customer *catalog.Customer) []catalog.Product {
	out := append([]catalog.Product(nil), products...)
	mult, ok := a.policy.TierMultiplier[customer.Tier]
	if !ok {
		mult = 1.0
	}
	ideal := float64(customer.AvgOrderValue) * mult
	score := func(p catalog.Product) int {
		n := 0
		for _, pref := range customer.Preferences {
			if p.HasTag(pref) {
				n++
			}
		}
		return n
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := score(out[i]), score(out[j])
		if si != sj {
			return si > sj
		}
		return math.Abs(float64(out[i].Price)-ideal) < math.Abs(float64(out[j].Price)-ideal)
	})
	return out
}

func (a *Recommender) bundles(customer *catalog.Customer) []Bundle {
	trigger := false
	for _, p := range customer.Preferences {
		if p == a.policy.BundleTrigger {
			trigger = true
			break
		}
	}
	if !trigger || len(a.policy.FormalBundle.Items) == 0 {
		return nil
	}
	b := a.policy.FormalBundle
	b.Items = append([]string(nil), b.Items...)
	if b.TotalPrice > 0 {
		return []Bundle{b}
	}
	// Unpriced bundles are the discounted sum of their items.
	sum := 0
	for _, sku := range b.Items {
		if p, ok := a.products.ProductBySKU(sku); ok {
			sum += p.Price
		}
	}
	b.TotalPrice = sum - percentOf(sum, b.Discount)
	return []Bundle{b}
}

// upsell picks the cheapest product priced above the upsell threshold.
func (a *Recommender) upsell() *catalog.Product {
	var best *catalog.Product
	for _, p := range a.products.Products() {
		if p.Price <= a.policy.UpsellAbove {
			continue
		}
		if best == nil || p.Price < best.Price {
			p := p
			best = &p
		}
	}
	return best
}

func truncate(products []catalog.Product, n int) []catalog.Product {
	if len(products) > n {
		products = products[:n]
	}
	return append([]catalog.Product(nil), products...)
}
