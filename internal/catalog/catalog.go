package catalog

import (
	"sort"
	"strings"
)

// Data is the raw content of a catalog: products, per-store inventory rows and customers.
type Data struct {
	Products  []Product         `yaml:"products"`
	Inventory []StoreStockEntry `yaml:"inventory"`
	Customers []Customer        `yaml:"customers"`
}

// Catalog serves read-only lookups over products, inventory and customers.
// It is safe for concurrent use because nothing mutates it after construction.
type Catalog struct {
	products  []Product
	bySKU     map[string]int
	inventory []StoreStockEntry
	customers []Customer
	byID      map[string]int
}

func New(data Data) *Catalog {
	c := &Catalog{
		products:  append([]Product(nil), data.Products...),
		bySKU:     make(map[string]int, len(data.Products)),
		inventory: append([]StoreStockEntry(nil), data.Inventory...),
		customers: append([]Customer(nil), data.Customers...),
		byID:      make(map[string]int, len(data.Customers)),
	}
	for i, p := range c.products {
		c.bySKU[p.SKU] = i
	}
	for i, cu := range c.customers {
		c.byID[cu.ID] = i
	}
	return c
}

func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) ProductBySKU(sku string) (Product, bool) {
	i, ok := c.bySKU[strings.ToUpper(strings.TrimSpace(sku))]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) ProductsByCategory(category string) []Product {
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// ProductsByTags returns products carrying at least one of tags, in catalog order.
func (c *Catalog) ProductsByTags(tags []string) []Product {
	var out []Product
	for _, p := range c.products {
		for _, t := range tags {
			if p.HasTag(t) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

var searchStopwords = map[string]bool{
	"want": true, "cart": true, "with": true, "show": true, "please": true,
	"that": true, "this": true, "have": true, "need": true, "from": true,
	"some": true, "like": true, "would": true, "could": true, "item": true,
	"items": true, "product": true, "products": true, "into": true,
}

// Search is a free-text product search. A product scores one point for each of:
// its name containing the whole query, its category or a tag appearing in the query,
// and every query word of four or more letters found in its name. Results are ordered
// by score, catalog order breaking ties.
func (c *Catalog) Search(query string, limit int) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var words []string
	for _, w := range strings.FieldsFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if len(w) >= 4 && !searchStopwords[w] {
			words = append(words, w)
		}
	}

	type hit struct {
		p     Product
		score int
	}
	var hits []hit
	for _, p := range c.products {
		name := strings.ToLower(p.Name)
		score := 0
		if strings.Contains(name, q) {
			score++
		}
		if strings.Contains(q, p.Category) {
			score++
		}
		for _, t := range p.Tags {
			if strings.Contains(q, t) {
				score++
				break
			}
		}
		for _, w := range words {
			if strings.Contains(name, w) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, hit{p: p, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]Product, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.p)
	}
	return out
}

// CheckStock returns inventory rows for sku, narrowed to storeID when it is non-empty.
func (c *Catalog) CheckStock(sku, storeID string) []StoreStockEntry {
	var out []StoreStockEntry
	for _, row := range c.inventory {
		if row.SKU != sku {
			continue
		}
		if storeID != "" && row.StoreID != storeID {
			continue
		}
		out = append(out, row)
	}
	return out
}

func (c *Catalog) StoreInventory(storeID string) []StoreStockEntry {
	var out []StoreStockEntry
	for _, row := range c.inventory {
		if row.StoreID == storeID {
			out = append(out, row)
		}
	}
	return out
}

// Stores lists distinct stores in first-seen inventory order.
func (c *Catalog) Stores() []Store {
	seen := make(map[string]bool)
	var out []Store
	for _, row := range c.inventory {
		if seen[row.StoreID] {
			continue
		}
		seen[row.StoreID] = true
		out = append(out, Store{ID: row.StoreID, Name: row.StoreName, Location: row.Location})
	}
	return out
}

func (c *Catalog) Customers() []Customer {
	return append([]Customer(nil), c.customers...)
}

func (c *Catalog) CustomerByID(id string) (Customer, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Customer{}, false
	}
	return c.customers[i], true
}

func (c *Catalog) CustomerByPhone(phone string) (Customer, bool) {
	phone = strings.TrimSpace(phone)
	for _, cu := range c.customers {
		if cu.Phone == phone {
			return cu, true
		}
	}
	return Customer{}, false
}

// Categories summarizes each category in first-seen order.
func (c *Catalog) Categories() []CategorySummary {
	idx := make(map[string]int)
	var out []CategorySummary
	for _, p := range c.products {
		i, ok := idx[p.Category]
		if !ok {
			idx[p.Category] = len(out)
			out = append(out, CategorySummary{
				Name:       p.Category,
				PriceRange: PriceRange{Min: p.Price, Max: p.Price},
			})
			i = len(out) - 1
		}
		s := &out[i]
		s.Count++
		if p.Price < s.PriceRange.Min {
			s.PriceRange.Min = p.Price
		}
		if p.Price > s.PriceRange.Max {
			s.PriceRange.Max = p.Price
		}
	}
	return out
}
