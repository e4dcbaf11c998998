package catalog

import "regexp"

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

func (t Tier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	default:
		return false
	}
}

// SKUPattern matches product codes such as LV001.
var SKUPattern = regexp.MustCompile(`^[A-Z]{2}\d{3}$`)

// Product is read-only reference data. Price is in whole rupees.
type Product struct {
	SKU         string   `json:"sku" yaml:"sku"`
	Name        string   `json:"name" yaml:"name"`
	Brand       string   `json:"brand" yaml:"brand"`
	Category    string   `json:"category" yaml:"category"`
	Price       int      `json:"price" yaml:"price"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Tags        []string `json:"tags" yaml:"tags"`
	Sizes       []string `json:"sizes,omitempty" yaml:"sizes"`
	Colors      []string `json:"colors,omitempty" yaml:"colors"`
}

func (p Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// StoreStockEntry is one inventory row: the quantity of a SKU held by a store.
type StoreStockEntry struct {
	StoreID   string `json:"store_id" yaml:"store_id"`
	StoreName string `json:"store_name" yaml:"store_name"`
	Location  string `json:"location" yaml:"location"`
	SKU       string `json:"sku" yaml:"sku"`
	Quantity  int    `json:"quantity" yaml:"quantity"`
}

type Store struct {
	ID       string `json:"store_id"`
	Name     string `json:"store_name"`
	Location string `json:"location"`
}

type Customer struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Email           string   `json:"email,omitempty" yaml:"email"`
	Phone           string   `json:"phone,omitempty" yaml:"phone"`
	Tier            Tier     `json:"loyalty_tier" yaml:"loyalty_tier"`
	LoyaltyPoints   int      `json:"loyalty_points" yaml:"loyalty_points"`
	Preferences     []string `json:"preferences" yaml:"preferences"`
	PurchaseHistory []string `json:"purchase_history,omitempty" yaml:"purchase_history"`
	AvgOrderValue   int      `json:"avg_order_value" yaml:"avg_order_value"`
}

// Clone returns a deep copy so sessions can hold a mutable snapshot.
func (c Customer) Clone() *Customer {
	out := c
	out.Preferences = append([]string(nil), c.Preferences...)
	out.PurchaseHistory = append([]string(nil), c.PurchaseHistory...)
	return &out
}

type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type CategorySummary struct {
	Name       string     `json:"name"`
	Count      int        `json:"count"`
	PriceRange PriceRange `json:"price_range"`
}
