package agents

const limitedStockAt = 10

type StoreStock struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	Location  string `json:"location"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"`
}

type StockReport struct {
	SKU            string       `json:"sku"`
	Available      bool         `json:"available"`
	Stores         []StoreStock `json:"stores,omitempty"`
	TotalAvailable int          `json:"total_available"`
	Recommendation string       `json:"recommendation,omitempty"`
	Message        string       `json:"message,omitempty"`
	Alternatives   string       `json:"alternatives,omitempty"`
}

type Inventory struct {
	stock StockLookup
}

func NewInventory(stock StockLookup) *Inventory {
	return &Inventory{stock: stock}
}

func (a *Inventory) Name() string { return NameInventory }

// CheckStock sums sku quantity across stores, or only preferredStore when set.
func (a *Inventory) CheckStock(sku, preferredStore string) StockReport {
	rows := a.stock.CheckStock(sku, preferredStore)
	total := 0
	for _, r := range rows {
		total += r.Quantity
	}
	if total == 0 {
		return StockReport{
			SKU:          sku,
			Available:    false,
			Message:      "Currently out of stock across all stores.",
			Alternatives: "Would you like me to suggest similar products?",
		}
	}

	report := StockReport{SKU: sku, Available: true, TotalAvailable: total}
	for _, r := range rows {
		if r.Quantity <= 0 {
			continue
		}
		status := "Limited Stock"
		if r.Quantity > limitedStockAt {
			status = "In Stock"
		}
		report.Stores = append(report.Stores, StoreStock{
			StoreID:   r.StoreID,
			StoreName: r.StoreName,
			Location:  r.Location,
			Quantity:  r.Quantity,
			Status:    status,
		})
	}
	report.Recommendation = report.Stores[0].StoreName
	return report
}
