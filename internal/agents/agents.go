// Package agents holds the domain handlers the orchestrator dispatches to. Each
// handler is a small struct over read-only catalog lookups plus injected seams
// (clock, ids, randomness); none of them touches session state.
package agents

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/antoniostano/omnicart/internal/catalog"
)

// Symbolic handler names reported as TurnResult.agentUsed.
const (
	NameSales          = "SalesAgent"
	NameRecommendation = "RecommendationAgent"
	NameInventory      = "InventoryAgent"
	NameLoyalty        = "LoyaltyAgent"
	NamePayment        = "PaymentAgent"
	NameFulfillment    = "FulfillmentAgent"
	NameSupport        = "SupportAgent"
)

// Agent is the capability every domain handler shares.
type Agent interface {
	Name() string
}

type StockLookup interface {
	CheckStock(sku, storeID string) []catalog.StoreStockEntry
}

type ProductLookup interface {
	Products() []catalog.Product
	ProductsByTags(tags []string) []catalog.Product
	ProductBySKU(sku string) (catalog.Product, bool)
	Categories() []catalog.CategorySummary
}

// IDSource mints unique, prefixed identifiers (TXN..., TRACK..., RES...).
type IDSource interface {
	Next(prefix string) string
}

// SequenceIDs is a deterministic IDSource for tests and offline tools.
type SequenceIDs struct {
	n atomic.Int64
}

func (s *SequenceIDs) Next(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, s.n.Add(1))
}

type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func orClock(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

const dateLayout = "2 Jan 2006"
