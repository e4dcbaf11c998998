package agents

import (
	"fmt"
	"strings"

	"github.com/antoniostano/omnicart/internal/catalog"
)

// VolumeStep adds Pct to the discount when the cart value is strictly above Above.
type VolumeStep struct {
	Above int `json:"above"`
	Pct   int `json:"pct"`
}

type LoyaltyPolicy struct {
	TierPct         map[catalog.Tier]int
	VolumeSteps     []VolumeStep
	PointsDivisor   int
	RedeemThreshold int
}

func DefaultLoyaltyPolicy() LoyaltyPolicy {
	return LoyaltyPolicy{
		TierPct: map[catalog.Tier]int{
			catalog.TierBronze:   5,
			catalog.TierSilver:   10,
			catalog.TierGold:     15,
			catalog.TierPlatinum: 20,
		},
		VolumeSteps: []VolumeStep{
			{Above: 5000, Pct: 5},
			{Above: 10000, Pct: 10},
			{Above: 20000, Pct: 5},
		},
		PointsDivisor:   100,
		RedeemThreshold: 1000,
	}
}

type LoyaltyQuote struct {
	Tier            catalog.Tier `json:"tier,omitempty"`
	TierPct         int          `json:"tier_discount"`
	VolumePct       int          `json:"additional_discount"`
	TotalPct        int          `json:"total_discount"`
	CartValue       int          `json:"cart_value"`
	DiscountAmount  int          `json:"discount_amount"`
	FinalAmount     int          `json:"final_amount"`
	PointsEarned    int          `json:"points_earned"`
	CurrentPoints   int          `json:"current_points"`
	NewPoints       int          `json:"new_points"`
	CanRedeemPoints bool         `json:"can_redeem_points"`
	Message         string       `json:"message"`
}

// VolumeAmount is the share of the discount attributable to volume steps.
func (q LoyaltyQuote) VolumeAmount() int {
	return percentOf(q.CartValue, q.VolumePct)
}

type Loyalty struct {
	policy LoyaltyPolicy
}

func NewLoyalty(policy LoyaltyPolicy) *Loyalty {
	if policy.PointsDivisor <= 0 {
		policy.PointsDivisor = 100
	}
	return &Loyalty{policy: policy}
}

func (a *Loyalty) Name() string { return NameLoyalty }

// Quote prices cartValue for customer. A nil customer gets no discount; the points
// it would earn are still reported but there is nobody to credit them to.
func (a *Loyalty) Quote(customer *catalog.Customer, cartValue int) LoyaltyQuote {
	if cartValue < 0 {
		cartValue = 0
	}
	points := cartValue / a.policy.PointsDivisor
	if customer == nil {
		return LoyaltyQuote{
			CartValue:    cartValue,
			FinalAmount:  cartValue,
			PointsEarned: points,
			Message:      "Sign up to unlock exclusive offers!",
		}
	}

	tierPct := a.policy.TierPct[customer.Tier]
	volumePct := 0
	for _, step := range a.policy.VolumeSteps {
		if cartValue > step.Above {
			volumePct += step.Pct
		}
	}
	total := tierPct + volumePct
	discount := percentOf(cartValue, total)
	return LoyaltyQuote{
		Tier:            customer.Tier,
		TierPct:         tierPct,
		VolumePct:       volumePct,
		TotalPct:        total,
		CartValue:       cartValue,
		DiscountAmount:  discount,
		FinalAmount:     cartValue - discount,
		PointsEarned:    points,
		CurrentPoints:   customer.LoyaltyPoints,
		NewPoints:       customer.LoyaltyPoints + points,
		CanRedeemPoints: customer.LoyaltyPoints >= a.policy.RedeemThreshold,
		Message: fmt.Sprintf("As a %s member, you save ₹%d! You'll earn %d points.",
			strings.ToUpper(string(customer.Tier)), discount, points),
	}
}

// percentOf rounds value*pct/100 half up.
func percentOf(value, pct int) int {
	return (value*pct + 50) / 100
}
