package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniostano/omnicart/internal/catalog"
)

func newTestRecommender() (*Recommender, *catalog.Catalog) {
	c := catalog.New(catalog.Seed())
	return NewRecommender(c, DefaultRecommendationPolicy()), c
}

func skus(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}

func customer(t *testing.T, c *catalog.Catalog, id string) *catalog.Customer {
	t.Helper()
	cu, ok := c.CustomerByID(id)
	require.True(t, ok, id)
	return cu.Clone()
}

func TestParseFilters(t *testing.T) {
	r, _ := newTestRecommender()

	f := r.ParseFilters("show me formal under 3000")
	assert.Equal(t, "formal", f.Category)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 3000, *f.MaxPrice)

	f = r.ParseFilters("max 4000 below 1500 shoes")
	assert.Equal(t, "footwear", f.Category)
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 1500, *f.MaxPrice)

	f = r.ParseFilters("something budget friendly")
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 2000, *f.MaxPrice)

	f = r.ParseFilters("premium picks")
	assert.Nil(t, f.MaxPrice)
	assert.Equal(t, 5000, f.MinPrice)

	f = r.ParseFilters("under ₹2500")
	require.NotNil(t, f.MaxPrice)
	assert.Equal(t, 2500, *f.MaxPrice)
}

func TestRecommendAnonymous(t *testing.T) {
	r, _ := newTestRecommender()
	res := r.Recommend(nil, "show me formal under 3000")

	assert.Equal(t, []string{"LV001", "VH008"}, skus(res.Products))
	assert.Equal(t, 2, res.TotalProducts)
	assert.Contains(t, res.Reasoning, "formal items for new customers")
	assert.Empty(t, res.Bundles)
	assert.Nil(t, res.Upsell)
	assert.NotEmpty(t, res.Categories)
}

func TestRecommendAnonymousCapsResults(t *testing.T) {
	r, _ := newTestRecommender()
	res := r.Recommend(nil, "what do you have")
	assert.Len(t, res.Products, 4)
	assert.Equal(t, 12, res.TotalProducts)
	assert.Contains(t, res.Reasoning, "popular")
}

func TestRecommendRanksByIdealPrice(t *testing.T) {
	r, c := newTestRecommender()
	res := r.Recommend(customer(t, c, "C001"), "show me formal")

	// gold ideal is 6750: every formal product matches one preference tag.
	assert.Equal(t, []string{"PB004", "LV001", "VH008", "LV011"}, skus(res.Products))
	assert.Contains(t, res.Reasoning, "formal, ethnic")
	assert.Contains(t, res.Reasoning, "in formal category")
	require.Len(t, res.Bundles, 1)
	assert.Equal(t, "Complete Formal Look", res.Bundles[0].Name)
	assert.Equal(t, 8797, res.Bundles[0].TotalPrice)
	assert.Nil(t, res.Upsell)
}

func TestUnpricedBundleUsesDiscountedItemSum(t *testing.T) {
	c := catalog.New(catalog.Seed())
	policy := DefaultRecommendationPolicy()
	policy.FormalBundle.TotalPrice = 0
	res := NewRecommender(c, policy).Recommend(customer(t, c, "C001"), "show me formal")

	require.Len(t, res.Bundles, 1)
	assert.Equal(t, 8752, res.Bundles[0].TotalPrice)
	assert.Equal(t, 8797, DefaultRecommendationPolicy().FormalBundle.TotalPrice)
}

func TestRecommendFallsBackToPreferenceTags(t *testing.T) {
	r, c := newTestRecommender()
	res := r.Recommend(customer(t, c, "C003"), "formal under 1000")

	assert.Equal(t, []string{"AP010", "AB007"}, skus(res.Products))
	assert.Contains(t, res.Reasoning, "under ₹1000")
	assert.Empty(t, res.Bundles)
}

func TestRecommendUpsell(t *testing.T) {
	r, c := newTestRecommender()
	vikram := customer(t, c, "C006")

	res := r.Recommend(vikram, "show me something")
	require.NotNil(t, res.Upsell)
	assert.Equal(t, "LV011", res.Upsell.SKU)

	res = r.Recommend(vikram, "formal under 3000")
	assert.Nil(t, res.Upsell)
}
