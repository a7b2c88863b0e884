package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-api/pkg/feed"
)

func f(v float64) *float64 { return &v }

func TestUIAmount(t *testing.T) {
	assert.InDelta(t, 1.5, UIAmount("1500000000", 9), 1e-9)
	assert.InDelta(t, 42, UIAmount("42", 0), 1e-9)
	assert.Zero(t, UIAmount("not-a-number", 6))
}

func TestValueUSD(t *testing.T) {
	assert.Equal(t, 0.0, ValueUSD(0, 123.45))
	assert.Equal(t, 246.9, ValueUSD(2, 123.45))
	// Rounded to cents.
	assert.Equal(t, 0.33, ValueUSD(1, 0.333))
}

func TestUnrealizedPnlNilIffNoCostBasis(t *testing.T) {
	assert.Nil(t, UnrealizedPnlUSD(10, 5, nil))

	got := UnrealizedPnlUSD(10, 5, f(3))
	require.NotNil(t, got)
	assert.Equal(t, 20.0, *got)

	// Zero cost basis is a real basis, not absence.
	got = UnrealizedPnlUSD(10, 5, f(0))
	require.NotNil(t, got)
	assert.Equal(t, 50.0, *got)
}

func TestTotalValueSumsRoundedComponents(t *testing.T) {
	// Each holding value is rounded before summation, so the total can
	// differ from rounding the raw sum.
	holdings := []Holding{
		{ValueUsd: ValueUSD(1, 0.333)}, // 0.33
		{ValueUsd: ValueUSD(1, 0.333)}, // 0.33
		{ValueUsd: ValueUSD(1, 0.333)}, // 0.33
	}
	assert.Equal(t, 0.99, TotalValueUSD(holdings))
}

func TestRevalueAppliesLivePrices(t *testing.T) {
	snapshots := map[string]*feed.Snapshot{
		"mintA": {ID: "mintA", Summary: feed.Summary{PriceUsd: feed.NullableOf(20)}},
	}
	holdings := []Holding{
		{AssetID: "mintA", Amount: 2, PriceUsd: 10, AvgCostUsd: f(5)},
		{AssetID: "mintB", Amount: 3, PriceUsd: 4},
	}

	out := Revalue(holdings, snapshots)

	require.Len(t, out, 2)
	assert.Equal(t, 20.0, out[0].PriceUsd)
	assert.Equal(t, 40.0, out[0].ValueUsd)
	require.NotNil(t, out[0].UnrealizedPnlUsd)
	assert.Equal(t, 30.0, *out[0].UnrealizedPnlUsd)

	// No live snapshot: fetched price kept.
	assert.Equal(t, 4.0, out[1].PriceUsd)
	assert.Equal(t, 12.0, out[1].ValueUsd)
	assert.Nil(t, out[1].UnrealizedPnlUsd)

	// Input untouched.
	assert.Equal(t, 10.0, holdings[0].PriceUsd)
}

func TestNewPortfolio(t *testing.T) {
	p := New("owner1", []Holding{{ValueUsd: 10}, {ValueUsd: 5.5}})
	assert.Equal(t, "owner1", p.Owner)
	assert.Equal(t, 15.5, p.TotalValueUsd)
}

func TestCompositionBuckets(t *testing.T) {
	holdings := []Holding{
		{AssetID: "sol", Symbol: "SOL", Amount: 2, PriceUsd: 100},
		{AssetID: "usdc", Symbol: "USDC", Amount: 50, PriceUsd: 1},
		{AssetID: "meme1", Symbol: "WIF", Amount: 100, PriceUsd: 2},
		{AssetID: "meme2", Symbol: "BONK", Amount: 1000, PriceUsd: 0.1},
	}

	buckets, total := Composition(holdings, nil, []string{"SOL", "USDC"})

	assert.InDelta(t, 550, total, 1e-9)
	require.Len(t, buckets, 3)
	assert.Equal(t, Bucket{Key: "Other", ValueUsd: 300}, buckets[0])
	assert.Equal(t, Bucket{Key: "SOL", ValueUsd: 200}, buckets[1])
	assert.Equal(t, Bucket{Key: "USDC", ValueUsd: 50}, buckets[2])
}

func TestCompositionDropsEmptyBucketsAndPrefersLivePrice(t *testing.T) {
	holdings := []Holding{
		{AssetID: "sol", Symbol: "SOL", Amount: 1, PriceUsd: 100},
	}
	snapshots := map[string]*feed.Snapshot{
		"sol": {ID: "sol", Summary: feed.Summary{PriceUsd: feed.NullableOf(120)}},
	}

	buckets, total := Composition(holdings, snapshots, []string{"SOL", "USDC"})

	assert.InDelta(t, 120, total, 1e-9)
	require.Len(t, buckets, 1)
	assert.Equal(t, "SOL", buckets[0].Key)
	assert.InDelta(t, 120, buckets[0].ValueUsd, 1e-9)
}

func TestCompositionNeverNegativeOther(t *testing.T) {
	// Named buckets covering everything must not produce a negative
	// remainder from float noise.
	holdings := []Holding{
		{AssetID: "sol", Symbol: "SOL", Amount: 3, PriceUsd: 0.1},
	}
	buckets, _ := Composition(holdings, nil, []string{"SOL"})
	for _, b := range buckets {
		assert.GreaterOrEqual(t, b.ValueUsd, 0.0)
	}
}
