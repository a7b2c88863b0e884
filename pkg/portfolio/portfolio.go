// Package portfolio values holdings against current prices. All derived
// fields are pure functions of amount, price, and cost basis, recomputed on
// every revaluation rather than mutated in place.
package portfolio

import (
	"math"
	"strconv"

	"folio-api/pkg/feed"
	"folio-api/pkg/series"
)

// Chain identifies the network a holding lives on.
type Chain string

// ChainSolana is the only chain currently served.
const ChainSolana Chain = "solana"

// Holding is a user's position in one asset plus its valuation fields.
// Holdings are rebuilt on every fetch from the holdings source; nothing here
// is persisted.
type Holding struct {
	Chain            Chain    `json:"chain"`
	Address          string   `json:"address"`
	AssetID          string   `json:"assetId"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         int      `json:"decimals"`
	AmountRaw        string   `json:"amountRaw"`
	Amount           float64  `json:"amount"`
	PriceUsd         float64  `json:"priceUsd"`
	ValueUsd         float64  `json:"valueUsd"`
	AvgCostUsd       *float64 `json:"avgCostUsd,omitempty"`
	UnrealizedPnlUsd *float64 `json:"unrealizedPnlUsd,omitempty"`
	RealizedPnlUsd   *float64 `json:"realizedPnlUsd,omitempty"`
}

// Portfolio is the valued holdings of one owner.
type Portfolio struct {
	Owner         string    `json:"owner"`
	Holdings      []Holding `json:"holdings"`
	TotalValueUsd float64   `json:"totalValueUsd"`
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UIAmount converts a raw integer amount string into display units.
func UIAmount(amountRaw string, decimals int) float64 {
	raw, err := strconv.ParseFloat(amountRaw, 64)
	if err != nil {
		return 0
	}
	return raw / math.Pow(10, float64(decimals))
}

// ValueUSD is the holding's market value, rounded to cents.
func ValueUSD(amount, priceUsd float64) float64 {
	return Round2(amount * priceUsd)
}

// UnrealizedPnlUSD returns nil when the cost basis is unknown: callers must
// treat nil as not-computable, never as zero.
func UnrealizedPnlUSD(amount, priceUsd float64, avgCostUsd *float64) *float64 {
	if avgCostUsd == nil {
		return nil
	}
	v := Round2((priceUsd - *avgCostUsd) * amount)
	return &v
}

// TotalValueUSD sums the per-holding values and rounds the total again. The
// per-holding values are themselves already rounded to cents, so totals can
// differ by cents from an unrounded aggregation; this matches the reference
// behaviour and is pinned by tests.
func TotalValueUSD(holdings []Holding) float64 {
	sum := 0.0
	for _, h := range holdings {
		sum += h.ValueUsd
	}
	return Round2(sum)
}

// Revalue applies live snapshot prices to the holdings and recomputes every
// derived field. Holdings without a live snapshot keep their fetched price.
func Revalue(holdings []Holding, snapshots map[string]*feed.Snapshot) []Holding {
	out := make([]Holding, len(holdings))
	for i, h := range holdings {
		if p := snapshots[h.AssetID].PriceUsd(); p != nil {
			h.PriceUsd = *p
		}
		h.ValueUsd = ValueUSD(h.Amount, h.PriceUsd)
		h.UnrealizedPnlUsd = UnrealizedPnlUSD(h.Amount, h.PriceUsd, h.AvgCostUsd)
		out[i] = h
	}
	return out
}

// New assembles a portfolio from valued holdings.
func New(owner string, holdings []Holding) Portfolio {
	return Portfolio{
		Owner:         owner,
		Holdings:      holdings,
		TotalValueUsd: TotalValueUSD(holdings),
	}
}

// BasketAssets adapts holdings for the series builder.
func BasketAssets(holdings []Holding) []series.BasketAsset {
	out := make([]series.BasketAsset, 0, len(holdings))
	for _, h := range holdings {
		price := h.PriceUsd
		out = append(out, series.BasketAsset{AssetID: h.AssetID, Amount: h.Amount, PriceUsd: &price})
	}
	return out
}
