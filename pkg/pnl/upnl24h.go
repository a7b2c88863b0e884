// Package pnl computes the portion of 24-hour portfolio value change caused
// by price movement alone, excluding quantity changes driven by transfers
// inside the window.
package pnl

import (
	"math"
	"sort"
	"time"

	"folio-api/pkg/feed"
	"folio-api/pkg/portfolio"
	"folio-api/pkg/series"
)

const (
	window         = 24 * time.Hour
	debugThreshold = 50.0
	debugTopN      = 10
)

// StatusConfirmed is the only settlement status that participates in the
// transfer netting.
const StatusConfirmed = "confirmed"

// ReasonPriceMissing24h marks assets excluded for unusable 24h pricing,
// including deltas rejected by the sanity bound.
const ReasonPriceMissing24h = "price_missing_24h"

// Asset is one held position entering the attribution.
type Asset struct {
	AssetID string
	Amount  float64
}

// Transfer is one signed quantity movement from the ledger: received
// positive, sent negative.
type Transfer struct {
	Timestamp int64 // unix seconds
	AssetID   string
	Quantity  float64
	Status    string
}

// Exclusion records an asset the engine could not attribute, with a reason
// code. Data-quality faults surface here, never as errors.
type Exclusion struct {
	AssetID string `json:"assetId"`
	Reason  string `json:"reason"`
}

// Contribution is the per-asset audit record kept for the largest movers.
type Contribution struct {
	AssetID        string  `json:"assetId"`
	Amount         float64 `json:"amount"`
	P1             float64 `json:"p1"`
	Delta24        float64 `json:"delta24"`
	P0             float64 `json:"p0"`
	TransferDelta  float64 `json:"transferDelta"`
	Balance0       float64 `json:"balance0"`
	UnchangedUnits float64 `json:"unchangedUnits"`
	ChangeUsd      float64 `json:"changeUsd"`
}

// Result is the aggregate attribution outcome. ChangeUsd is always finite;
// with no includable assets it is 0.
type Result struct {
	ChangeUsd    float64        `json:"changeUsd"`
	PrevValueUsd float64        `json:"prevValueUsd"`
	Excluded     []Exclusion    `json:"excluded"`
	Top          []Contribution `json:"top,omitempty"`
}

// HoldingsAssets adapts valued holdings for the engine.
func HoldingsAssets(holdings []portfolio.Holding) []Asset {
	out := make([]Asset, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, Asset{AssetID: h.AssetID, Amount: h.Amount})
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ComputeUnrealized24h attributes the last 24 hours of value change to price
// movement on quantity held throughout the window. Per asset it resolves the
// current price and 24h delta (direct or extrapolated), nets confirmed
// in-window transfers out of the position, and contributes
// unchangedUnits × (p1 − p0). Assets with unusable pricing land in Excluded.
func ComputeUnrealized24h(assets []Asset, snapshots map[string]*feed.Snapshot, now time.Time, transfers []Transfer) Result {
	t0 := now.Add(-window).Unix()

	// Net confirmed quantity deltas inside (t0, now] per asset.
	deltaByAsset := make(map[string]float64)
	for _, tr := range transfers {
		if tr.Status != StatusConfirmed {
			continue
		}
		if tr.Timestamp <= t0 {
			continue
		}
		if !isFinite(tr.Quantity) || tr.Quantity == 0 {
			continue
		}
		deltaByAsset[tr.AssetID] += tr.Quantity
	}

	result := Result{Excluded: []Exclusion{}}
	var contributions []Contribution

	for _, a := range assets {
		snap := snapshots[a.AssetID]
		p1Ptr := snap.PriceUsd()
		dp24, ok := series.Approx24hChange(snap)
		if p1Ptr == nil || !ok {
			result.Excluded = append(result.Excluded, Exclusion{AssetID: a.AssetID, Reason: ReasonPriceMissing24h})
			continue
		}
		p1 := *p1Ptr

		// Reject clearly corrupt deltas instead of clamping them.
		if !isFinite(dp24) || math.Abs(dp24) > math.Max(math.Abs(p1)*0.9, 2) {
			result.Excluded = append(result.Excluded, Exclusion{AssetID: a.AssetID, Reason: ReasonPriceMissing24h})
			continue
		}

		// last_price_usd_change is consumed here as an absolute USD delta,
		// while the chart path treats the same field as a percentage. The
		// upstream feed contract is ambiguous; each call site keeps its own
		// reading rather than silently unifying them.
		p0 := p1 - dp24

		balance1 := a.Amount
		delta := deltaByAsset[a.AssetID]
		balance0 := balance1 - delta
		unchanged := math.Max(0, math.Min(balance0, balance1))
		if unchanged <= 0 {
			continue
		}

		change := unchanged * (p1 - p0)
		result.ChangeUsd += change
		result.PrevValueUsd += unchanged * p0

		if math.Abs(change) >= debugThreshold {
			contributions = append(contributions, Contribution{
				AssetID:        a.AssetID,
				Amount:         a.Amount,
				P1:             p1,
				Delta24:        dp24,
				P0:             p0,
				TransferDelta:  delta,
				Balance0:       balance0,
				UnchangedUnits: unchanged,
				ChangeUsd:      change,
			})
		}
	}

	sort.SliceStable(contributions, func(i, j int) bool {
		return math.Abs(contributions[i].ChangeUsd) > math.Abs(contributions[j].ChangeUsd)
	})
	if len(contributions) > debugTopN {
		contributions = contributions[:debugTopN]
	}
	result.Top = contributions

	result.ChangeUsd = portfolio.Round2(result.ChangeUsd)
	result.PrevValueUsd = portfolio.Round2(result.PrevValueUsd)
	return result
}
