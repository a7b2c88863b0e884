package pnl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio-api/pkg/feed"
)

func snapWith(price float64, change24 *float64) *feed.Snapshot {
	s := &feed.Snapshot{ID: "x", Summary: feed.Summary{PriceUsd: feed.NullableOf(price)}}
	if change24 != nil {
		s.Summary.H24.LastPriceUsdChange = feed.NullableOf(*change24)
	}
	return s
}

func f(v float64) *float64 { return &v }

func TestComputeUnrealized24hHeldThroughout(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(100, f(10)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}

	res := ComputeUnrealized24h(assets, snapshots, now, nil)

	assert.InDelta(t, 50, res.ChangeUsd, 1e-9)
	assert.InDelta(t, 450, res.PrevValueUsd, 1e-9)
	assert.Empty(t, res.Excluded)
}

func TestComputeUnrealized24hTransferNetsOutPosition(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(100, f(10)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}
	transfers := []Transfer{
		{Timestamp: now.Add(-time.Hour).Unix(), AssetID: "mintA", Quantity: 5, Status: StatusConfirmed},
	}

	res := ComputeUnrealized24h(assets, snapshots, now, transfers)

	// The whole position arrived inside the window: nothing was held
	// throughout, so no price movement is attributable.
	assert.Zero(t, res.ChangeUsd)
	assert.Zero(t, res.PrevValueUsd)
	assert.Empty(t, res.Excluded)
}

func TestComputeUnrealized24hPartialTransfer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(100, f(10)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}
	transfers := []Transfer{
		{Timestamp: now.Add(-2 * time.Hour).Unix(), AssetID: "mintA", Quantity: 2, Status: StatusConfirmed},
	}

	res := ComputeUnrealized24h(assets, snapshots, now, transfers)

	// 3 units predate the window; only they carry the 10 USD move.
	assert.InDelta(t, 30, res.ChangeUsd, 1e-9)
	assert.InDelta(t, 270, res.PrevValueUsd, 1e-9)
}

func TestComputeUnrealized24hIgnoresUnconfirmedAndOutOfWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(100, f(10)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}
	transfers := []Transfer{
		{Timestamp: now.Add(-time.Hour).Unix(), AssetID: "mintA", Quantity: 5, Status: "pending"},
		{Timestamp: now.Add(-25 * time.Hour).Unix(), AssetID: "mintA", Quantity: 5, Status: StatusConfirmed},
	}

	res := ComputeUnrealized24h(assets, snapshots, now, transfers)

	assert.InDelta(t, 50, res.ChangeUsd, 1e-9)
}

func TestComputeUnrealized24hOutboundTransfer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(100, f(10)),
	}
	// Held 8 at window start, sent 3 away inside the window.
	assets := []Asset{{AssetID: "mintA", Amount: 5}}
	transfers := []Transfer{
		{Timestamp: now.Add(-3 * time.Hour).Unix(), AssetID: "mintA", Quantity: -3, Status: StatusConfirmed},
	}

	res := ComputeUnrealized24h(assets, snapshots, now, transfers)

	// unchanged = min(8, 5) = 5.
	assert.InDelta(t, 50, res.ChangeUsd, 1e-9)
}

func TestComputeUnrealized24hSanityBoundExcludes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		// Delta of 95 against a price of 100 exceeds 0.9·|p1|.
		"mintA": snapWith(100, f(95)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}

	res := ComputeUnrealized24h(assets, snapshots, now, nil)

	assert.Zero(t, res.ChangeUsd)
	require.Len(t, res.Excluded, 1)
	assert.Equal(t, Exclusion{AssetID: "mintA", Reason: ReasonPriceMissing24h}, res.Excluded[0])
}

func TestComputeUnrealized24hSmallPriceUsesFloorBound(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// For sub-dollar prices the bound floors at 2 USD, so a 1.5 USD delta on
	// a 0.5 USD price still passes.
	snapshots := map[string]*feed.Snapshot{
		"mintA": snapWith(0.5, f(1.5)),
	}
	assets := []Asset{{AssetID: "mintA", Amount: 10}}

	res := ComputeUnrealized24h(assets, snapshots, now, nil)

	assert.Empty(t, res.Excluded)
	assert.InDelta(t, 15, res.ChangeUsd, 1e-9)
}

func TestComputeUnrealized24hMissingSnapshotExcludes(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	assets := []Asset{{AssetID: "mintA", Amount: 5}}

	res := ComputeUnrealized24h(assets, map[string]*feed.Snapshot{}, now, nil)

	require.Len(t, res.Excluded, 1)
	assert.Equal(t, ReasonPriceMissing24h, res.Excluded[0].Reason)
}

func TestComputeUnrealized24hFallbackDelta(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	// No 24h change, but a 6h change of 0.25 extrapolates to 1.
	s := snapWith(100, nil)
	s.Summary.H6.LastPriceUsdChange = feed.NullableOf(0.25)
	snapshots := map[string]*feed.Snapshot{"mintA": s}
	assets := []Asset{{AssetID: "mintA", Amount: 5}}

	res := ComputeUnrealized24h(assets, snapshots, now, nil)

	assert.Empty(t, res.Excluded)
	assert.InDelta(t, 5, res.ChangeUsd, 1e-9)
}

func TestComputeUnrealized24hTopContributions(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	snapshots := map[string]*feed.Snapshot{
		"big":   snapWith(100, f(20)),
		"small": snapWith(100, f(1)),
	}
	assets := []Asset{
		{AssetID: "big", Amount: 10},
		{AssetID: "small", Amount: 10},
	}

	res := ComputeUnrealized24h(assets, snapshots, now, nil)

	// Only moves of at least 50 USD make the audit list.
	require.Len(t, res.Top, 1)
	assert.Equal(t, "big", res.Top[0].AssetID)
	assert.InDelta(t, 200, res.Top[0].ChangeUsd, 1e-9)
	assert.InDelta(t, 210, res.ChangeUsd, 1e-9)
}

func TestComputeUnrealized24hEmptyPortfolio(t *testing.T) {
	res := ComputeUnrealized24h(nil, nil, time.Unix(1_700_000_000, 0), nil)

	assert.Zero(t, res.ChangeUsd)
	assert.Zero(t, res.PrevValueUsd)
	assert.Empty(t, res.Excluded)
	assert.Empty(t, res.Top)
}
