package series

import (
	"sort"

	"folio-api/pkg/feed"
)

// BasketAsset is one held position contributing to a portfolio-level curve.
// PriceUsd is the holding's own price, used only when no live snapshot
// resolves a current price for the asset.
type BasketAsset struct {
	AssetID  string
	Amount   float64
	PriceUsd *float64
}

// resolveCurrentPrice prefers the live snapshot price and falls back to the
// holding's stored price. Reports false when neither yields a finite price.
func resolveCurrentPrice(a BasketAsset, snap *feed.Snapshot) (float64, bool) {
	if p := snap.PriceUsd(); p != nil && isFinite(*p) {
		return *p, true
	}
	if a.PriceUsd != nil && isFinite(*a.PriceUsd) {
		return *a.PriceUsd, true
	}
	return 0, false
}

// BuildBasketSeries reconstructs the portfolio-value curve: for every window
// it sums, over all priced assets, the derived past price times the held
// amount. An asset whose change for a window is unknown contributes at 0 %
// change (its current price); an asset with no resolvable price is excluded
// from the window's sum entirely. One final point carries the current total.
func BuildBasketSeries(nowUnixSeconds int64, assets []BasketAsset, snapshots map[string]*feed.Snapshot) []Point {
	points, _ := BuildBasketSeriesWithDiagnostics(nowUnixSeconds, assets, snapshots)
	return points
}

// BuildBasketSeriesWithDiagnostics additionally reports the asset ids whose
// snapshots had no usable change in any window, for data-quality reporting
// upstream.
func BuildBasketSeriesWithDiagnostics(nowUnixSeconds int64, assets []BasketAsset, snapshots map[string]*feed.Snapshot) ([]Point, []string) {
	missing := make(map[string]struct{})

	points := make([]Point, 0, len(feed.Timeframes)+1)
	for _, tf := range feed.Timeframes {
		total := 0.0
		for _, a := range assets {
			snap := snapshots[a.AssetID]
			current, ok := resolveCurrentPrice(a, snap)
			if !ok || !isFinite(a.Amount) {
				continue
			}
			if fullyStale(snap) {
				missing[a.AssetID] = struct{}{}
			}
			change := 0.0
			if c := snap.Change(tf); c != nil {
				change = *c
			}
			past, ok := PriceFromChange(current, &change)
			if !ok {
				past = current
			}
			total += past * a.Amount
		}
		points = append(points, Point{Time: nowUnixSeconds - feed.TimeframeSeconds[tf], Value: total})
	}

	currentTotal := 0.0
	for _, a := range assets {
		current, ok := resolveCurrentPrice(a, snapshots[a.AssetID])
		if !ok {
			continue
		}
		currentTotal += current * a.Amount
	}
	points = append(points, Point{Time: nowUnixSeconds, Value: currentTotal})

	sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })

	ids := make([]string, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return points, ids
}

// fullyStale reports whether no window of the snapshot carries a usable
// change.
func fullyStale(snap *feed.Snapshot) bool {
	for _, tf := range feed.Timeframes {
		if snap.Change(tf) != nil {
			return false
		}
	}
	return true
}
