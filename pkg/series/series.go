// Package series reconstructs indicative price curves from the feed's
// percentage-change statistics. No tick history exists upstream; every curve
// here is an approximation anchored on the current price.
package series

import (
	"math"
	"sort"

	"folio-api/pkg/feed"
)

// Point is one sample of a reconstructed curve, in whole unix seconds.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Range selects which windows feed a per-asset curve.
type Range string

const (
	Range24H Range = "24H"
	Range1H  Range = "1H"
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PriceFromChange derives the price one window ago from the current price and
// the percentage change over that window. It reports false for a
// non-positive or non-finite current price, an unknown or non-finite change,
// and the degenerate −100 % change.
func PriceFromChange(currentPriceUsd float64, changePercent *float64) (float64, bool) {
	if !isFinite(currentPriceUsd) || currentPriceUsd <= 0 {
		return 0, false
	}
	if changePercent == nil || !isFinite(*changePercent) {
		return 0, false
	}
	ratio := 1 + *changePercent/100
	if ratio == 0 {
		return 0, false
	}
	past := currentPriceUsd / ratio
	if !isFinite(past) {
		return 0, false
	}
	return past, true
}

// BuildAnchoredSeries emits one point per window with a usable change, at
// now−window, plus exactly one point (now, currentPriceUsd). The result is
// stable-sorted ascending by timestamp; colliding timestamps are left as the
// sort places them.
func BuildAnchoredSeries(nowUnixSeconds int64, currentPriceUsd float64, changes map[feed.Timeframe]*float64) []Point {
	points := make([]Point, 0, len(feed.Timeframes)+1)
	for _, tf := range feed.Timeframes {
		past, ok := PriceFromChange(currentPriceUsd, changes[tf])
		if !ok {
			continue
		}
		points = append(points, Point{
			Time:  nowUnixSeconds - feed.TimeframeSeconds[tf],
			Value: past,
		})
	}
	points = append(points, Point{Time: nowUnixSeconds, Value: currentPriceUsd})
	sort.SliceStable(points, func(i, j int) bool { return points[i].Time < points[j].Time })
	return points
}

// BuildRangeSeries builds the per-asset curves served to charts: the 24H
// curve uses every window, the 1H curve only the windows at or below one
// hour. Returns nil when the snapshot carries no usable price.
func BuildRangeSeries(nowUnixSeconds int64, snap *feed.Snapshot) map[Range][]Point {
	price := snap.PriceUsd()
	if price == nil || !isFinite(*price) {
		return nil
	}
	changes := snap.Changes()

	short := map[feed.Timeframe]*float64{
		feed.Timeframe1h:  changes[feed.Timeframe1h],
		feed.Timeframe30m: changes[feed.Timeframe30m],
		feed.Timeframe15m: changes[feed.Timeframe15m],
		feed.Timeframe5m:  changes[feed.Timeframe5m],
		feed.Timeframe1m:  changes[feed.Timeframe1m],
	}

	return map[Range][]Point{
		Range24H: BuildAnchoredSeries(nowUnixSeconds, *price, changes),
		Range1H:  BuildAnchoredSeries(nowUnixSeconds, *price, short),
	}
}

// fallback24h scales shorter windows linearly onto 24 hours, first usable
// entry wins.
var fallback24h = []struct {
	tf     feed.Timeframe
	factor float64
}{
	{feed.Timeframe6h, 4},
	{feed.Timeframe1h, 24},
	{feed.Timeframe30m, 48},
	{feed.Timeframe15m, 96},
	{feed.Timeframe5m, 288},
	{feed.Timeframe1m, 1440},
}

// Approx24hChange resolves the 24h change for a snapshot, extrapolating from
// shorter windows when the direct value is unavailable.
func Approx24hChange(snap *feed.Snapshot) (float64, bool) {
	if snap == nil {
		return 0, false
	}
	if c := snap.Change(feed.Timeframe24h); c != nil {
		return *c, true
	}
	for _, fb := range fallback24h {
		if c := snap.Change(fb.tf); c != nil {
			return *c * fb.factor, true
		}
	}
	return 0, false
}
