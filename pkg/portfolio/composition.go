package portfolio

import (
	"sort"
	"strings"

	"folio-api/pkg/feed"
)

// OtherBucket is the catch-all composition bucket.
const OtherBucket = "Other"

// Bucket is one slice of the composition breakdown.
type Bucket struct {
	Key      string  `json:"key"`
	ValueUsd float64 `json:"valueUsd"`
}

// Composition groups holdings into one bucket per named symbol plus an
// "Other" remainder equal to max(0, total − named). Bucket values use the
// live snapshot price when one is available, falling back to the holding's
// stored price; this is a visualization aid, not P&L, so values are left
// unrounded. Empty buckets are dropped and the rest sorted by value
// descending. The second return is the overall total.
func Composition(holdings []Holding, snapshots map[string]*feed.Snapshot, named []string) ([]Bucket, float64) {
	value := func(h Holding) float64 {
		price := h.PriceUsd
		if p := snapshots[h.AssetID].PriceUsd(); p != nil {
			price = *p
		}
		return price * h.Amount
	}

	total := 0.0
	for _, h := range holdings {
		total += value(h)
	}

	buckets := make([]Bucket, 0, len(named)+1)
	known := 0.0
	for _, symbol := range named {
		sum := 0.0
		for _, h := range holdings {
			if strings.EqualFold(h.Symbol, symbol) {
				sum += value(h)
			}
		}
		known += sum
		buckets = append(buckets, Bucket{Key: strings.ToUpper(symbol), ValueUsd: sum})
	}

	other := total - known
	if other < 0 {
		other = 0
	}
	buckets = append(buckets, Bucket{Key: OtherBucket, ValueUsd: other})

	kept := buckets[:0]
	for _, b := range buckets {
		if b.ValueUsd > 0 {
			kept = append(kept, b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].ValueUsd > kept[j].ValueUsd })
	return kept, total
}
