package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Timeframe identifies one of the fixed statistics windows reported by the feed.
type Timeframe string

const (
	Timeframe24h Timeframe = "24h"
	Timeframe6h  Timeframe = "6h"
	Timeframe1h  Timeframe = "1h"
	Timeframe30m Timeframe = "30m"
	Timeframe15m Timeframe = "15m"
	Timeframe5m  Timeframe = "5m"
	Timeframe1m  Timeframe = "1m"
)

// Timeframes lists every window, longest first.
var Timeframes = []Timeframe{
	Timeframe24h,
	Timeframe6h,
	Timeframe1h,
	Timeframe30m,
	Timeframe15m,
	Timeframe5m,
	Timeframe1m,
}

// TimeframeSeconds maps each window onto its span in seconds.
var TimeframeSeconds = map[Timeframe]int64{
	Timeframe24h: 24 * 60 * 60,
	Timeframe6h:  6 * 60 * 60,
	Timeframe1h:  60 * 60,
	Timeframe30m: 30 * 60,
	Timeframe15m: 15 * 60,
	Timeframe5m:  5 * 60,
	Timeframe1m:  60,
}

// Nullable is a float that may be absent. The feed reports numeric fields as
// JSON numbers or numeric strings; anything else (null, malformed strings,
// non-finite values) decodes as not-valid rather than failing the message.
type Nullable struct {
	Value float64
	Valid bool
}

// NullableOf wraps a plain float.
func NullableOf(v float64) Nullable {
	return Nullable{Value: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

// Ptr returns the value as a pointer, nil when not valid.
func (n Nullable) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func (n *Nullable) UnmarshalJSON(data []byte) error {
	*n = Nullable{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		*n = Nullable{Value: f, Valid: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	*n = Nullable{Value: f, Valid: true}
	return nil
}

func (n Nullable) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// TimeframeStats carries the per-window trade statistics for one asset.
type TimeframeStats struct {
	Volume             float64  `json:"volume"`
	VolumeUsd          float64  `json:"volume_usd"`
	Sells              float64  `json:"sells"`
	Buys               float64  `json:"buys"`
	Txns               float64  `json:"txns"`
	BuyUsd             float64  `json:"buy_usd"`
	SellUsd            float64  `json:"sell_usd"`
	LastPriceUsdChange Nullable `json:"last_price_usd_change"`
}

func (s *TimeframeStats) validate(tf Timeframe) error {
	fields := map[string]float64{
		"volume":     s.Volume,
		"volume_usd": s.VolumeUsd,
		"sells":      s.Sells,
		"buys":       s.Buys,
		"txns":       s.Txns,
		"buy_usd":    s.BuyUsd,
		"sell_usd":   s.SellUsd,
	}
	for name, v := range fields {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("feed: %s.%s must be a non-negative number, got %v", tf, name, v)
		}
	}
	return nil
}

// Summary aggregates the priced state of one asset across all windows.
type Summary struct {
	Chain        string         `json:"chain"`
	ID           string         `json:"id"`
	PriceUsd     Nullable       `json:"price_usd"`
	Fdv          Nullable       `json:"fdv"`
	LiquidityUsd Nullable       `json:"liquidity_usd"`
	Pools        int            `json:"pools"`
	H24          TimeframeStats `json:"24h"`
	H6           TimeframeStats `json:"6h"`
	H1           TimeframeStats `json:"1h"`
	M30          TimeframeStats `json:"30m"`
	M15          TimeframeStats `json:"15m"`
	M5           TimeframeStats `json:"5m"`
	M1           TimeframeStats `json:"1m"`
}

// Stats returns the statistics block for the given window.
func (s *Summary) Stats(tf Timeframe) *TimeframeStats {
	switch tf {
	case Timeframe24h:
		return &s.H24
	case Timeframe6h:
		return &s.H6
	case Timeframe1h:
		return &s.H1
	case Timeframe30m:
		return &s.M30
	case Timeframe15m:
		return &s.M15
	case Timeframe5m:
		return &s.M5
	case Timeframe1m:
		return &s.M1
	default:
		return nil
	}
}

// Snapshot is the latest validated feed state for one asset. Snapshots are
// immutable after parsing; newer snapshots replace older ones wholesale.
type Snapshot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Chain       string  `json:"chain"`
	Decimals    int     `json:"decimals"`
	TotalSupply float64 `json:"total_supply"`
	Description string  `json:"description"`
	Website     string  `json:"website"`
	AddedAt     string  `json:"added_at"`
	Summary     Summary `json:"summary"`
	LastUpdated string  `json:"last_updated"`
}

// Change returns the percentage price change over the window, nil when the
// feed could not determine one.
func (s *Snapshot) Change(tf Timeframe) *float64 {
	if s == nil {
		return nil
	}
	stats := s.Summary.Stats(tf)
	if stats == nil {
		return nil
	}
	return stats.LastPriceUsdChange.Ptr()
}

// PriceUsd returns the current price, nil when unpriced.
func (s *Snapshot) PriceUsd() *float64 {
	if s == nil {
		return nil
	}
	return s.Summary.PriceUsd.Ptr()
}

// Changes collects the per-window percentage changes for series building.
func (s *Snapshot) Changes() map[Timeframe]*float64 {
	out := make(map[Timeframe]*float64, len(Timeframes))
	for _, tf := range Timeframes {
		out[tf] = s.Change(tf)
	}
	return out
}

// Validate rejects snapshots with structurally broken statistics.
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("feed: snapshot id is required")
	}
	for _, tf := range Timeframes {
		if err := s.Summary.Stats(tf).validate(tf); err != nil {
			return err
		}
	}
	return nil
}

// Message kinds on the feed channel.
const (
	messageTypePrice         = "price"
	messageTypeSubscribed    = "subscribedMany"
	messageTypeSubscribeMany = "subscribeMany"
)

// ErrUnknownMessage marks inbound frames that match none of the known shapes.
var ErrUnknownMessage = errors.New("feed: unknown message shape")

// PriceUpdate is a validated price message for a single asset.
type PriceUpdate struct {
	AssetID  string
	Snapshot *Snapshot
}

// SubscribeAck acknowledges a subscribeMany request.
type SubscribeAck struct {
	Count int
}

type wireMessage struct {
	Type    string          `json:"type"`
	AssetID string          `json:"assetId"`
	Data    json.RawMessage `json:"data"`
	Count   int             `json:"count"`
}

type subscribeManyRequest struct {
	Type     string   `json:"type"`
	AssetIDs []string `json:"assetIds"`
}

// ParseMessage decodes and validates one inbound frame. Exactly one of the
// returned values is non-nil on success; frames that match neither known
// shape return ErrUnknownMessage.
func ParseMessage(data []byte) (*PriceUpdate, *SubscribeAck, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, nil, fmt.Errorf("feed: decode message: %w", err)
	}
	switch wire.Type {
	case messageTypePrice:
		if strings.TrimSpace(wire.AssetID) == "" {
			return nil, nil, errors.New("feed: price message missing assetId")
		}
		var snap Snapshot
		if err := json.Unmarshal(wire.Data, &snap); err != nil {
			return nil, nil, fmt.Errorf("feed: decode price data: %w", err)
		}
		if err := snap.Validate(); err != nil {
			return nil, nil, err
		}
		return &PriceUpdate{AssetID: wire.AssetID, Snapshot: &snap}, nil, nil
	case messageTypeSubscribed:
		if wire.Count < 0 {
			return nil, nil, errors.New("feed: subscribedMany count must be non-negative")
		}
		return nil, &SubscribeAck{Count: wire.Count}, nil
	default:
		return nil, nil, ErrUnknownMessage
	}
}

// EncodeSubscribeMany builds the subscription request frame for a full
// interest set.
func EncodeSubscribeMany(assetIDs []string) ([]byte, error) {
	return json.Marshal(subscribeManyRequest{
		Type:     messageTypeSubscribeMany,
		AssetIDs: assetIDs,
	})
}
