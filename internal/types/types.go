package types

// HoldingView is one valued position in a portfolio response.
type HoldingView struct {
	Chain            string   `json:"chain"`
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

// CompositionBucket is one slice of the composition breakdown.
type CompositionBucket struct {
	Key      string  `json:"key"`
	ValueUsd float64 `json:"valueUsd"`
}

type PortfolioRequest struct {
	Owner string `form:"owner"`
}

type PortfolioResponse struct {
	Owner         string              `json:"owner"`
	Holdings      []HoldingView       `json:"holdings"`
	TotalValueUsd float64             `json:"totalValueUsd"`
	Composition   []CompositionBucket `json:"composition"`
	ServerTime    int64               `json:"serverTime"`
}

// SeriesPoint is one sample of a reconstructed curve, unix seconds.
type SeriesPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

type PortfolioSeriesRequest struct {
	Owner string `form:"owner"`
}

type PortfolioSeriesResponse struct {
	Owner  string        `json:"owner"`
	Points []SeriesPoint `json:"points"`
	// MissingAssetIds lists holdings whose snapshots had no usable change in
	// any window; their segments of the curve are flat.
	MissingAssetIds []string `json:"missingAssetIds"`
}

type Pnl24hRequest struct {
	Owner string `form:"owner"`
}

type Pnl24hExclusion struct {
	AssetID string `json:"assetId"`
	Reason  string `json:"reason"`
}

type Pnl24hContribution struct {
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

type Pnl24hResponse struct {
	Owner        string               `json:"owner"`
	ChangeUsd    float64              `json:"changeUsd"`
	PrevValueUsd float64              `json:"prevValueUsd"`
	Excluded     []Pnl24hExclusion    `json:"excluded"`
	Top          []Pnl24hContribution `json:"top,omitempty"`
}

type AssetSeriesRequest struct {
	AssetID string `path:"assetId"`
	Range   string `form:"range,default=24H,options=24H|1H"`
}

type AssetSeriesResponse struct {
	AssetID string        `json:"assetId"`
	Range   string        `json:"range"`
	Points  []SeriesPoint `json:"points"`
}

type AssetRequest struct {
	AssetID string `path:"assetId"`
}

type AssetResponse struct {
	AssetID      string              `json:"assetId"`
	Symbol       string              `json:"symbol"`
	Name         string              `json:"name"`
	Chain        string              `json:"chain"`
	Decimals     int                 `json:"decimals"`
	PriceUsd     *float64            `json:"priceUsd"`
	Fdv          *float64            `json:"fdv"`
	LiquidityUsd *float64            `json:"liquidityUsd"`
	Pools        int                 `json:"pools"`
	Changes      map[string]*float64 `json:"changes"`
	LastUpdated  string              `json:"lastUpdated"`
}
