package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/portfolio"
)

type PortfolioLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPortfolioLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PortfolioLogic {
	return &PortfolioLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Portfolio values the owner's holdings against the freshest prices known
// and breaks the total into composition buckets.
func (l *PortfolioLogic) Portfolio(req *types.PortfolioRequest) (*types.PortfolioResponse, error) {
	holdings, err := loadHoldings(l.ctx, l.svcCtx, req.Owner)
	if err != nil {
		return nil, err
	}

	ids := assetIDs(holdings)
	l.svcCtx.TouchInterest(ids)
	snapshots := snapshotsFor(l.ctx, l.svcCtx, ids)

	valued := portfolio.Revalue(holdings, snapshots)
	p := portfolio.New(req.Owner, valued)
	buckets, _ := portfolio.Composition(valued, snapshots, l.svcCtx.Config.NamedBuckets)

	resp := &types.PortfolioResponse{
		Owner:         p.Owner,
		Holdings:      make([]types.HoldingView, len(p.Holdings)),
		TotalValueUsd: p.TotalValueUsd,
		Composition:   make([]types.CompositionBucket, len(buckets)),
		ServerTime:    time.Now().UnixMilli(),
	}
	for i, h := range p.Holdings {
		resp.Holdings[i] = types.HoldingView{
			Chain:            string(h.Chain),
			Address:          h.Address,
			AssetID:          h.AssetID,
			Symbol:           h.Symbol,
			Name:             h.Name,
			Decimals:         h.Decimals,
			AmountRaw:        h.AmountRaw,
			Amount:           h.Amount,
			PriceUsd:         h.PriceUsd,
			ValueUsd:         h.ValueUsd,
			AvgCostUsd:       h.AvgCostUsd,
			UnrealizedPnlUsd: h.UnrealizedPnlUsd,
			RealizedPnlUsd:   h.RealizedPnlUsd,
		}
	}
	for i, b := range buckets {
		resp.Composition[i] = types.CompositionBucket{Key: b.Key, ValueUsd: b.ValueUsd}
	}
	return resp, nil
}
