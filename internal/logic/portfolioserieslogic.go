package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/portfolio"
	"folio-api/pkg/series"
)

type PortfolioSeriesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPortfolioSeriesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PortfolioSeriesLogic {
	return &PortfolioSeriesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// PortfolioSeries reconstructs the owner's indicative 24h portfolio-value
// curve from the per-asset change windows.
func (l *PortfolioSeriesLogic) PortfolioSeries(req *types.PortfolioSeriesRequest) (*types.PortfolioSeriesResponse, error) {
	holdings, err := loadHoldings(l.ctx, l.svcCtx, req.Owner)
	if err != nil {
		return nil, err
	}

	ids := assetIDs(holdings)
	l.svcCtx.TouchInterest(ids)
	snapshots := snapshotsFor(l.ctx, l.svcCtx, ids)

	now := time.Now().Unix()
	points, missing := series.BuildBasketSeriesWithDiagnostics(now, portfolio.BasketAssets(holdings), snapshots)
	if len(missing) > 0 {
		l.Infof("portfolio series for %s built with %d fully-stale assets", req.Owner, len(missing))
	}

	return &types.PortfolioSeriesResponse{
		Owner:           req.Owner,
		Points:          toSeriesPoints(points),
		MissingAssetIds: missing,
	}, nil
}
