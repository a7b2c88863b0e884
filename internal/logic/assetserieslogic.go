package logic

import (
	"context"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/series"
)

type AssetSeriesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAssetSeriesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AssetSeriesLogic {
	return &AssetSeriesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// AssetSeries reconstructs the anchored price curve for one asset. The 1H
// range uses only the windows at or below one hour.
func (l *AssetSeriesLogic) AssetSeries(req *types.AssetSeriesRequest) (*types.AssetSeriesResponse, error) {
	assetID := strings.TrimSpace(req.AssetID)
	if assetID == "" {
		return nil, ErrAssetNotFound
	}
	l.svcCtx.TouchInterest([]string{assetID})

	snapshots := snapshotsFor(l.ctx, l.svcCtx, []string{assetID})
	snap := snapshots[assetID]
	if snap == nil {
		return nil, ErrAssetNotFound
	}

	curves := series.BuildRangeSeries(time.Now().Unix(), snap)
	if curves == nil {
		return nil, ErrAssetNotFound
	}

	rng := series.Range24H
	if strings.EqualFold(req.Range, string(series.Range1H)) {
		rng = series.Range1H
	}

	return &types.AssetSeriesResponse{
		AssetID: assetID,
		Range:   string(rng),
		Points:  toSeriesPoints(curves[rng]),
	}, nil
}
