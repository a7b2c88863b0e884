package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/feed"
)

type AssetLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAssetLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AssetLogic {
	return &AssetLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Asset returns the latest snapshot state for one asset.
func (l *AssetLogic) Asset(req *types.AssetRequest) (*types.AssetResponse, error) {
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

	changes := make(map[string]*float64, len(feed.Timeframes))
	for tf, c := range snap.Changes() {
		changes[string(tf)] = c
	}

	return &types.AssetResponse{
		AssetID:      assetID,
		Symbol:       snap.Symbol,
		Name:         snap.Name,
		Chain:        snap.Chain,
		Decimals:     snap.Decimals,
		PriceUsd:     snap.PriceUsd(),
		Fdv:          snap.Summary.Fdv.Ptr(),
		LiquidityUsd: snap.Summary.LiquidityUsd.Ptr(),
		Pools:        snap.Summary.Pools,
		Changes:      changes,
		LastUpdated:  snap.LastUpdated,
	}, nil
}
