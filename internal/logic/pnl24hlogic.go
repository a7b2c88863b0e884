package logic

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/pnl"
)

type Pnl24hLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewPnl24hLogic(ctx context.Context, svcCtx *svc.ServiceContext) *Pnl24hLogic {
	return &Pnl24hLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Pnl24h attributes the last 24 hours of portfolio value change to price
// movement, netting out confirmed transfers inside the window.
func (l *Pnl24hLogic) Pnl24h(req *types.Pnl24hRequest) (*types.Pnl24hResponse, error) {
	holdings, err := loadHoldings(l.ctx, l.svcCtx, req.Owner)
	if err != nil {
		return nil, err
	}

	ids := assetIDs(holdings)
	l.svcCtx.TouchInterest(ids)
	snapshots := snapshotsFor(l.ctx, l.svcCtx, ids)

	now := time.Now()
	var transfers []pnl.Transfer
	if l.svcCtx.Repos != nil {
		transfers, err = l.svcCtx.Repos.Transfers.ConfirmedInWindow(l.ctx, req.Owner, now.Add(-24*time.Hour), nil)
		if err != nil {
			// Attribution still works; moved quantity is counted as held.
			l.Errorf("load transfers for %s: %v", req.Owner, err)
			transfers = nil
		}
	}

	result := pnl.ComputeUnrealized24h(pnl.HoldingsAssets(holdings), snapshots, now, transfers)

	resp := &types.Pnl24hResponse{
		Owner:        req.Owner,
		ChangeUsd:    result.ChangeUsd,
		PrevValueUsd: result.PrevValueUsd,
		Excluded:     make([]types.Pnl24hExclusion, len(result.Excluded)),
		Top:          make([]types.Pnl24hContribution, len(result.Top)),
	}
	for i, e := range result.Excluded {
		resp.Excluded[i] = types.Pnl24hExclusion{AssetID: e.AssetID, Reason: e.Reason}
	}
	for i, c := range result.Top {
		resp.Top[i] = types.Pnl24hContribution{
			AssetID:        c.AssetID,
			Amount:         c.Amount,
			P1:             c.P1,
			Delta24:        c.Delta24,
			P0:             c.P0,
			TransferDelta:  c.TransferDelta,
			Balance0:       c.Balance0,
			UnchangedUnits: c.UnchangedUnits,
			ChangeUsd:      c.ChangeUsd,
		}
	}
	return resp, nil
}
