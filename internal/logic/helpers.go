package logic

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/svc"
	"folio-api/internal/types"
	"folio-api/pkg/feed"
	"folio-api/pkg/portfolio"
	"folio-api/pkg/series"
)

// ErrOwnerRequired rejects requests without an owner address.
var ErrOwnerRequired = errors.New("owner is required")

// ErrAssetNotFound marks lookups for assets without any snapshot.
var ErrAssetNotFound = errors.New("asset not found")

// loadHoldings fetches the owner's holdings from the chain, with a Redis
// cache in front since balance reads are the slowest dependency, and attaches
// the stored cost basis when a database is wired.
func loadHoldings(ctx context.Context, svcCtx *svc.ServiceContext, owner string) ([]portfolio.Holding, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrOwnerRequired
	}

	key := cachekeys.HoldingsKey(owner)
	var holdings []portfolio.Holding
	if cacheHit(ctx, svcCtx, key, &holdings) {
		return holdings, nil
	}

	holdings, err := svcCtx.Solana.FetchHoldings(ctx, owner)
	if err != nil {
		return nil, err
	}

	if svcCtx.Repos != nil {
		basis, err := svcCtx.Repos.CostBasis.ByOwner(ctx, owner)
		if err != nil {
			// Valuation works without a basis; avg cost stays unknown.
			logx.WithContext(ctx).Errorf("load cost basis for %s: %v", owner, err)
		} else {
			for i := range holdings {
				if rec, ok := basis[holdings[i].AssetID]; ok {
					holdings[i].AvgCostUsd = rec.AvgCostUsd
					holdings[i].RealizedPnlUsd = rec.RealizedPnlUsd
				}
			}
		}
	}

	cachePut(ctx, svcCtx, key, cachekeys.HoldingsTTL(svcCtx.TTL), holdings)
	return holdings, nil
}

// snapshotsFor resolves the latest snapshot per asset: the in-memory store
// first, then the Redis mirror for assets the live session has not priced
// yet. Mirror hits are promoted into the store.
func snapshotsFor(ctx context.Context, svcCtx *svc.ServiceContext, assetIDs []string) map[string]*feed.Snapshot {
	snapshots := svcCtx.FeedStore.LatestAll(assetIDs)
	if svcCtx.FeedPersist == nil {
		return snapshots
	}
	for _, id := range assetIDs {
		if _, ok := snapshots[id]; ok {
			continue
		}
		if snap, ok := svcCtx.FeedPersist.CachedSnapshot(ctx, id); ok {
			svcCtx.FeedStore.SetSnapshot(id, snap)
			snapshots[id] = snap
		}
	}
	return snapshots
}

func assetIDs(holdings []portfolio.Holding) []string {
	ids := make([]string, 0, len(holdings))
	for _, h := range holdings {
		ids = append(ids, h.AssetID)
	}
	return ids
}

func cacheHit(ctx context.Context, svcCtx *svc.ServiceContext, key string, v interface{}) bool {
	if svcCtx.Cache == nil {
		return false
	}
	if err := svcCtx.Cache.GetCtx(ctx, key, v); err != nil {
		if !svcCtx.Cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func cachePut(ctx context.Context, svcCtx *svc.ServiceContext, key string, ttl time.Duration, v interface{}) {
	if svcCtx.Cache == nil || ttl <= 0 {
		return
	}
	if err := svcCtx.Cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("set cache %s: %v", key, err)
	}
}

func toSeriesPoints(points []series.Point) []types.SeriesPoint {
	out := make([]types.SeriesPoint, len(points))
	for i, p := range points {
		out[i] = types.SeriesPoint{Time: p.Time, Value: p.Value}
	}
	return out
}
