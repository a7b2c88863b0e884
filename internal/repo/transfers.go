package repo

import (
	"context"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/cache"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/model"
	"folio-api/pkg/pnl"
)

// TransfersRepo reads the transfer ledger for attribution.
type TransfersRepo interface {
	// ConfirmedInWindow returns the owner's confirmed transfers with
	// timestamps strictly inside (since, now], mapped for the attribution
	// engine.
	ConfirmedInWindow(ctx context.Context, owner string, since time.Time, assetIDs []string) ([]pnl.Transfer, error)
}

type transfersRepo struct {
	model model.TransfersModel
	cache cache.Cache
	ttl   cachekeys.TTLSet
}

func newTransfersRepo(deps Dependencies) TransfersRepo {
	return &transfersRepo{
		model: deps.TransfersModel,
		cache: deps.Cache,
		ttl:   deps.TTL,
	}
}

func (r *transfersRepo) ConfirmedInWindow(ctx context.Context, owner string, since time.Time, assetIDs []string) ([]pnl.Transfer, error) {
	// Cache only the unfiltered window; asset-scoped queries are rare and
	// cheap enough to hit the database.
	key := ""
	if len(assetIDs) == 0 {
		key = cachekeys.TransfersRecentKey(owner)
		var cached []pnl.Transfer
		if ok := r.getCache(ctx, key, &cached); ok {
			return cached, nil
		}
	}

	records, err := r.model.ConfirmedSince(ctx, owner, since, assetIDs)
	if err != nil {
		return nil, err
	}

	transfers := make([]pnl.Transfer, 0, len(records))
	for _, rec := range records {
		transfers = append(transfers, pnl.Transfer{
			Timestamp: rec.Ts,
			AssetID:   rec.AssetID,
			Quantity:  rec.Quantity,
			Status:    rec.Status,
		})
	}

	if key != "" {
		r.setCache(ctx, key, cachekeys.TransfersTTL(r.ttl), transfers)
	}
	return transfers, nil
}

func (r *transfersRepo) getCache(ctx context.Context, key string, v interface{}) bool {
	if r.cache == nil {
		return false
	}
	if err := r.cache.GetCtx(ctx, key, v); err != nil {
		if !r.cache.IsNotFound(err) {
			logx.WithContext(ctx).Errorf("transfersRepo: get cache %s: %v", key, err)
		}
		return false
	}
	return true
}

func (r *transfersRepo) setCache(ctx context.Context, key string, ttl time.Duration, v interface{}) {
	if r.cache == nil || ttl <= 0 {
		return
	}
	if err := r.cache.SetWithExpireCtx(ctx, key, v, ttl); err != nil {
		logx.WithContext(ctx).Errorf("transfersRepo: set cache %s: %v", key, err)
	}
}
