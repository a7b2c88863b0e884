package feedpersist

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/model"
	"folio-api/pkg/feed"
	"folio-api/pkg/series"
)

// Service implements snapshot persistence: the latest validated snapshot per
// asset is upserted into Postgres and mirrored into Redis as a msgpack
// payload for cheap warm starts.
type Service struct {
	sqlConn        sqlx.SqlConn
	snapshotsModel model.SnapshotsModel
	redis          *redis.Redis
	ttl            cachekeys.TTLSet
}

// Config enumerates dependencies required to persist feed data.
type Config struct {
	SQLConn        sqlx.SqlConn
	SnapshotsModel model.SnapshotsModel
	Redis          *redis.Redis
	TTL            cachekeys.TTLSet
}

// NewService wires a feed persistence service. Returns nil when dependencies
// are missing so callers can skip persistence cleanly.
func NewService(cfg Config) *Service {
	if cfg.SQLConn == nil {
		return nil
	}
	snapshotsModel := cfg.SnapshotsModel
	if snapshotsModel == nil {
		snapshotsModel = model.NewSnapshotsModel(cfg.SQLConn)
	}
	return &Service{
		sqlConn:        cfg.SQLConn,
		snapshotsModel: snapshotsModel,
		redis:          cfg.Redis,
		ttl:            cfg.TTL,
	}
}

var _ feed.Persistence = (*Service)(nil)

// RecordSnapshot persists the snapshot to Postgres and Redis.
func (s *Service) RecordSnapshot(ctx context.Context, assetID string, snap *feed.Snapshot) error {
	if s == nil || s.sqlConn == nil || snap == nil || strings.TrimSpace(assetID) == "" {
		return nil
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	rec := model.SnapshotRecord{
		AssetID:  assetID,
		Symbol:   snap.Symbol,
		PriceUsd: snap.PriceUsd(),
		Raw:      raw,
		TsMs:     time.Now().UTC().UnixMilli(),
	}
	if change, ok := series.Approx24hChange(snap); ok {
		rec.Change24h = &change
	}
	if err := s.snapshotsModel.Upsert(ctx, rec); err != nil {
		return err
	}

	s.cacheSnapshot(ctx, assetID, snap)
	return nil
}

func (s *Service) cacheSnapshot(ctx context.Context, assetID string, snap *feed.Snapshot) {
	if s.redis == nil {
		return
	}
	ttl := cachekeys.SnapshotTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	payload, err := msgpack.Marshal(snap)
	if err != nil {
		logx.WithContext(ctx).Errorf("feedpersist: encode snapshot %s: %v", assetID, err)
		return
	}
	key := cachekeys.SnapshotKey(assetID)
	if err := s.redis.SetexCtx(ctx, key, string(payload), int(ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("feedpersist: cache snapshot key=%s err=%v", key, err)
	}
	if _, err := s.redis.SaddCtx(ctx, cachekeys.SnapshotSetKey(), assetID); err != nil {
		logx.WithContext(ctx).Errorf("feedpersist: track snapshot id %s: %v", assetID, err)
	}
}

// CachedSnapshot loads the Redis mirror for one asset, reporting false when
// absent or expired.
func (s *Service) CachedSnapshot(ctx context.Context, assetID string) (*feed.Snapshot, bool) {
	if s == nil || s.redis == nil {
		return nil, false
	}
	key := cachekeys.SnapshotKey(assetID)
	payload, err := s.redis.GetCtx(ctx, key)
	if err != nil || payload == "" {
		return nil, false
	}
	var snap feed.Snapshot
	if err := msgpack.Unmarshal([]byte(payload), &snap); err != nil {
		logx.WithContext(ctx).Errorf("feedpersist: decode snapshot %s: %v", assetID, err)
		return nil, false
	}
	return &snap, true
}

// WarmStore seeds a feed store from the Redis mirror so the service answers
// with last-known prices before the live session delivers fresh ones.
func (s *Service) WarmStore(ctx context.Context, store *feed.Store) int {
	if s == nil || s.redis == nil || store == nil {
		return 0
	}
	ids, err := s.redis.SmembersCtx(ctx, cachekeys.SnapshotSetKey())
	if err != nil {
		logx.WithContext(ctx).Errorf("feedpersist: list snapshot ids: %v", err)
		return 0
	}
	warmed := 0
	for _, id := range ids {
		if snap, ok := s.CachedSnapshot(ctx, id); ok {
			store.SetSnapshot(id, snap)
			warmed++
		}
	}
	return warmed
}
