package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ SnapshotsModel = (*defaultSnapshotsModel)(nil)

// SnapshotRecord mirrors the price_snapshots table while normalising
// nullable fields.
type SnapshotRecord struct {
	AssetID   string
	Symbol    string
	PriceUsd  *float64
	Change24h *float64
	Raw       []byte
	TsMs      int64
}

type (
	// SnapshotsModel persists the latest feed snapshot per asset.
	SnapshotsModel interface {
		Upsert(ctx context.Context, rec SnapshotRecord) error
		FindOne(ctx context.Context, assetID string) (*SnapshotRecord, error)
		ListAssetIDs(ctx context.Context) ([]string, error)
	}

	defaultSnapshotsModel struct {
		conn sqlx.SqlConn
	}
)

// NewSnapshotsModel returns a model for the price_snapshots table.
func NewSnapshotsModel(conn sqlx.SqlConn) SnapshotsModel {
	return &defaultSnapshotsModel{conn: conn}
}

func (m *defaultSnapshotsModel) Upsert(ctx context.Context, rec SnapshotRecord) error {
	stmt := `
INSERT INTO public.price_snapshots (asset_id, symbol, price_usd, change_24h, raw, ts_ms, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
ON CONFLICT (asset_id) DO UPDATE SET
    symbol = EXCLUDED.symbol,
    price_usd = EXCLUDED.price_usd,
    change_24h = EXCLUDED.change_24h,
    raw = EXCLUDED.raw,
    ts_ms = EXCLUDED.ts_ms,
    updated_at = NOW();`

	price := sql.NullFloat64{}
	if rec.PriceUsd != nil {
		price = sql.NullFloat64{Float64: *rec.PriceUsd, Valid: true}
	}
	change := sql.NullFloat64{}
	if rec.Change24h != nil {
		change = sql.NullFloat64{Float64: *rec.Change24h, Valid: true}
	}
	if _, err := m.conn.ExecCtx(ctx, stmt, rec.AssetID, rec.Symbol, price, change, string(rec.Raw), rec.TsMs); err != nil {
		return fmt.Errorf("snapshotsModel.Upsert %s: %w", rec.AssetID, err)
	}
	return nil
}

func (m *defaultSnapshotsModel) FindOne(ctx context.Context, assetID string) (*SnapshotRecord, error) {
	query := `
SELECT asset_id, symbol, price_usd, change_24h, raw, ts_ms
FROM public.price_snapshots
WHERE asset_id = $1`

	var row snapshotRow
	if err := m.conn.QueryRowCtx(ctx, &row, query, assetID); err != nil {
		if err == sqlx.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("snapshotsModel.FindOne %s: %w", assetID, err)
	}

	rec := &SnapshotRecord{
		AssetID: row.AssetID,
		Symbol:  row.Symbol,
		Raw:     []byte(row.Raw),
		TsMs:    row.TsMs,
	}
	if row.PriceUsd.Valid {
		value := row.PriceUsd.Float64
		rec.PriceUsd = &value
	}
	if row.Change24h.Valid {
		value := row.Change24h.Float64
		rec.Change24h = &value
	}
	return rec, nil
}

func (m *defaultSnapshotsModel) ListAssetIDs(ctx context.Context) ([]string, error) {
	query := `SELECT asset_id FROM public.price_snapshots ORDER BY asset_id`
	var ids []string
	if err := m.conn.QueryRowsCtx(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("snapshotsModel.ListAssetIDs: %w", err)
	}
	return ids, nil
}

type snapshotRow struct {
	AssetID   string          `db:"asset_id"`
	Symbol    string          `db:"symbol"`
	PriceUsd  sql.NullFloat64 `db:"price_usd"`
	Change24h sql.NullFloat64 `db:"change_24h"`
	Raw       string          `db:"raw"`
	TsMs      int64           `db:"ts_ms"`
}
