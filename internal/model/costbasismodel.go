package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CostBasisModel = (*defaultCostBasisModel)(nil)

// CostBasisRecord mirrors the cost_basis table. AvgCostUsd is nil for
// positions whose basis cannot be established (airdrops, partial history).
type CostBasisRecord struct {
	Owner          string
	AssetID        string
	AvgCostUsd     *float64
	RealizedPnlUsd *float64
}

type (
	// CostBasisModel reads per-position average acquisition cost.
	CostBasisModel interface {
		FindByOwner(ctx context.Context, owner string) ([]CostBasisRecord, error)
		Upsert(ctx context.Context, rec CostBasisRecord) error
	}

	defaultCostBasisModel struct {
		conn sqlx.SqlConn
	}
)

// NewCostBasisModel returns a model for the cost_basis table.
func NewCostBasisModel(conn sqlx.SqlConn) CostBasisModel {
	return &defaultCostBasisModel{conn: conn}
}

func (m *defaultCostBasisModel) FindByOwner(ctx context.Context, owner string) ([]CostBasisRecord, error) {
	query := `
SELECT owner, asset_id, avg_cost_usd, realized_pnl_usd
FROM public.cost_basis
WHERE owner = $1
ORDER BY asset_id`

	var rows []costBasisRow
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, owner); err != nil {
		return nil, fmt.Errorf("costBasisModel.FindByOwner query: %w", err)
	}

	records := make([]CostBasisRecord, 0, len(rows))
	for _, row := range rows {
		rec := CostBasisRecord{Owner: row.Owner, AssetID: row.AssetID}
		if row.AvgCostUsd.Valid {
			value := row.AvgCostUsd.Float64
			rec.AvgCostUsd = &value
		}
		if row.RealizedPnlUsd.Valid {
			value := row.RealizedPnlUsd.Float64
			rec.RealizedPnlUsd = &value
		}
		records = append(records, rec)
	}
	return records, nil
}

func (m *defaultCostBasisModel) Upsert(ctx context.Context, rec CostBasisRecord) error {
	stmt := `
INSERT INTO public.cost_basis (owner, asset_id, avg_cost_usd, realized_pnl_usd, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
ON CONFLICT (owner, asset_id) DO UPDATE SET
    avg_cost_usd = EXCLUDED.avg_cost_usd,
    realized_pnl_usd = EXCLUDED.realized_pnl_usd,
    updated_at = NOW();`

	avgCost := sql.NullFloat64{}
	if rec.AvgCostUsd != nil {
		avgCost = sql.NullFloat64{Float64: *rec.AvgCostUsd, Valid: true}
	}
	realized := sql.NullFloat64{}
	if rec.RealizedPnlUsd != nil {
		realized = sql.NullFloat64{Float64: *rec.RealizedPnlUsd, Valid: true}
	}
	if _, err := m.conn.ExecCtx(ctx, stmt, rec.Owner, rec.AssetID, avgCost, realized); err != nil {
		return fmt.Errorf("costBasisModel.Upsert %s/%s: %w", rec.Owner, rec.AssetID, err)
	}
	return nil
}

type costBasisRow struct {
	Owner          string          `db:"owner"`
	AssetID        string          `db:"asset_id"`
	AvgCostUsd     sql.NullFloat64 `db:"avg_cost_usd"`
	RealizedPnlUsd sql.NullFloat64 `db:"realized_pnl_usd"`
}
