package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ TransfersModel = (*defaultTransfersModel)(nil)

// TransferRecord mirrors the transfers table. Quantity is signed: received
// positive, sent negative.
type TransferRecord struct {
	ID        string
	Owner     string
	AssetID   string
	Quantity  float64
	Status    string
	Signature *string
	Ts        int64 // unix seconds
}

type (
	// TransfersModel reads the on-chain transfer ledger.
	TransfersModel interface {
		Insert(ctx context.Context, rec TransferRecord) error
		// ConfirmedSince returns confirmed transfers for the owner with
		// timestamps strictly after since, optionally filtered to assetIDs.
		ConfirmedSince(ctx context.Context, owner string, since time.Time, assetIDs []string) ([]TransferRecord, error)
	}

	defaultTransfersModel struct {
		conn sqlx.SqlConn
	}
)

// NewTransfersModel returns a model for the transfers table.
func NewTransfersModel(conn sqlx.SqlConn) TransfersModel {
	return &defaultTransfersModel{conn: conn}
}

func (m *defaultTransfersModel) Insert(ctx context.Context, rec TransferRecord) error {
	stmt := `
INSERT INTO public.transfers (id, owner, asset_id, quantity, status, signature, ts, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (id) DO UPDATE SET
    status = EXCLUDED.status;`

	signature := sql.NullString{}
	if rec.Signature != nil {
		signature = sql.NullString{String: *rec.Signature, Valid: true}
	}
	if _, err := m.conn.ExecCtx(ctx, stmt, rec.ID, rec.Owner, rec.AssetID, rec.Quantity, rec.Status, signature, rec.Ts); err != nil {
		return fmt.Errorf("transfersModel.Insert %s: %w", rec.ID, err)
	}
	return nil
}

func (m *defaultTransfersModel) ConfirmedSince(ctx context.Context, owner string, since time.Time, assetIDs []string) ([]TransferRecord, error) {
	query := `
SELECT id, owner, asset_id, quantity, status, signature, ts
FROM public.transfers
WHERE owner = $1
  AND status = 'confirmed'
  AND ts > $2
%s
ORDER BY ts`

	args := []any{owner, since.Unix()}
	clause := ""
	if len(assetIDs) > 0 {
		clause = "AND asset_id = ANY($3)"
		args = append(args, pq.Array(assetIDs))
	}

	finalQuery := fmt.Sprintf(query, clause)
	var rows []transferRow
	if err := m.conn.QueryRowsCtx(ctx, &rows, finalQuery, args...); err != nil {
		return nil, fmt.Errorf("transfersModel.ConfirmedSince query: %w", err)
	}

	records := make([]TransferRecord, 0, len(rows))
	for _, row := range rows {
		rec := TransferRecord{
			ID:       row.ID,
			Owner:    row.Owner,
			AssetID:  row.AssetID,
			Quantity: row.Quantity,
			Status:   row.Status,
			Ts:       row.Ts,
		}
		if row.Signature.Valid {
			value := row.Signature.String
			rec.Signature = &value
		}
		records = append(records, rec)
	}
	return records, nil
}

type transferRow struct {
	ID        string         `db:"id"`
	Owner     string         `db:"owner"`
	AssetID   string         `db:"asset_id"`
	Quantity  float64        `db:"quantity"`
	Status    string         `db:"status"`
	Signature sql.NullString `db:"signature"`
	Ts        int64          `db:"ts"`
}
