package repo

import (
	"context"

	"folio-api/internal/model"
)

// CostBasisRepo resolves average acquisition cost per position.
type CostBasisRepo interface {
	// ByOwner returns the owner's cost basis keyed by asset id. Assets
	// without a row simply have no entry; callers must treat a missing
	// basis as unknown, not zero.
	ByOwner(ctx context.Context, owner string) (map[string]model.CostBasisRecord, error)
}

type costBasisRepo struct {
	model model.CostBasisModel
}

func newCostBasisRepo(deps Dependencies) CostBasisRepo {
	return &costBasisRepo{model: deps.CostBasisModel}
}

func (r *costBasisRepo) ByOwner(ctx context.Context, owner string) (map[string]model.CostBasisRecord, error) {
	records, err := r.model.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.CostBasisRecord, len(records))
	for _, rec := range records {
		out[rec.AssetID] = rec
	}
	return out, nil
}
