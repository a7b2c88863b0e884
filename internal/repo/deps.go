package repo

import (
	"errors"

	"github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "folio-api/internal/cache"
	"folio-api/internal/model"
)

// Dependencies bundles the models and shared infrastructure required by
// repository implementations.
type Dependencies struct {
	DBConn sqlx.SqlConn
	Cache  cache.Cache
	TTL    cachekeys.TTLSet

	SnapshotsModel model.SnapshotsModel
	TransfersModel model.TransfersModel
	CostBasisModel model.CostBasisModel
}

// Set exposes strongly typed repositories to application logic.
type Set struct {
	Transfers TransfersRepo
	CostBasis CostBasisRepo
}

// New constructs the repository set, validating required dependencies.
func New(deps Dependencies) (*Set, error) {
	if deps.DBConn == nil {
		return nil, errors.New("repo: missing DBConn dependency")
	}
	if deps.TransfersModel == nil {
		deps.TransfersModel = model.NewTransfersModel(deps.DBConn)
	}
	if deps.CostBasisModel == nil {
		deps.CostBasisModel = model.NewCostBasisModel(deps.DBConn)
	}

	return &Set{
		Transfers: newTransfersRepo(deps),
		CostBasis: newCostBasisRepo(deps),
	}, nil
}
