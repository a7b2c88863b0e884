package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"folio-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/portfolio",
				Handler: PortfolioHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/portfolio/series",
				Handler: PortfolioSeriesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/portfolio/pnl24h",
				Handler: Pnl24hHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/assets/:assetId/series",
				Handler: AssetSeriesHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/v1/assets/:assetId",
				Handler: AssetHandler(serverCtx),
			},
		},
	)
}
