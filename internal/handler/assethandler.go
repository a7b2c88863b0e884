package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"folio-api/internal/logic"
	"folio-api/internal/svc"
	"folio-api/internal/types"
)

func AssetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AssetRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewAssetLogic(r.Context(), svcCtx)
		resp, err := l.Asset(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
