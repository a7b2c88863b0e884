package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"folio-api/internal/logic"
	"folio-api/internal/svc"
	"folio-api/internal/types"
)

func Pnl24hHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.Pnl24hRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewPnl24hLogic(r.Context(), svcCtx)
		resp, err := l.Pnl24h(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
