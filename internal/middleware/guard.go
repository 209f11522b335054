package middleware

import (
	"net/http"

	"github.com/hitoshi/jobman/internal/model"
)

// RequireRole は指定ロールのアクターのみを通すミドルウェアを返す。
// セッションミドルウェアの後に配置する。ロール不一致は403 Forbiddenになり、
// 認証済みであることは漏れるがリソースの存在は漏れない。
func RequireRole(role model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := IdentityFromContext(r.Context())
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if identity.Role != role {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
