package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/upload"
)

// ResumeResolverInterface は履歴書ダウンロードの企業スコープ検証インターフェース。
type ResumeResolverInterface interface {
	// ResumeForEmployer は自社求人に紐づく履歴書の保存名を検証して返す。
	ResumeForEmployer(ctx context.Context, employerID, storedName string) (string, error)
}

// AssetHandler はアップロード済みファイル配信のHTTPハンドラー。
// すべて認証必須であり、検証済みストレージ名でのみ配信する。
type AssetHandler struct {
	store    *upload.Store
	resolver ResumeResolverInterface
}

// NewAssetHandler はAssetHandlerを生成する。
func NewAssetHandler(store *upload.Store, resolver ResumeResolverInterface) *AssetHandler {
	return &AssetHandler{
		store:    store,
		resolver: resolver,
	}
}

// ServeProfilePicture はプロフィール画像を配信する。
// GET /uploads/profile_pics/{name}
func (h *AssetHandler) ServeProfilePicture(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, upload.ClassProfilePicture)
}

// ServeLogo は企業ロゴを配信する。
// GET /uploads/logos/{name}
func (h *AssetHandler) ServeLogo(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, upload.ClassLogo)
}

// serveImage は画像クラスの共通配信処理。
// ストレージ名の形式検証を通らないリクエストはFILE_NOT_FOUNDになる。
func (h *AssetHandler) serveImage(w http.ResponseWriter, r *http.Request, class upload.Class) {
	name := chi.URLParam(r, "name")

	path, err := h.store.Path(class, name)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFileNotFoundError())
		return
	}
	if !h.store.Exists(class, name) {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFileNotFoundError())
		return
	}

	http.ServeFile(w, r, path)
}

// DownloadResume は履歴書をダウンロード配信する。
// 自社求人への応募に紐づく履歴書のみが対象で、スコープ外はFILE_NOT_FOUNDになる。
// GET /api/admin/resumes/{name}
func (h *AssetHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	name := chi.URLParam(r, "name")
	storedName, err := h.resolver.ResumeForEmployer(r.Context(), identity.ID, name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	path, err := h.store.Path(upload.ClassResume, storedName)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewFileNotFoundError())
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, storedName))
	http.ServeFile(w, r, path)
}
