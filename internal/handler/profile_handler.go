package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
)

// AccountServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type AccountServiceInterface interface {
	// UpdateProfilePicture はプロフィール画像を差し替え、更新後のIdentityを返す。
	UpdateProfilePicture(ctx context.Context, identity *model.Identity, declaredName string, size int64, body io.Reader) (*model.Identity, error)
	// RemoveProfilePicture はプロフィール画像を削除し、更新後のIdentityを返す。
	RemoveProfilePicture(ctx context.Context, identity *model.Identity) (*model.Identity, error)
	// UpdateLogo は企業ロゴを差し替え、更新後のIdentityを返す。
	UpdateLogo(ctx context.Context, identity *model.Identity, declaredName string, size int64, body io.Reader) (*model.Identity, error)
}

// ProfileHandler はプロフィール画像・企業ロゴのHTTPハンドラー。
type ProfileHandler struct {
	service AccountServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service AccountServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// UpdateProfilePicture はプロフィール画像の差し替えを処理する。
// multipart/form-dataのpictureフィールドを受け取る。
// POST /api/profile/picture, POST /api/admin/profile/picture
func (h *ProfileHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	file, header, err := r.FormFile("picture")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("画像ファイルが添付されていません"))
		return
	}
	defer file.Close()

	updated, err := h.service.UpdateProfilePicture(r.Context(), identity, header.Filename, header.Size, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "プロフィール画像を更新しました。", map[string]any{
		"identity": toIdentityResponse(updated),
	})
}

// RemoveProfilePicture はプロフィール画像の削除を処理する。
// 画像未設定の場合も成功になる。
// POST /api/profile/picture/remove
func (h *ProfileHandler) RemoveProfilePicture(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	updated, err := h.service.RemoveProfilePicture(r.Context(), identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "プロフィール画像を削除しました。", map[string]any{
		"identity": toIdentityResponse(updated),
	})
}

// UpdateLogo は企業ロゴの差し替えを処理する。
// multipart/form-dataのlogoフィールドを受け取る。
// POST /api/admin/logo
func (h *ProfileHandler) UpdateLogo(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("ロゴファイルが添付されていません"))
		return
	}
	defer file.Close()

	updated, err := h.service.UpdateLogo(r.Context(), identity, header.Filename, header.Size, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "企業ロゴを更新しました。", map[string]any{
		"identity": toIdentityResponse(updated),
	})
}
