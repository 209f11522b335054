package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
)

// writeJSON は指定ステータスコードでJSONレスポンスを書き込む。
// ボディにはsuccessフラグとメッセージを必ず含める。
func writeJSON(w http.ResponseWriter, statusCode int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeSuccess は成功レスポンスを書き込む。
// extraのキーはレスポンスのトップレベルにマージされる。
func writeSuccess(w http.ResponseWriter, statusCode int, message string, extra map[string]any) {
	body := map[string]any{
		"success": true,
		"message": message,
	}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, statusCode, body)
}

// writeAPIErrorResponse は統一エラーフォーマットでレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// writeInvalidRequestBody はリクエストボディ解析失敗のレスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しい形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// *model.APIErrorはコードに応じたステータスで返し、それ以外は500として扱う。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeJobNotFound, model.ErrCodeFileNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateAccount, model.ErrCodeAlreadyApplied, model.ErrCodeJobHasApplications:
		return http.StatusConflict
	// アップロード拒否はサイズ超過も含めて入力検証の失敗として扱う
	case model.ErrCodeValidation, model.ErrCodeUploadInvalidType, model.ErrCodeUploadTooLarge:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
