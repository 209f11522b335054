// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/jobman/internal/auth"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	RegisterUser(ctx context.Context, input auth.RegisterUserInput) error
	RegisterEmployer(ctx context.Context, input auth.RegisterEmployerInput) error
	LoginUser(ctx context.Context, identifier, password string) (*model.Session, error)
	LoginEmployer(ctx context.Context, identifier, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure  bool
	CookieDomain  string // 空の場合はホストオンリーCookieになる
	SessionMaxAge int    // セッションCookieの有効期間（秒）
}

// AuthHandler は登録・ログイン・セッション関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// registerUserRequest は求職者登録リクエストのボディ。
type registerUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Mobile          string `json:"mobile"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// registerEmployerRequest は求人企業登録リクエストのボディ。
type registerEmployerRequest struct {
	EmployerName    string `json:"employer_name"`
	Organization    string `json:"organization_name"`
	Email           string `json:"email"`
	Mobile          string `json:"mobile"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// loginRequest はログインリクエストのボディ。
// identifierにはメールアドレスまたは携帯番号を指定する。
type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// RegisterUser は求職者アカウント登録を処理する。
// POST /api/register
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	err := h.service.RegisterUser(r.Context(), auth.RegisterUserInput{
		Name:            req.Name,
		Email:           req.Email,
		Mobile:          req.Mobile,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "アカウントを登録しました。ログインしてください。", nil)
}

// RegisterEmployer は求人企業アカウント登録を処理する。
// POST /api/employer/register
func (h *AuthHandler) RegisterEmployer(w http.ResponseWriter, r *http.Request) {
	var req registerEmployerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	err := h.service.RegisterEmployer(r.Context(), auth.RegisterEmployerInput{
		EmployerName:    req.EmployerName,
		Organization:    req.Organization,
		Email:           req.Email,
		Mobile:          req.Mobile,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "企業アカウントを登録しました。ログインしてください。", nil)
}

// LoginUser は求職者ログインを処理する。
// POST /api/login
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginUser)
}

// LoginEmployer は求人企業ログインを処理する。
// POST /api/employer/login
func (h *AuthHandler) LoginEmployer(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.service.LoginEmployer)
}

// login はロール別ログイン処理の共通部分。
// 成功時はセッションCookieを設定し、Identityスナップショットを返す。
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, loginFn func(ctx context.Context, identifier, password string) (*model.Session, error)) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("識別子とパスワードを入力してください"))
		return
	}

	session, err := loginFn(r.Context(), req.Identifier, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookie(w, session.ID)
	writeSuccess(w, http.StatusOK, "ログインしました。", map[string]any{
		"identity": toIdentityResponse(session.Identity),
	})
}

// Logout はセッションを破棄する。冪等であり、常に成功を返す。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookie(w)
	writeSuccess(w, http.StatusOK, "ログアウトしました。", nil)
}

// Session は現在のセッションのIdentityスナップショットを返す。
// GET /api/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"identity": toIdentityResponse(identity),
	})
}

// setSessionCookie はセッションCookieを設定する（HTTP Only）。
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie はセッションCookieを削除する。
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// identityResponse はIdentityスナップショットのAPIレスポンス。
type identityResponse struct {
	ID           string `json:"id"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Mobile       string `json:"mobile"`
	ProfilePic   string `json:"profile_pic,omitempty"`
	Organization string `json:"organization_name,omitempty"`
	LogoFilename string `json:"logo_filename,omitempty"`
}

// toIdentityResponse はIdentityをAPIレスポンス型に変換する。
func toIdentityResponse(identity *model.Identity) identityResponse {
	return identityResponse{
		ID:           identity.ID,
		Role:         string(identity.Role),
		Name:         identity.Name,
		Email:        identity.Email,
		Mobile:       identity.Mobile,
		ProfilePic:   identity.ProfilePic,
		Organization: identity.Organization,
		LogoFilename: identity.LogoFilename,
	}
}
