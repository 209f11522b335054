package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/jobman/internal/auth"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
)

type mockAuthService struct {
	registerUserFn     func(ctx context.Context, input auth.RegisterUserInput) error
	registerEmployerFn func(ctx context.Context, input auth.RegisterEmployerInput) error
	loginUserFn        func(ctx context.Context, identifier, password string) (*model.Session, error)
	loginEmployerFn    func(ctx context.Context, identifier, password string) (*model.Session, error)
	logoutFn           func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) RegisterUser(ctx context.Context, input auth.RegisterUserInput) error {
	if m.registerUserFn != nil {
		return m.registerUserFn(ctx, input)
	}
	return nil
}

func (m *mockAuthService) RegisterEmployer(ctx context.Context, input auth.RegisterEmployerInput) error {
	if m.registerEmployerFn != nil {
		return m.registerEmployerFn(ctx, input)
	}
	return nil
}

func (m *mockAuthService) LoginUser(ctx context.Context, identifier, password string) (*model.Session, error) {
	if m.loginUserFn != nil {
		return m.loginUserFn(ctx, identifier, password)
	}
	return nil, nil
}

func (m *mockAuthService) LoginEmployer(ctx context.Context, identifier, password string) (*model.Session, error) {
	if m.loginEmployerFn != nil {
		return m.loginEmployerFn(ctx, identifier, password)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func newAuthHandler(service *mockAuthService) *AuthHandler {
	return NewAuthHandler(service, AuthHandlerConfig{
		CookieSecure:  false,
		SessionMaxAge: 7 * 24 * 60 * 60,
	})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	return body
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterUser(t *testing.T) {
	var got auth.RegisterUserInput
	service := &mockAuthService{
		registerUserFn: func(ctx context.Context, input auth.RegisterUserInput) error {
			got = input
			return nil
		},
	}
	h := newAuthHandler(service)

	reqBody := `{"name":"山田太郎","email":"taro@example.com","mobile":"0901234567","password":"Secret123!","confirm_password":"Secret123!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	h.RegisterUser(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if got.Email != "taro@example.com" || got.Password != "Secret123!" {
		t.Errorf("service input = %+v", got)
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
}

func TestRegisterUser_InvalidBody(t *testing.T) {
	h := newAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.RegisterUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterUser_Duplicate(t *testing.T) {
	service := &mockAuthService{
		registerUserFn: func(ctx context.Context, input auth.RegisterUserInput) error {
			return model.NewDuplicateAccountError()
		},
	}
	h := newAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	h.RegisterUser(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["code"] != model.ErrCodeDuplicateAccount {
		t.Errorf("code = %v, want DUPLICATE_ACCOUNT", body["code"])
	}
}

func TestLoginUser_SetsCookieAndReturnsIdentity(t *testing.T) {
	service := &mockAuthService{
		loginUserFn: func(ctx context.Context, identifier, password string) (*model.Session, error) {
			return &model.Session{
				ID: "tok-abc",
				Identity: &model.Identity{
					ID:    "user-1",
					Role:  model.RoleUser,
					Name:  "山田太郎",
					Email: "taro@example.com",
				},
				ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	h := newAuthHandler(service)

	reqBody := `{"identifier":"taro@example.com","password":"Secret123!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	h.LoginUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Value != "tok-abc" || !cookie.HttpOnly || cookie.Path != "/" {
		t.Errorf("cookie = %+v, want HttpOnly path=/ value=tok-abc", cookie)
	}

	body := decodeBody(t, rec)
	identity, ok := body["identity"].(map[string]any)
	if !ok {
		t.Fatalf("identity missing in body: %v", body)
	}
	if identity["id"] != "user-1" || identity["role"] != "user" {
		t.Errorf("identity = %v", identity)
	}
}

func TestLoginUser_InvalidCredentials(t *testing.T) {
	service := &mockAuthService{
		loginUserFn: func(ctx context.Context, identifier, password string) (*model.Session, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := newAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"identifier":"x@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	h.LoginUser(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if sessionCookie(rec) != nil {
		t.Error("cookie must not be set on failed login")
	}
	body := decodeBody(t, rec)
	if body["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %v, want INVALID_CREDENTIALS", body["code"])
	}
}

func TestLoginUser_MissingFields(t *testing.T) {
	called := false
	service := &mockAuthService{
		loginUserFn: func(ctx context.Context, identifier, password string) (*model.Session, error) {
			called = true
			return nil, nil
		},
	}
	h := newAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"identifier":"","password":""}`))
	rec := httptest.NewRecorder()
	h.LoginUser(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if called {
		t.Error("service must not be called for empty credentials")
	}
}

func TestLoginEmployer_ReturnsOrganization(t *testing.T) {
	service := &mockAuthService{
		loginEmployerFn: func(ctx context.Context, identifier, password string) (*model.Session, error) {
			return &model.Session{
				ID: "tok-emp",
				Identity: &model.Identity{
					ID:           "emp-1",
					Role:         model.RoleEmployer,
					Name:         "採用担当",
					Organization: "株式会社サンプル",
				},
			}, nil
		},
	}
	h := newAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/employer/login", strings.NewReader(`{"identifier":"hr@example.co.jp","password":"Secret123!"}`))
	rec := httptest.NewRecorder()
	h.LoginEmployer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	identity := body["identity"].(map[string]any)
	if identity["organization_name"] != "株式会社サンプル" {
		t.Errorf("organization = %v", identity["organization_name"])
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	var loggedOut string
	service := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := newAuthHandler(service)

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok-abc"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if loggedOut != "tok-abc" {
		t.Errorf("logged out session = %q, want tok-abc", loggedOut)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 || cookie.Value != "" {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}

// ログアウトは冪等: Cookieがなくても、破棄に失敗しても200を返す。
func TestLogout_Idempotent(t *testing.T) {
	tests := []struct {
		name    string
		cookie  bool
		service *mockAuthService
	}{
		{name: "no cookie", cookie: false, service: &mockAuthService{}},
		{
			name:   "service failure",
			cookie: true,
			service: &mockAuthService{
				logoutFn: func(ctx context.Context, sessionID string) error {
					return context.DeadlineExceeded
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newAuthHandler(tt.service)

			req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
			if tt.cookie {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok"})
			}
			rec := httptest.NewRecorder()
			h.Logout(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
			if cookie := sessionCookie(rec); cookie == nil || cookie.MaxAge != -1 {
				t.Error("cookie must be cleared regardless of outcome")
			}
		})
	}
}

func TestSession_ReturnsIdentitySnapshot(t *testing.T) {
	h := newAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	identity := &model.Identity{ID: "user-1", Role: model.RoleUser, Name: "山田太郎", ProfilePic: "user1_1700000000.png"}
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))

	rec := httptest.NewRecorder()
	h.Session(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	got := body["identity"].(map[string]any)
	if got["id"] != "user-1" || got["profile_pic"] != "user1_1700000000.png" {
		t.Errorf("identity = %v", got)
	}
}

func TestSession_NoIdentity(t *testing.T) {
	h := newAuthHandler(&mockAuthService{})

	rec := httptest.NewRecorder()
	h.Session(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// COOKIE_DOMAINが設定されている場合、セッションCookieの発行・削除の両方に
// Domain属性が付くことを確認する。
func TestSessionCookie_Domain(t *testing.T) {
	service := &mockAuthService{
		loginUserFn: func(ctx context.Context, identifier, password string) (*model.Session, error) {
			return &model.Session{
				ID:       "tok-abc",
				Identity: &model.Identity{ID: "user-1", Role: model.RoleUser},
			}, nil
		},
	}
	h := NewAuthHandler(service, AuthHandlerConfig{
		CookieDomain:  "jobman.example.com",
		SessionMaxAge: 7 * 24 * 60 * 60,
	})

	reqBody := `{"identifier":"taro@example.com","password":"Secret123!"}`
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	h.LoginUser(rec, req)

	cookie := sessionCookie(rec)
	if cookie == nil {
		t.Fatal("session cookie not set")
	}
	if cookie.Domain != "jobman.example.com" {
		t.Errorf("cookie domain = %q, want jobman.example.com", cookie.Domain)
	}

	logoutReq := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	logoutReq.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "tok-abc"})
	rec = httptest.NewRecorder()
	h.Logout(rec, logoutReq)

	cleared := sessionCookie(rec)
	if cleared == nil || cleared.Domain != "jobman.example.com" {
		t.Error("cleared cookie must carry the same domain")
	}
}
