package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn              func(ctx context.Context, id string) (*model.User, error)
	findByIdentifierFn      func(ctx context.Context, identifier string) (*model.User, error)
	existsByEmailOrMobileFn func(ctx context.Context, email, mobile string) (bool, error)
	createFn                func(ctx context.Context, user *model.User) error
	updateProfilePicFn      func(ctx context.Context, id, filename string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	if m.findByIdentifierFn != nil {
		return m.findByIdentifierFn(ctx, identifier)
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	if m.existsByEmailOrMobileFn != nil {
		return m.existsByEmailOrMobileFn(ctx, email, mobile)
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateProfilePic(ctx context.Context, id, filename string) error {
	if m.updateProfilePicFn != nil {
		return m.updateProfilePicFn(ctx, id, filename)
	}
	return nil
}

type mockEmployerRepo struct {
	findByIDFn              func(ctx context.Context, id string) (*model.Employer, error)
	findByIdentifierFn      func(ctx context.Context, identifier string) (*model.Employer, error)
	existsByEmailOrMobileFn func(ctx context.Context, email, mobile string) (bool, error)
	createFn                func(ctx context.Context, employer *model.Employer) error
	updateProfilePicFn      func(ctx context.Context, id, filename string) error
	updateLogoFn            func(ctx context.Context, id, filename string) error
}

func (m *mockEmployerRepo) FindByID(ctx context.Context, id string) (*model.Employer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEmployerRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.Employer, error) {
	if m.findByIdentifierFn != nil {
		return m.findByIdentifierFn(ctx, identifier)
	}
	return nil, nil
}

func (m *mockEmployerRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	if m.existsByEmailOrMobileFn != nil {
		return m.existsByEmailOrMobileFn(ctx, email, mobile)
	}
	return false, nil
}

func (m *mockEmployerRepo) Create(ctx context.Context, employer *model.Employer) error {
	if m.createFn != nil {
		return m.createFn(ctx, employer)
	}
	return nil
}

func (m *mockEmployerRepo) UpdateProfilePic(ctx context.Context, id, filename string) error {
	if m.updateProfilePicFn != nil {
		return m.updateProfilePicFn(ctx, id, filename)
	}
	return nil
}

func (m *mockEmployerRepo) UpdateLogo(ctx context.Context, id, filename string) error {
	if m.updateLogoFn != nil {
		return m.updateLogoFn(ctx, id, filename)
	}
	return nil
}

type mockSessionRepo struct {
	createFn             func(ctx context.Context, session *model.Session) error
	findByIDFn           func(ctx context.Context, id string) (*model.Session, error)
	extendByIDFn         func(ctx context.Context, id string, expiresAt time.Time) error
	deleteByIDFn         func(ctx context.Context, id string) error
	updateIdentityDataFn func(ctx context.Context, role model.Role, actorID string, data []byte) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) ExtendByID(ctx context.Context, id string, expiresAt time.Time) error {
	if m.extendByIDFn != nil {
		return m.extendByIDFn(ctx, id, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) UpdateIdentityData(ctx context.Context, role model.Role, actorID string, data []byte) error {
	if m.updateIdentityDataFn != nil {
		return m.updateIdentityDataFn(ctx, role, actorID, data)
	}
	return nil
}

// mockHasher は決定的なハッシュで代替するテスト用ハッシャー。
type mockHasher struct{}

func (m *mockHasher) Hash(plaintext string) (string, error) {
	return "digest:" + plaintext, nil
}

func (m *mockHasher) Verify(plaintext, digest string) bool {
	return digest == "digest:"+plaintext
}

func newTestService(userRepo *mockUserRepo, employerRepo *mockEmployerRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(userRepo, employerRepo, sessionRepo, &mockHasher{}, nil,
		ServiceConfig{SessionMaxAge: 7 * 24 * time.Hour})
}

// --- 登録 ---

func TestRegisterUser_Success(t *testing.T) {
	var created *model.User
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(userRepo, &mockEmployerRepo{}, &mockSessionRepo{})

	err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Name:            "山田太郎",
		Email:           "taro@example.com",
		Mobile:          "0901234567",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	})
	if err != nil {
		t.Fatalf("RegisterUser() error = %v", err)
	}

	if created == nil {
		t.Fatal("user was not created")
	}
	if created.Password != "digest:Password1" {
		t.Errorf("stored password = %q, want hashed digest", created.Password)
	}
	if created.ID == "" {
		t.Error("user ID is empty")
	}
}

func TestRegisterUser_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, &mockEmployerRepo{}, &mockSessionRepo{})

	base := RegisterUserInput{
		Name:            "山田太郎",
		Email:           "taro@example.com",
		Mobile:          "0901234567",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	}

	tests := []struct {
		name   string
		mutate func(in *RegisterUserInput)
	}{
		{"名前が空", func(in *RegisterUserInput) { in.Name = "" }},
		{"パスワード不一致", func(in *RegisterUserInput) { in.ConfirmPassword = "Different1" }},
		{"メール形式不正", func(in *RegisterUserInput) { in.Email = "not-an-email" }},
		{"携帯番号不正", func(in *RegisterUserInput) { in.Mobile = "123" }},
		{"パスワードポリシー違反", func(in *RegisterUserInput) {
			in.Password = "weak"
			in.ConfirmPassword = "weak"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := base
			tt.mutate(&input)

			err := svc.RegisterUser(context.Background(), input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeValidation {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeValidation)
			}
		})
	}
}

func TestRegisterUser_DuplicateAccount(t *testing.T) {
	userRepo := &mockUserRepo{
		existsByEmailOrMobileFn: func(ctx context.Context, email, mobile string) (bool, error) {
			return true, nil
		},
	}
	svc := newTestService(userRepo, &mockEmployerRepo{}, &mockSessionRepo{})

	err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Name:            "山田太郎",
		Email:           "taro@example.com",
		Mobile:          "0901234567",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateAccount {
		t.Errorf("error = %v, want DUPLICATE_ACCOUNT", err)
	}
}

// 事前チェックをすり抜けた同時登録は一意制約違反としてDUPLICATE_ACCOUNTに変換される。
func TestRegisterUser_ConstraintRace(t *testing.T) {
	userRepo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			return repository.ErrDuplicate
		},
	}
	svc := newTestService(userRepo, &mockEmployerRepo{}, &mockSessionRepo{})

	err := svc.RegisterUser(context.Background(), RegisterUserInput{
		Name:            "山田太郎",
		Email:           "taro@example.com",
		Mobile:          "0901234567",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeDuplicateAccount {
		t.Errorf("error = %v, want DUPLICATE_ACCOUNT", err)
	}
}

func TestRegisterEmployer_Success(t *testing.T) {
	var created *model.Employer
	employerRepo := &mockEmployerRepo{
		createFn: func(ctx context.Context, employer *model.Employer) error {
			created = employer
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, employerRepo, &mockSessionRepo{})

	err := svc.RegisterEmployer(context.Background(), RegisterEmployerInput{
		EmployerName:    "採用担当",
		Organization:    "株式会社サンプル",
		Email:           "hr@example.co.jp",
		Mobile:          "0801234567",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	})
	if err != nil {
		t.Fatalf("RegisterEmployer() error = %v", err)
	}
	if created == nil {
		t.Fatal("employer was not created")
	}
	if created.Organization != "株式会社サンプル" {
		t.Errorf("organization = %q", created.Organization)
	}
}

// 企業登録では携帯番号は任意。未入力でも検証を通過し、
// 重複チェックと作成には空文字列のまま渡される（NULL化は永続化層の責務）。
func TestRegisterEmployer_MobileOptional(t *testing.T) {
	var checkedMobile string
	var created *model.Employer
	employerRepo := &mockEmployerRepo{
		existsByEmailOrMobileFn: func(ctx context.Context, email, mobile string) (bool, error) {
			checkedMobile = mobile
			return false, nil
		},
		createFn: func(ctx context.Context, employer *model.Employer) error {
			created = employer
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, employerRepo, &mockSessionRepo{})

	err := svc.RegisterEmployer(context.Background(), RegisterEmployerInput{
		EmployerName:    "採用担当",
		Organization:    "株式会社サンプル",
		Email:           "hr@example.co.jp",
		Password:        "Password1",
		ConfirmPassword: "Password1",
	})
	if err != nil {
		t.Fatalf("RegisterEmployer() error = %v", err)
	}
	if checkedMobile != "" {
		t.Errorf("duplicate check mobile = %q, want empty", checkedMobile)
	}
	if created == nil || created.Mobile != "" {
		t.Errorf("created = %+v, want empty mobile", created)
	}
}

// --- ログイン ---

func TestLoginUser_Success(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIdentifierFn: func(ctx context.Context, identifier string) (*model.User, error) {
			return &model.User{
				ID:       "user-1",
				Name:     "山田太郎",
				Email:    "taro@example.com",
				Mobile:   "0901234567",
				Password: "digest:Password1",
			}, nil
		},
	}
	var savedSession *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			savedSession = session
			return nil
		},
	}
	svc := newTestService(userRepo, &mockEmployerRepo{}, sessionRepo)

	session, err := svc.LoginUser(context.Background(), "taro@example.com", "Password1")
	if err != nil {
		t.Fatalf("LoginUser() error = %v", err)
	}

	if session.Identity == nil || session.Identity.Role != model.RoleUser {
		t.Errorf("identity = %+v, want user role", session.Identity)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	if savedSession == nil || savedSession.ID != session.ID {
		t.Error("session was not persisted")
	}
	if remaining := time.Until(session.ExpiresAt); remaining < 6*24*time.Hour {
		t.Errorf("expires too soon: %v", remaining)
	}
}

// アカウント不存在とパスワード不一致は同一のINVALID_CREDENTIALSを返す。
func TestLoginUser_GenericInvalidCredentials(t *testing.T) {
	tests := []struct {
		name   string
		findFn func(ctx context.Context, identifier string) (*model.User, error)
	}{
		{
			"アカウント不存在",
			func(ctx context.Context, identifier string) (*model.User, error) {
				return nil, nil
			},
		},
		{
			"パスワード不一致",
			func(ctx context.Context, identifier string) (*model.User, error) {
				return &model.User{ID: "user-1", Password: "digest:Other1234"}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := &mockUserRepo{findByIdentifierFn: tt.findFn}
			svc := newTestService(userRepo, &mockEmployerRepo{}, &mockSessionRepo{})

			_, err := svc.LoginUser(context.Background(), "taro@example.com", "Password1")
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeInvalidCredentials {
				t.Errorf("code = %q, want %q", apiErr.Code, model.ErrCodeInvalidCredentials)
			}
		})
	}
}

func TestLoginEmployer_IdentityCarriesOrganization(t *testing.T) {
	employerRepo := &mockEmployerRepo{
		findByIdentifierFn: func(ctx context.Context, identifier string) (*model.Employer, error) {
			return &model.Employer{
				ID:           "emp-1",
				EmployerName: "採用担当",
				Organization: "株式会社サンプル",
				Email:        "hr@example.co.jp",
				Password:     "digest:Password1",
				LogoFilename: "employer_emp-1_1700000000.png",
			}, nil
		},
	}
	svc := newTestService(&mockUserRepo{}, employerRepo, &mockSessionRepo{})

	session, err := svc.LoginEmployer(context.Background(), "hr@example.co.jp", "Password1")
	if err != nil {
		t.Fatalf("LoginEmployer() error = %v", err)
	}

	if session.Identity.Role != model.RoleEmployer {
		t.Errorf("role = %q, want employer", session.Identity.Role)
	}
	if session.Identity.Organization != "株式会社サンプル" {
		t.Errorf("organization = %q", session.Identity.Organization)
	}
}

// --- ログアウト ---

func TestLogout_Idempotent(t *testing.T) {
	var deleteCalls int
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalls++
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, &mockEmployerRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	// 既に削除済みでもエラーにならない（リポジトリ側が冪等）
	if err := svc.Logout(context.Background(), "session-1"); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
	if deleteCalls != 2 {
		t.Errorf("delete calls = %d, want 2", deleteCalls)
	}
}

func TestLogout_EmptySessionIDIsNoOp(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Fatal("DeleteByID should not be called")
			return nil
		},
	}
	svc := newTestService(&mockUserRepo{}, &mockEmployerRepo{}, sessionRepo)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Errorf("Logout(\"\") error = %v, want nil", err)
	}
}
