// Package auth はアカウント登録、ログイン認証、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/repository"
)

// PasswordHasher はパスワードのハッシュ化と検証のインターフェース。
// credential.Hasherの部分集合として定義する。
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// MetricsRecorder は認証イベントのメトリクス記録インターフェース。
// nilの場合は記録しない。
type MetricsRecorder interface {
	RecordRegistration(role string)
	RecordLogin(role string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo     repository.UserRepository
	employerRepo repository.EmployerRepository
	sessionRepo  repository.SessionRepository
	hasher       PasswordHasher
	metrics      MetricsRecorder
	config       ServiceConfig
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	employerRepo repository.EmployerRepository,
	sessionRepo repository.SessionRepository,
	hasher PasswordHasher,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:     userRepo,
		employerRepo: employerRepo,
		sessionRepo:  sessionRepo,
		hasher:       hasher,
		metrics:      metrics,
		config:       config,
	}
}

// RegisterUserInput は求職者登録の入力。
type RegisterUserInput struct {
	Name            string
	Email           string
	Mobile          string
	Password        string
	ConfirmPassword string
}

// RegisterUser は求職者アカウントを登録する。
// 入力検証の失敗はVALIDATION_ERROR、メール・携帯番号の重複はDUPLICATE_ACCOUNTを返す。
func (s *Service) RegisterUser(ctx context.Context, input RegisterUserInput) error {
	if input.Name == "" || input.Email == "" || input.Mobile == "" ||
		input.Password == "" || input.ConfirmPassword == "" {
		return model.NewValidationError("必須項目が入力されていません")
	}
	if input.Password != input.ConfirmPassword {
		return model.NewValidationError("パスワードが一致しません")
	}
	if !validEmail(input.Email) {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	if !validMobile(input.Mobile) {
		return model.NewValidationError("携帯番号は10桁の数字で入力してください")
	}
	if !validPassword(input.Password) {
		return model.NewValidationError("パスワードは8文字以上で、大文字・小文字・数字を含めてください")
	}

	exists, err := s.userRepo.ExistsByEmailOrMobile(ctx, input.Email, input.Mobile)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return model.NewDuplicateAccountError()
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Email:     input.Email,
		Mobile:    input.Mobile,
		Password:  digest,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 同時登録で事前チェックをすり抜けた場合は一意制約が検出する
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewDuplicateAccountError()
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration(string(model.RoleUser))
	}
	slog.Info("user registered", slog.String("user_id", user.ID))
	return nil
}

// RegisterEmployerInput は求人企業登録の入力。
type RegisterEmployerInput struct {
	EmployerName    string
	Organization    string
	Email           string // 組織メールアドレス
	Mobile          string
	Password        string
	ConfirmPassword string
}

// RegisterEmployer は求人企業アカウントを登録する。
func (s *Service) RegisterEmployer(ctx context.Context, input RegisterEmployerInput) error {
	if input.EmployerName == "" || input.Organization == "" || input.Email == "" ||
		input.Password == "" || input.ConfirmPassword == "" {
		return model.NewValidationError("必須項目が入力されていません")
	}
	if input.Password != input.ConfirmPassword {
		return model.NewValidationError("パスワードが一致しません")
	}
	if !validEmail(input.Email) {
		return model.NewValidationError("組織メールアドレスの形式が正しくありません")
	}
	if input.Mobile != "" && !validMobile(input.Mobile) {
		return model.NewValidationError("携帯番号は10桁の数字で入力してください")
	}
	if !validPassword(input.Password) {
		return model.NewValidationError("パスワードは8文字以上で、大文字・小文字・数字を含めてください")
	}

	exists, err := s.employerRepo.ExistsByEmailOrMobile(ctx, input.Email, input.Mobile)
	if err != nil {
		return fmt.Errorf("failed to check existing employer: %w", err)
	}
	if exists {
		return model.NewDuplicateAccountError()
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	employer := &model.Employer{
		ID:           uuid.New().String(),
		EmployerName: input.EmployerName,
		Organization: input.Organization,
		Email:        input.Email,
		Mobile:       input.Mobile,
		Password:     digest,
		CreatedAt:    time.Now(),
	}

	if err := s.employerRepo.Create(ctx, employer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewDuplicateAccountError()
		}
		return fmt.Errorf("failed to create employer: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration(string(model.RoleEmployer))
	}
	slog.Info("employer registered", slog.String("employer_id", employer.ID))
	return nil
}

// dummyDigest はアカウント不存在時のタイミング差を抑えるための比較対象。
// "unknown account"と"wrong password"は所要時間の面でも外向きの結果の面でも
// 区別できてはならない。
const dummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginUser は求職者のログインを処理し、セッションを発行する。
// アカウント不存在・パスワード不一致のいずれもINVALID_CREDENTIALSを返す。
func (s *Service) LoginUser(ctx context.Context, identifier, password string) (*model.Session, error) {
	if identifier == "" || password == "" {
		return nil, model.NewValidationError("識別子とパスワードを入力してください")
	}

	user, err := s.userRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		s.hasher.Verify(password, dummyDigest)
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.startSession(ctx, user.Identity())
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLogin(string(model.RoleUser))
	}
	slog.Info("user logged in", slog.String("user_id", user.ID))
	return session, nil
}

// LoginEmployer は求人企業のログインを処理し、セッションを発行する。
func (s *Service) LoginEmployer(ctx context.Context, identifier, password string) (*model.Session, error) {
	if identifier == "" || password == "" {
		return nil, model.NewValidationError("識別子とパスワードを入力してください")
	}

	employer, err := s.employerRepo.FindByIdentifier(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to find employer: %w", err)
	}
	if employer == nil {
		s.hasher.Verify(password, dummyDigest)
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(password, employer.Password) {
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.startSession(ctx, employer.Identity())
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLogin(string(model.RoleEmployer))
	}
	slog.Info("employer logged in", slog.String("employer_id", employer.ID))
	return session, nil
}

// Logout はセッションを破棄する。冪等であり、
// 既に終了したセッションのログアウトはno-opになる。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("logged out", slog.String("session_id", sessionID))
	return nil
}

// startSession はIdentityに新しいセッションを紐付けて永続化する。
func (s *Service) startSession(ctx context.Context, identity *model.Identity) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		Identity:  identity,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
