// Package account はプロフィール画像・企業ロゴの更新と、
// ライブセッションへのスナップショット反映を提供する。
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/repository"
	"github.com/hitoshi/jobman/internal/upload"
)

// MetricsRecorder はアップロードの受理・拒否を記録する。
type MetricsRecorder interface {
	RecordUploadAccepted(class string)
	RecordUploadRejected(class string, reason string)
}

// Service はアカウント資産（プロフィール画像・ロゴ）の管理を行う。
// ファイルの差し替え・DB更新・セッションスナップショットの更新を一括で扱う。
type Service struct {
	userRepo     repository.UserRepository
	employerRepo repository.EmployerRepository
	sessionRepo  repository.SessionRepository
	sanitizer    *upload.Sanitizer
	store        *upload.Store
	metrics      MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(
	userRepo repository.UserRepository,
	employerRepo repository.EmployerRepository,
	sessionRepo repository.SessionRepository,
	sanitizer *upload.Sanitizer,
	store *upload.Store,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		userRepo:     userRepo,
		employerRepo: employerRepo,
		sessionRepo:  sessionRepo,
		sanitizer:    sanitizer,
		store:        store,
		metrics:      metrics,
	}
}

// UpdateProfilePicture はプロフィール画像を差し替える。
// 更新後のIdentityを返し、同一アクターの全ライブセッションに反映する。
func (s *Service) UpdateProfilePicture(ctx context.Context, identity *model.Identity, declaredName string, size int64, body io.Reader) (*model.Identity, error) {
	storedName, err := s.sanitizer.Accept(upload.ClassProfilePicture, identity.Role, identity.ID, "", declaredName, size)
	if err != nil {
		s.metrics.RecordUploadRejected(upload.ClassProfilePicture.Dir(), rejectReason(err))
		return nil, err
	}
	if err := s.store.Save(upload.ClassProfilePicture, storedName, body); err != nil {
		return nil, fmt.Errorf("failed to save profile picture: %w", err)
	}

	oldName := identity.ProfilePic
	if err := s.updateProfilePic(ctx, identity, storedName); err != nil {
		// DB更新に失敗した画像は残さない
		if delErr := s.store.Delete(upload.ClassProfilePicture, storedName); delErr != nil {
			slog.Warn("failed to clean up profile picture after update failure",
				slog.String("stored_name", storedName),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	// 旧画像の削除は失敗しても処理を止めない
	if oldName != "" {
		s.store.Replace(upload.ClassProfilePicture, oldName)
	}

	updated := *identity
	updated.ProfilePic = storedName
	if err := s.mirrorSessions(ctx, &updated); err != nil {
		return nil, err
	}

	s.metrics.RecordUploadAccepted(upload.ClassProfilePicture.Dir())
	slog.Info("profile picture updated",
		slog.String("actor_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)
	return &updated, nil
}

// RemoveProfilePicture はプロフィール画像を削除し、デフォルト状態に戻す。
// 画像未設定の場合も成功として扱う。
func (s *Service) RemoveProfilePicture(ctx context.Context, identity *model.Identity) (*model.Identity, error) {
	oldName := identity.ProfilePic

	if err := s.updateProfilePic(ctx, identity, ""); err != nil {
		return nil, err
	}
	if oldName != "" {
		s.store.Replace(upload.ClassProfilePicture, oldName)
	}

	updated := *identity
	updated.ProfilePic = ""
	if err := s.mirrorSessions(ctx, &updated); err != nil {
		return nil, err
	}

	slog.Info("profile picture removed",
		slog.String("actor_id", identity.ID),
		slog.String("role", string(identity.Role)),
	)
	return &updated, nil
}

// UpdateLogo は企業ロゴを差し替える。企業アクター専用。
// 以後に作成される求人のスナップショットにも新ロゴが使われる。
func (s *Service) UpdateLogo(ctx context.Context, identity *model.Identity, declaredName string, size int64, body io.Reader) (*model.Identity, error) {
	if identity.Role != model.RoleEmployer {
		return nil, model.NewForbiddenError()
	}

	storedName, err := s.sanitizer.Accept(upload.ClassLogo, identity.Role, identity.ID, "", declaredName, size)
	if err != nil {
		s.metrics.RecordUploadRejected(upload.ClassLogo.Dir(), rejectReason(err))
		return nil, err
	}
	if err := s.store.Save(upload.ClassLogo, storedName, body); err != nil {
		return nil, fmt.Errorf("failed to save logo: %w", err)
	}

	oldName := identity.LogoFilename
	if err := s.employerRepo.UpdateLogo(ctx, identity.ID, storedName); err != nil {
		if delErr := s.store.Delete(upload.ClassLogo, storedName); delErr != nil {
			slog.Warn("failed to clean up logo after update failure",
				slog.String("stored_name", storedName),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("failed to update logo: %w", err)
	}

	if oldName != "" {
		s.store.Replace(upload.ClassLogo, oldName)
	}

	updated := *identity
	updated.LogoFilename = storedName
	if err := s.mirrorSessions(ctx, &updated); err != nil {
		return nil, err
	}

	s.metrics.RecordUploadAccepted(upload.ClassLogo.Dir())
	slog.Info("logo updated", slog.String("employer_id", identity.ID))
	return &updated, nil
}

// updateProfilePic はアクターのロールに応じたリポジトリへ画像名を書き込む。
func (s *Service) updateProfilePic(ctx context.Context, identity *model.Identity, storedName string) error {
	var err error
	switch identity.Role {
	case model.RoleUser:
		err = s.userRepo.UpdateProfilePic(ctx, identity.ID, storedName)
	case model.RoleEmployer:
		err = s.employerRepo.UpdateProfilePic(ctx, identity.ID, storedName)
	default:
		return model.NewForbiddenError()
	}
	if err != nil {
		return fmt.Errorf("failed to update profile picture: %w", err)
	}
	return nil
}

// rejectReason はアップロード拒否エラーからメトリクス用の理由ラベルを取り出す。
func rejectReason(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "unknown"
}

// mirrorSessions は更新後のIdentityを同一アクターの全ライブセッションへ反映する。
func (s *Service) mirrorSessions(ctx context.Context, identity *model.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	if err := s.sessionRepo.UpdateIdentityData(ctx, identity.Role, identity.ID, data); err != nil {
		return fmt.Errorf("failed to mirror sessions: %w", err)
	}
	return nil
}
