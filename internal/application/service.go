// Package application は求人への応募と応募者一覧のドメインロジックを提供する。
package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/pagination"
	"github.com/hitoshi/jobman/internal/repository"
	"github.com/hitoshi/jobman/internal/upload"
)

// MetricsRecorder は応募数のメトリクスを記録する。
type MetricsRecorder interface {
	RecordApplicationSubmitted()
}

// Service は応募管理のサービス層。
// 履歴書ファイルの受付からDB登録までを一貫して扱い、
// 途中で失敗した場合は保存済みファイルを残さない。
type Service struct {
	appRepo   repository.ApplicationRepository
	jobRepo   repository.JobRepository
	sanitizer *upload.Sanitizer
	store     *upload.Store
	metrics   MetricsRecorder
}

// NewService はServiceを生成する。
func NewService(
	appRepo repository.ApplicationRepository,
	jobRepo repository.JobRepository,
	sanitizer *upload.Sanitizer,
	store *upload.Store,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		appRepo:   appRepo,
		jobRepo:   jobRepo,
		sanitizer: sanitizer,
		store:     store,
		metrics:   metrics,
	}
}

// Apply は求人に応募する。
// 1. 求人の存在確認
// 2. 重複応募の事前チェック
// 3. 履歴書の受付・保存
// 4. 応募レコードの登録（ユニーク制約が同時送信の最終防衛線）
func (s *Service) Apply(ctx context.Context, userID, jobID, declaredName string, size int64, body io.Reader) (*model.Application, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}

	applied, err := s.appRepo.ExistsByUserAndJob(ctx, userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}
	if applied {
		return nil, model.NewAlreadyAppliedError()
	}

	storedName, err := s.sanitizer.Accept(upload.ClassResume, model.RoleUser, userID, jobID, declaredName, size)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(upload.ClassResume, storedName, body); err != nil {
		return nil, fmt.Errorf("failed to save resume: %w", err)
	}

	app := &model.Application{
		ID:         uuid.New().String(),
		UserID:     userID,
		JobID:      jobID,
		ResumePath: storedName,
		AppliedAt:  time.Now(),
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		// 登録に失敗した履歴書は残さない
		if delErr := s.store.Delete(upload.ClassResume, storedName); delErr != nil {
			slog.Warn("failed to clean up resume after application failure",
				slog.String("stored_name", storedName),
				slog.String("error", delErr.Error()),
			)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAlreadyAppliedError()
		}
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	s.metrics.RecordApplicationSubmitted()
	slog.Info("application submitted",
		slog.String("user_id", userID),
		slog.String("job_id", jobID),
	)
	return app, nil
}

// ListApplicants は自社求人の応募者一覧を返す。
// 求人が不存在・他社所有のいずれでもJOB_NOT_FOUNDになる。
func (s *Service) ListApplicants(ctx context.Context, employerID, jobID string, page int) (*model.Job, []model.Applicant, bool, error) {
	job, err := s.jobRepo.FindByIDAndEmployer(ctx, jobID, employerID)
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to find job: %w", err)
	}
	if job == nil {
		return nil, nil, false, model.NewJobNotFoundError(jobID)
	}

	perPage := pagination.ApplicantsPerPage
	rows, err := s.appRepo.ListApplicantsByJob(ctx, jobID, perPage+1, pagination.Offset(page, perPage))
	if err != nil {
		return nil, nil, false, fmt.Errorf("failed to list applicants: %w", err)
	}

	applicants, hasNext := pagination.Trim(rows, perPage)
	return job, applicants, hasNext, nil
}

// ResumeForEmployer は自社求人に紐づく履歴書の保存名を検証して返す。
// 企業スコープ外の履歴書はFILE_NOT_FOUNDになる。
func (s *Service) ResumeForEmployer(ctx context.Context, employerID, storedName string) (string, error) {
	name, err := s.appRepo.FindResumeByEmployer(ctx, employerID, storedName)
	if err != nil {
		return "", fmt.Errorf("failed to find resume: %w", err)
	}
	if name == "" {
		return "", model.NewFileNotFoundError()
	}
	if !s.store.Exists(upload.ClassResume, name) {
		return "", model.NewFileNotFoundError()
	}
	return name, nil
}
