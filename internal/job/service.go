// Package job は求人の作成・一覧・削除と所有権チェックのドメインロジックを提供する。
package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/pagination"
	"github.com/hitoshi/jobman/internal/repository"
	"github.com/hitoshi/jobman/internal/security"
)

// Service は求人管理のサービス層。
// 企業向け操作は必ずオーナーチェックを通し、不存在とオーナー不一致を
// 同一のJOB_NOT_FOUNDに集約する。
type Service struct {
	jobRepo      repository.JobRepository
	employerRepo repository.EmployerRepository
	sanitizer    security.DescriptionSanitizer
}

// NewService はServiceを生成する。
func NewService(
	jobRepo repository.JobRepository,
	employerRepo repository.EmployerRepository,
	sanitizer security.DescriptionSanitizer,
) *Service {
	return &Service{
		jobRepo:      jobRepo,
		employerRepo: employerRepo,
		sanitizer:    sanitizer,
	}
}

// ListForUser は求職者向けの求人一覧を返す。
// qが非空の場合はtitle/company/locationの部分一致で絞り込む（全求人が対象）。
func (s *Service) ListForUser(ctx context.Context, userID string, page int, q string) ([]model.JobForUser, bool, error) {
	perPage := pagination.JobsPerPage
	rows, err := s.jobRepo.ListForUser(ctx, userID, q, perPage+1, pagination.Offset(page, perPage))
	if err != nil {
		return nil, false, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs, hasNext := pagination.Trim(rows, perPage)
	return jobs, hasNext, nil
}

// GetForUser は求人詳細を応募済みフラグ付きで返す。
func (s *Service) GetForUser(ctx context.Context, jobID, userID string) (*model.JobForUser, error) {
	result, err := s.jobRepo.FindForUser(ctx, jobID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	if result == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	return result, nil
}

// CreateInput は求人作成の入力。
type CreateInput struct {
	Title       string
	Experience  string
	Salary      string
	Location    string
	Description string
	JobType     string
	Deadline    string // 空またはYYYY-MM-DD
}

// Create は求人を作成する。
// 会社名とロゴは作成時点の企業レコードからスナップショットとして写し取る。
func (s *Service) Create(ctx context.Context, employerID string, input CreateInput) (*model.Job, error) {
	if input.Title == "" || input.Experience == "" || input.Salary == "" ||
		input.Location == "" || input.JobType == "" {
		return nil, model.NewValidationError("必須項目が入力されていません")
	}
	if _, err := strconv.ParseFloat(input.Salary, 64); err != nil {
		return nil, model.NewValidationError("給与は数値で入力してください")
	}

	var deadline *time.Time
	if input.Deadline != "" {
		d, err := time.Parse("2006-01-02", input.Deadline)
		if err != nil {
			return nil, model.NewValidationError("締切はYYYY-MM-DD形式で入力してください")
		}
		deadline = &d
	}

	employer, err := s.employerRepo.FindByID(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find employer: %w", err)
	}
	if employer == nil {
		return nil, model.NewUnauthorizedError()
	}

	job := &model.Job{
		ID:           uuid.New().String(),
		EmployerID:   employerID,
		Title:        input.Title,
		Company:      employer.Organization,
		Experience:   input.Experience,
		Salary:       input.Salary,
		Location:     input.Location,
		Description:  s.sanitizer.Sanitize(input.Description),
		JobType:      input.JobType,
		Deadline:     deadline,
		LogoFilename: employer.LogoFilename,
		CreatedAt:    time.Now(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	slog.Info("job posted",
		slog.String("job_id", job.ID),
		slog.String("employer_id", employerID),
	)
	return job, nil
}

// ListByEmployer はオーナー企業の求人一覧を応募数付きで返す。
// qの絞り込みは自社の求人のみが対象になる。
func (s *Service) ListByEmployer(ctx context.Context, employerID string, page int, q string) ([]model.JobForEmployer, bool, error) {
	perPage := pagination.JobsPerPage
	rows, err := s.jobRepo.ListByEmployer(ctx, employerID, q, perPage+1, pagination.Offset(page, perPage))
	if err != nil {
		return nil, false, fmt.Errorf("failed to list employer jobs: %w", err)
	}

	jobs, hasNext := pagination.Trim(rows, perPage)
	return jobs, hasNext, nil
}

// Delete は求人を削除する。オーナーのみが削除でき、
// 応募が存在する場合はJOB_HAS_APPLICATIONSで拒否される。
// 不存在とオーナー不一致は同一のJOB_NOT_FOUNDになる。
func (s *Service) Delete(ctx context.Context, employerID, jobID string) error {
	deleted, err := s.jobRepo.DeleteByIDAndEmployer(ctx, jobID, employerID)
	if err != nil {
		if errors.Is(err, repository.ErrRestricted) {
			return model.NewJobHasApplicationsError()
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if !deleted {
		return model.NewJobNotFoundError(jobID)
	}

	slog.Info("job deleted",
		slog.String("job_id", jobID),
		slog.String("employer_id", employerID),
	)
	return nil
}

// Owned はオーナーチェック付きで求人を取得する。
// 不存在とオーナー不一致のいずれもJOB_NOT_FOUNDを返す。
func (s *Service) Owned(ctx context.Context, employerID, jobID string) (*model.Job, error) {
	job, err := s.jobRepo.FindByIDAndEmployer(ctx, jobID, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find owned job: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	return job, nil
}
