package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/repository"
)

// --- モック定義 ---

type mockJobRepo struct {
	findByIDFn              func(ctx context.Context, id string) (*model.Job, error)
	findByIDAndEmployerFn   func(ctx context.Context, id, employerID string) (*model.Job, error)
	findForUserFn           func(ctx context.Context, id, userID string) (*model.JobForUser, error)
	listForUserFn           func(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error)
	listByEmployerFn        func(ctx context.Context, employerID, q string, limit, offset int) ([]model.JobForEmployer, error)
	createFn                func(ctx context.Context, job *model.Job) error
	deleteByIDAndEmployerFn func(ctx context.Context, id, employerID string) (bool, error)
}

func (m *mockJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockJobRepo) FindByIDAndEmployer(ctx context.Context, id, employerID string) (*model.Job, error) {
	if m.findByIDAndEmployerFn != nil {
		return m.findByIDAndEmployerFn(ctx, id, employerID)
	}
	return nil, nil
}

func (m *mockJobRepo) FindForUser(ctx context.Context, id, userID string) (*model.JobForUser, error) {
	if m.findForUserFn != nil {
		return m.findForUserFn(ctx, id, userID)
	}
	return nil, nil
}

func (m *mockJobRepo) ListForUser(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID, q, limit, offset)
	}
	return nil, nil
}

func (m *mockJobRepo) ListByEmployer(ctx context.Context, employerID, q string, limit, offset int) ([]model.JobForEmployer, error) {
	if m.listByEmployerFn != nil {
		return m.listByEmployerFn(ctx, employerID, q, limit, offset)
	}
	return nil, nil
}

func (m *mockJobRepo) Create(ctx context.Context, job *model.Job) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockJobRepo) DeleteByIDAndEmployer(ctx context.Context, id, employerID string) (bool, error) {
	if m.deleteByIDAndEmployerFn != nil {
		return m.deleteByIDAndEmployerFn(ctx, id, employerID)
	}
	return false, nil
}

type mockEmployerRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Employer, error)
}

func (m *mockEmployerRepo) FindByID(ctx context.Context, id string) (*model.Employer, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockEmployerRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.Employer, error) {
	return nil, nil
}

func (m *mockEmployerRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	return false, nil
}

func (m *mockEmployerRepo) Create(ctx context.Context, employer *model.Employer) error { return nil }

func (m *mockEmployerRepo) UpdateProfilePic(ctx context.Context, id, filename string) error {
	return nil
}

func (m *mockEmployerRepo) UpdateLogo(ctx context.Context, id, filename string) error { return nil }

// passthroughSanitizer はテスト用の素通しサニタイザー。
type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(rawHTML string) string { return rawHTML }

// markerSanitizer はサニタイズが呼ばれたことを出力で示す。
type markerSanitizer struct{}

func (markerSanitizer) Sanitize(rawHTML string) string { return "[clean]" + rawHTML }

func validCreateInput() CreateInput {
	return CreateInput{
		Title:       "バックエンドエンジニア",
		Experience:  "3年以上",
		Salary:      "6000000",
		Location:    "東京",
		Description: "<p>Goでの開発</p>",
		JobType:     "正社員",
	}
}

// --- 作成 ---

func TestCreate_SnapshotsEmployerCompanyAndLogo(t *testing.T) {
	employerRepo := &mockEmployerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Employer, error) {
			return &model.Employer{
				ID:           "emp-1",
				Organization: "株式会社サンプル",
				LogoFilename: "employer_emp-1_1700000000.png",
			}, nil
		},
	}
	var created *model.Job
	jobRepo := &mockJobRepo{
		createFn: func(ctx context.Context, job *model.Job) error {
			created = job
			return nil
		},
	}
	svc := NewService(jobRepo, employerRepo, markerSanitizer{})

	job, err := svc.Create(context.Background(), "emp-1", validCreateInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created == nil {
		t.Fatal("job was not persisted")
	}
	if job.Company != "株式会社サンプル" {
		t.Errorf("company = %q, want snapshot of organization", job.Company)
	}
	if job.LogoFilename != "employer_emp-1_1700000000.png" {
		t.Errorf("logo = %q, want snapshot of employer logo", job.LogoFilename)
	}
	if job.EmployerID != "emp-1" {
		t.Errorf("employerID = %q", job.EmployerID)
	}
	if job.Description != "[clean]<p>Goでの開発</p>" {
		t.Errorf("description = %q, want sanitized", job.Description)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc := NewService(&mockJobRepo{}, &mockEmployerRepo{}, passthroughSanitizer{})

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
	}{
		{"タイトルが空", func(in *CreateInput) { in.Title = "" }},
		{"給与が数値でない", func(in *CreateInput) { in.Salary = "応相談" }},
		{"締切の形式不正", func(in *CreateInput) { in.Deadline = "2026/12/31" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)

			_, err := svc.Create(context.Background(), "emp-1", input)
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

func TestCreate_ParsesDeadline(t *testing.T) {
	employerRepo := &mockEmployerRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Employer, error) {
			return &model.Employer{ID: "emp-1", Organization: "会社"}, nil
		},
	}
	svc := NewService(&mockJobRepo{}, employerRepo, passthroughSanitizer{})

	input := validCreateInput()
	input.Deadline = "2026-12-31"

	job, err := svc.Create(context.Background(), "emp-1", input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.Deadline == nil {
		t.Fatal("deadline = nil, want parsed date")
	}
	want := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	if !job.Deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", job.Deadline, want)
	}
}

// --- 一覧 ---

// perPage+1件のフェッチで次ページの有無を判定する。
func TestListForUser_HasNext(t *testing.T) {
	jobRepo := &mockJobRepo{
		listForUserFn: func(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error) {
			if limit != 7 {
				t.Errorf("limit = %d, want perPage+1 = 7", limit)
			}
			rows := make([]model.JobForUser, 7)
			return rows, nil
		},
	}
	svc := NewService(jobRepo, &mockEmployerRepo{}, passthroughSanitizer{})

	jobs, hasNext, err := svc.ListForUser(context.Background(), "user-1", 1, "")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(jobs) != 6 {
		t.Errorf("len(jobs) = %d, want 6", len(jobs))
	}
	if !hasNext {
		t.Error("hasNext = false, want true")
	}
}

func TestListForUser_LastPage(t *testing.T) {
	jobRepo := &mockJobRepo{
		listForUserFn: func(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error) {
			if offset != 6 {
				t.Errorf("offset = %d, want 6 for page 2", offset)
			}
			return make([]model.JobForUser, 1), nil
		},
	}
	svc := NewService(jobRepo, &mockEmployerRepo{}, passthroughSanitizer{})

	jobs, hasNext, err := svc.ListForUser(context.Background(), "user-1", 2, "")
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if len(jobs) != 1 || hasNext {
		t.Errorf("got %d jobs, hasNext=%v; want 1 jobs, hasNext=false", len(jobs), hasNext)
	}
}

// --- 取得 ---

func TestGetForUser_NotFound(t *testing.T) {
	svc := NewService(&mockJobRepo{}, &mockEmployerRepo{}, passthroughSanitizer{})

	_, err := svc.GetForUser(context.Background(), "missing", "user-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeJobNotFound {
		t.Errorf("error = %v, want JOB_NOT_FOUND", err)
	}
}

// --- 削除 ---

// 不存在と他社所有はどちらも同一のJOB_NOT_FOUNDになる。
func TestDelete_NotFoundAndForeignCollapse(t *testing.T) {
	jobRepo := &mockJobRepo{
		deleteByIDAndEmployerFn: func(ctx context.Context, id, employerID string) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(jobRepo, &mockEmployerRepo{}, passthroughSanitizer{})

	err := svc.Delete(context.Background(), "emp-1", "job-belonging-to-other")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeJobNotFound {
		t.Errorf("error = %v, want JOB_NOT_FOUND", err)
	}
}

func TestDelete_RestrictedByApplications(t *testing.T) {
	jobRepo := &mockJobRepo{
		deleteByIDAndEmployerFn: func(ctx context.Context, id, employerID string) (bool, error) {
			return false, repository.ErrRestricted
		},
	}
	svc := NewService(jobRepo, &mockEmployerRepo{}, passthroughSanitizer{})

	err := svc.Delete(context.Background(), "emp-1", "job-1")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeJobHasApplications {
		t.Errorf("error = %v, want JOB_HAS_APPLICATIONS", err)
	}
}

func TestDelete_Success(t *testing.T) {
	jobRepo := &mockJobRepo{
		deleteByIDAndEmployerFn: func(ctx context.Context, id, employerID string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(jobRepo, &mockEmployerRepo{}, passthroughSanitizer{})

	if err := svc.Delete(context.Background(), "emp-1", "job-1"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
