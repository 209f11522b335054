package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobman/internal/job"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/pagination"
)

// AdminJobServiceInterface は企業管理ハンドラーが必要とする求人サービスインターフェース。
type AdminJobServiceInterface interface {
	// Create は求人を作成する。会社名とロゴは企業レコードからスナップショットされる。
	Create(ctx context.Context, employerID string, input job.CreateInput) (*model.Job, error)
	// ListByEmployer はオーナー企業の求人一覧を応募数付きで返す。
	ListByEmployer(ctx context.Context, employerID string, page int, q string) ([]model.JobForEmployer, bool, error)
	// Delete はオーナーチェック付きで求人を削除する。
	Delete(ctx context.Context, employerID, jobID string) error
}

// ApplicantServiceInterface は応募者一覧ハンドラーが必要とするサービスインターフェース。
type ApplicantServiceInterface interface {
	// ListApplicants はオーナーチェック付きで応募者一覧を返す。
	ListApplicants(ctx context.Context, employerID, jobID string, page int) (*model.Job, []model.Applicant, bool, error)
}

// AdminHandler は企業向け求人管理のHTTPハンドラー。
type AdminHandler struct {
	jobService       AdminJobServiceInterface
	applicantService ApplicantServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(jobService AdminJobServiceInterface, applicantService ApplicantServiceInterface) *AdminHandler {
	return &AdminHandler{
		jobService:       jobService,
		applicantService: applicantService,
	}
}

// createJobRequest は求人作成リクエストのボディ。
type createJobRequest struct {
	Title       string `json:"title"`
	Experience  string `json:"experience"`
	Salary      string `json:"salary"`
	Location    string `json:"location"`
	Description string `json:"description"`
	JobType     string `json:"job_type"`
	Deadline    string `json:"deadline"` // 空またはYYYY-MM-DD
}

// adminJobResponse は企業向け求人のAPIレスポンス。応募数を含む。
type adminJobResponse struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Company           string `json:"company"`
	Experience        string `json:"experience"`
	Salary            string `json:"salary"`
	Location          string `json:"location"`
	Description       string `json:"description"`
	JobType           string `json:"job_type"`
	Deadline          string `json:"deadline,omitempty"`
	LogoFilename      string `json:"logo_filename,omitempty"`
	CreatedAt         string `json:"created_at"`
	ApplicationsCount int    `json:"applications_count"`
}

// toAdminJobResponse はJobForEmployerをAPIレスポンス型に変換する。
func toAdminJobResponse(j *model.JobForEmployer) adminJobResponse {
	resp := adminJobResponse{
		ID:                j.ID,
		Title:             j.Title,
		Company:           j.Company,
		Experience:        j.Experience,
		Salary:            j.Salary,
		Location:          j.Location,
		Description:       j.Description,
		JobType:           j.JobType,
		LogoFilename:      j.LogoFilename,
		CreatedAt:         j.CreatedAt.Format(time.RFC3339),
		ApplicationsCount: j.ApplicationsCount,
	}
	if j.Deadline != nil {
		resp.Deadline = j.Deadline.Format("2006-01-02")
	}
	return resp
}

// applicantResponse は応募者のAPIレスポンス。
type applicantResponse struct {
	ApplicationID  string `json:"application_id"`
	UserID         string `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Mobile         string `json:"mobile"`
	AppliedAt      string `json:"applied_at"`
	ResumeFilename string `json:"resume_filename"`
}

// CreateJob は求人作成を処理する。
// POST /api/admin/jobs
func (h *AdminHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	created, err := h.jobService.Create(r.Context(), identity.ID, job.CreateInput{
		Title:       req.Title,
		Experience:  req.Experience,
		Salary:      req.Salary,
		Location:    req.Location,
		Description: req.Description,
		JobType:     req.JobType,
		Deadline:    req.Deadline,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "求人を作成しました。", map[string]any{
		"job": toAdminJobResponse(&model.JobForEmployer{Job: *created}),
	})
}

// ListJobs は自社求人の一覧を応募数付きで返す。
// GET /api/admin/jobs?page=N&q=keyword
func (h *AdminHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	page := pagination.ParsePage(r.URL.Query().Get("page"))
	q := r.URL.Query().Get("q")

	jobs, hasNext, err := h.jobService.ListByEmployer(r.Context(), identity.ID, page, q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]adminJobResponse, len(jobs))
	for i := range jobs {
		responses[i] = toAdminJobResponse(&jobs[i])
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"jobs":     responses,
		"page":     page,
		"has_next": hasNext,
	})
}

// DeleteJob は求人削除を処理する。
// DELETE /api/admin/jobs/{id}
func (h *AdminHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	jobID := chi.URLParam(r, "id")
	if err := h.jobService.Delete(r.Context(), identity.ID, jobID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "求人を削除しました。", nil)
}

// ListApplicants は自社求人の応募者一覧を返す。
// GET /api/admin/jobs/{id}/applications?page=N
func (h *AdminHandler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	jobID := chi.URLParam(r, "id")
	page := pagination.ParsePage(r.URL.Query().Get("page"))

	jobInfo, applicants, hasNext, err := h.applicantService.ListApplicants(r.Context(), identity.ID, jobID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]applicantResponse, len(applicants))
	for i, a := range applicants {
		responses[i] = applicantResponse{
			ApplicationID:  a.ApplicationID,
			UserID:         a.UserID,
			Name:           a.Name,
			Email:          a.Email,
			Mobile:         a.Mobile,
			AppliedAt:      a.AppliedAt.Format(time.RFC3339),
			ResumeFilename: a.ResumeFilename,
		}
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"job_id":     jobInfo.ID,
		"job_title":  jobInfo.Title,
		"applicants": responses,
		"page":       page,
		"has_next":   hasNext,
	})
}
