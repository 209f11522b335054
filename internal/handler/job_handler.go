package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/pagination"
)

// JobServiceInterface は求職者向け求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	// ListForUser は求人一覧を応募済みフラグ付きで返す。
	ListForUser(ctx context.Context, userID string, page int, q string) ([]model.JobForUser, bool, error)
	// GetForUser は求人詳細を応募済みフラグ付きで返す。
	GetForUser(ctx context.Context, jobID, userID string) (*model.JobForUser, error)
}

// ApplyServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplyServiceInterface interface {
	// Apply は履歴書付きで求人に応募する。
	Apply(ctx context.Context, userID, jobID, declaredName string, size int64, body io.Reader) (*model.Application, error)
}

// JobHandler は求職者向け求人閲覧・応募のHTTPハンドラー。
type JobHandler struct {
	jobService   JobServiceInterface
	applyService ApplyServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(jobService JobServiceInterface, applyService ApplyServiceInterface) *JobHandler {
	return &JobHandler{
		jobService:   jobService,
		applyService: applyService,
	}
}

// jobResponse は求職者向け求人のAPIレスポンス。
type jobResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	Experience   string `json:"experience"`
	Salary       string `json:"salary"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	JobType      string `json:"job_type"`
	Deadline     string `json:"deadline,omitempty"`
	LogoFilename string `json:"logo_filename,omitempty"`
	CreatedAt    string `json:"created_at"`
	Applied      bool   `json:"applied"`
}

// toJobResponse はJobForUserをAPIレスポンス型に変換する。
func toJobResponse(j *model.JobForUser) jobResponse {
	resp := jobResponse{
		ID:           j.ID,
		Title:        j.Title,
		Company:      j.Company,
		Experience:   j.Experience,
		Salary:       j.Salary,
		Location:     j.Location,
		Description:  j.Description,
		JobType:      j.JobType,
		LogoFilename: j.LogoFilename,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		Applied:      j.Applied,
	}
	if j.Deadline != nil {
		resp.Deadline = j.Deadline.Format("2006-01-02")
	}
	return resp
}

// ListJobs は求人一覧を返す。
// GET /api/jobs?page=N&q=keyword
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	page := pagination.ParsePage(r.URL.Query().Get("page"))
	q := r.URL.Query().Get("q")

	jobs, hasNext, err := h.jobService.ListForUser(r.Context(), identity.ID, page, q)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]jobResponse, len(jobs))
	for i := range jobs {
		responses[i] = toJobResponse(&jobs[i])
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"jobs":     responses,
		"page":     page,
		"has_next": hasNext,
	})
}

// GetJob は求人詳細を返す。
// GET /api/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	jobID := chi.URLParam(r, "id")
	job, err := h.jobService.GetForUser(r.Context(), jobID, identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]any{
		"job": toJobResponse(job),
	})
}

// Apply は履歴書付きの応募を処理する。multipart/form-dataのresumeフィールドを受け取る。
// POST /api/jobs/{id}/apply
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	jobID := chi.URLParam(r, "id")

	file, header, err := r.FormFile("resume")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("履歴書ファイルが添付されていません"))
		return
	}
	defer file.Close()

	_, err = h.applyService.Apply(r.Context(), identity.ID, jobID, header.Filename, header.Size, file)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, "応募が完了しました。", nil)
}
