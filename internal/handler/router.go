package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/jobman/internal/metrics"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/model"
	"github.com/hitoshi/jobman/internal/upload"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	SessionMaxAge     time.Duration
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 求職者向け
	JobService   JobServiceInterface
	ApplyService ApplyServiceInterface

	// 企業向け
	AdminJobService  AdminJobServiceInterface
	ApplicantService ApplicantServiceInterface
	ResumeResolver   ResumeResolverInterface

	// プロフィール・アセット
	AccountService AccountServiceInterface
	UploadStore    *upload.Store

	// 運用系
	DB       *sql.DB
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → (認証グループ: Session → RateLimit(General))
//
// 登録・ログインと/health・/metricsはミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	jobHandler := NewJobHandler(deps.JobService, deps.ApplyService)
	adminHandler := NewAdminHandler(deps.AdminJobService, deps.ApplicantService)
	profileHandler := NewProfileHandler(deps.AccountService)
	assetHandler := NewAssetHandler(deps.UploadStore, deps.ResumeResolver)

	// --- 認証不要のルート ---

	r.Post("/api/register", authHandler.RegisterUser)
	r.Post("/api/employer/register", authHandler.RegisterEmployer)
	r.Post("/api/login", authHandler.LoginUser)
	r.Post("/api/employer/login", authHandler.LoginEmployer)
	// ログアウトはセッションミドルウェアの外に置く。期限切れ・破棄済みの
	// セッションCookieを持つクライアントでも必ずCookieを消せるようにするため。
	r.Post("/api/logout", authHandler.Logout)

	// 死活監視
	r.Get("/health", newHealthHandler(deps.DB))

	// Prometheusメトリクス
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver, deps.SessionMaxAge))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// セッション確認
		r.Get("/api/session", authHandler.Session)

		// アップロード画像の配信（両ロール共通）
		r.Get("/uploads/profile_pics/{name}", assetHandler.ServeProfilePicture)
		r.Get("/uploads/logos/{name}", assetHandler.ServeLogo)

		// 求職者専用ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleUser))

			r.Get("/api/jobs", jobHandler.ListJobs)
			r.Get("/api/jobs/{id}", jobHandler.GetJob)

			// POST /api/jobs/{id}/apply - 応募（送信専用レート制限を追加）
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/api/jobs/{id}/apply", jobHandler.Apply)

			r.Route("/api/profile/picture", func(r chi.Router) {
				r.With(deps.RateLimiter.SubmitMiddleware()).Post("/", profileHandler.UpdateProfilePicture)
				r.Post("/remove", profileHandler.RemoveProfilePicture)
			})
		})

		// 企業専用ルート
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleEmployer))

			r.Route("/api/admin/jobs", func(r chi.Router) {
				// POST /api/admin/jobs - 求人作成（送信専用レート制限を追加）
				r.With(deps.RateLimiter.SubmitMiddleware()).Post("/", adminHandler.CreateJob)
				r.Get("/", adminHandler.ListJobs)

				r.Route("/{id}", func(r chi.Router) {
					r.Delete("/", adminHandler.DeleteJob)
					r.Get("/applications", adminHandler.ListApplicants)
				})
			})

			r.Get("/api/admin/resumes/{name}", assetHandler.DownloadResume)

			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/api/admin/profile/picture", profileHandler.UpdateProfilePicture)
			r.Post("/api/admin/profile/picture/remove", profileHandler.RemoveProfilePicture)
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/api/admin/logo", profileHandler.UpdateLogo)
		})
	})

	return r
}

// newHealthHandler はDB疎通確認付きの死活監視ハンドラーを返す。
func newHealthHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]any{
					"status": "unhealthy",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
		})
	}
}
