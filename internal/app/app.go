// Package app はアプリケーションの初期化・ワイヤリング・起動を行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/jobman/internal/account"
	"github.com/hitoshi/jobman/internal/application"
	"github.com/hitoshi/jobman/internal/auth"
	"github.com/hitoshi/jobman/internal/config"
	"github.com/hitoshi/jobman/internal/credential"
	"github.com/hitoshi/jobman/internal/database"
	"github.com/hitoshi/jobman/internal/handler"
	"github.com/hitoshi/jobman/internal/job"
	"github.com/hitoshi/jobman/internal/logger"
	"github.com/hitoshi/jobman/internal/metrics"
	"github.com/hitoshi/jobman/internal/middleware"
	"github.com/hitoshi/jobman/internal/repository"
	"github.com/hitoshi/jobman/internal/security"
	"github.com/hitoshi/jobman/internal/upload"
	"github.com/hitoshi/jobman/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	employerRepo := repository.NewPostgresEmployerRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	jobRepo := repository.NewPostgresJobRepo(db)
	appRepo := repository.NewPostgresApplicationRepo(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. アップロード基盤の初期化
	store, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to initialize upload store: %w", err)
	}
	sanitizer := upload.NewSanitizer(cfg.MaxImageSize)

	// 5. ドメインサービスの初期化
	hasher := credential.NewHasher(bcrypt.DefaultCost)
	authService := auth.NewService(
		userRepo, employerRepo, sessionRepo, hasher, collector,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)

	descSanitizer := security.NewDescriptionSanitizer()
	jobService := job.NewService(jobRepo, employerRepo, descSanitizer)
	applicationService := application.NewService(appRepo, jobRepo, sanitizer, store, collector)
	accountService := account.NewService(userRepo, employerRepo, sessionRepo, sanitizer, store, collector)

	// 6. ルーターの構築
	rateLimiterCfg := middleware.RateLimiterConfigForLimits(cfg.RateLimitGeneral, cfg.RateLimitSubmit)

	deps := &handler.RouterDeps{
		SessionResolver:   sessionRepo,
		SessionMaxAge:     cfg.SessionMaxAge,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       middleware.NewRateLimiter(rateLimiterCfg),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieSecure:  cfg.CookieSecure,
			CookieDomain:  cfg.CookieDomain,
			SessionMaxAge: int(cfg.SessionMaxAge.Seconds()),
		},

		JobService:   jobService,
		ApplyService: applicationService,

		AdminJobService:  jobService,
		ApplicantService: applicationService,
		ResumeResolver:   applicationService,

		AccountService: accountService,
		UploadStore:    store,

		DB:       db,
		Gatherer: registry,
	}
	router := handler.NewRouter(deps)

	// リクエストボディの上限・メトリクス・アクセスログを全ルートに適用
	var root http.Handler = router
	root = maxBodyMiddleware(cfg.MaxBodySize)(root)
	root = middleware.NewMetricsMiddleware(collector)(root)
	root = middleware.NewLoggingMiddleware(slog.Default())(root)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	// 期限切れセッションのクリーンアップを日次でバックグラウンド実行
	cleanupJob := cleanup.NewSessionCleanupJob(db, slog.Default())
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(jobCtx); err != nil {
			slog.Error("session cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-jobCtx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(jobCtx); err != nil {
					slog.Error("session cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// maxBodyMiddleware はリクエストボディのサイズ上限を全ルートに適用する。
// 上限を超えた読み込みはhttp.MaxBytesReaderによってエラーになる。
func maxBodyMiddleware(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
