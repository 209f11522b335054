// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/jobman/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// 重複応募・重複登録の判定は永続化層の制約を最終的な根拠とする。
var ErrDuplicate = errors.New("repository: duplicate row")

// ErrRestricted は外部キー制約（RESTRICT）による削除拒否を表す。
var ErrRestricted = errors.New("repository: restricted by dependent rows")

// UserRepository は求職者アカウントの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByIdentifier はメールアドレスまたは携帯番号でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByIdentifier(ctx context.Context, identifier string) (*model.User, error)

	// ExistsByEmailOrMobile はメールアドレスまたは携帯番号が登録済みかを返す。
	ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error)

	// Create はユーザーを作成する。一意制約違反の場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// UpdateProfilePic はプロフィール画像のストレージ名を更新する。
	// 空文字列で削除を表す。
	UpdateProfilePic(ctx context.Context, id, filename string) error
}

// EmployerRepository は求人企業アカウントの永続化インターフェース。
type EmployerRepository interface {
	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Employer, error)

	// FindByIdentifier は組織メールアドレスまたは携帯番号で企業を検索する。
	// 見つからない場合はnilを返す。
	FindByIdentifier(ctx context.Context, identifier string) (*model.Employer, error)

	// ExistsByEmailOrMobile は組織メールアドレスまたは携帯番号が登録済みかを返す。
	ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error)

	// Create は企業を作成する。一意制約違反の場合はErrDuplicateを返す。
	Create(ctx context.Context, employer *model.Employer) error

	// UpdateProfilePic はプロフィール画像のストレージ名を更新する。
	UpdateProfilePic(ctx context.Context, id, filename string) error

	// UpdateLogo は企業ロゴのストレージ名を更新する。
	UpdateLogo(ctx context.Context, id, filename string) error
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// FindByIDAndEmployer はIDとオーナー企業IDで求人を検索する。
	// 求人が存在しない場合もオーナーが異なる場合もnilを返す
	// （両者を区別しないことでテナント間の存在探索を防ぐ）。
	FindByIDAndEmployer(ctx context.Context, id, employerID string) (*model.Job, error)

	// FindForUser は求人詳細を指定ユーザーの応募済みフラグ付きで取得する。
	// 見つからない場合はnilを返す。
	FindForUser(ctx context.Context, id, userID string) (*model.JobForUser, error)

	// ListForUser は求人一覧を応募済みフラグ付きでcreated_at降順で返す。
	// qが非空の場合はtitle/company/locationの部分一致で絞り込む。
	ListForUser(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error)

	// ListByEmployer はオーナー企業の求人一覧を応募数付きでcreated_at降順で返す。
	ListByEmployer(ctx context.Context, employerID, q string, limit, offset int) ([]model.JobForEmployer, error)

	// Create は求人を作成する。
	Create(ctx context.Context, job *model.Job) error

	// DeleteByIDAndEmployer はIDとオーナー企業IDで求人を削除する。
	// 削除された場合はtrueを返す。応募が存在する場合はErrRestrictedを返す。
	DeleteByIDAndEmployer(ctx context.Context, id, employerID string) (bool, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// Create は応募を作成する。
	// (user_id, job_id)の一意制約違反の場合はErrDuplicateを返す。
	Create(ctx context.Context, application *model.Application) error

	// ExistsByUserAndJob は指定ユーザーの指定求人への応募が存在するかを返す。
	ExistsByUserAndJob(ctx context.Context, userID, jobID string) (bool, error)

	// FindResumeByEmployer は指定企業の求人に対する応募の中から
	// 履歴書ストレージ名を検索する。見つからない場合は空文字列を返す。
	FindResumeByEmployer(ctx context.Context, employerID, resumePath string) (string, error)

	// ListApplicantsByJob は求人への応募者一覧をapplied_at降順で返す。
	ListApplicantsByJob(ctx context.Context, jobID string, limit, offset int) ([]model.Applicant, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。
	// 存在しない・期限切れ・不正なトークンのいずれもnilを返す（エラーにしない）。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// ExtendByID はセッションの有効期限を延長する（スライディング有効期限）。
	ExtendByID(ctx context.Context, id string, expiresAt time.Time) error

	// DeleteByID は指定IDのセッションを削除する。冪等であり、
	// 存在しないセッションの削除はエラーにならない。
	DeleteByID(ctx context.Context, id string) error

	// UpdateIdentityData は指定アクターの全ライブセッションの
	// Identityスナップショットを差し替える。プロフィール画像・ロゴ変更の
	// セッションミラーリングに使用する。
	UpdateIdentityData(ctx context.Context, role model.Role, actorID string, data []byte) error
}
