package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobman/internal/model"
)

// PostgresEmployerRepo はPostgreSQLを使用した求人企業リポジトリ。
type PostgresEmployerRepo struct {
	db *sql.DB
}

// NewPostgresEmployerRepo はPostgresEmployerRepoを生成する。
func NewPostgresEmployerRepo(db *sql.DB) *PostgresEmployerRepo {
	return &PostgresEmployerRepo{db: db}
}

const employerColumns = `id, employer_name, organization_name, organization_email,
	mobile, password, profile_pic, logo_filename, created_at`

// scanEmployer は1行分の企業をスキャンする。
// mobileは任意項目のためNULLをそのまま空文字列に写す。
func scanEmployer(row *sql.Row) (*model.Employer, error) {
	e := &model.Employer{}
	var mobile sql.NullString
	err := row.Scan(
		&e.ID, &e.EmployerName, &e.Organization, &e.Email,
		&mobile, &e.Password, &e.ProfilePic, &e.LogoFilename, &e.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan employer: %w", err)
	}
	e.Mobile = mobile.String
	return e, nil
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresEmployerRepo) FindByID(ctx context.Context, id string) (*model.Employer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employerColumns+` FROM employers WHERE id = $1`,
		id,
	)
	return scanEmployer(row)
}

// FindByIdentifier は組織メールアドレスまたは携帯番号で企業を検索する。
func (r *PostgresEmployerRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.Employer, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+employerColumns+` FROM employers WHERE organization_email = $1 OR mobile = $1`,
		identifier,
	)
	return scanEmployer(row)
}

// ExistsByEmailOrMobile は組織メールアドレスまたは携帯番号が登録済みかを返す。
// 携帯番号未入力（空文字列）の場合はメールアドレスのみで判定する。
func (r *PostgresEmployerRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM employers WHERE organization_email = $1 OR mobile = NULLIF($2, ''))`,
		email, mobile,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employer existence: %w", err)
	}
	return exists, nil
}

// Create は企業を作成する。一意制約違反の場合はErrDuplicateを返す。
// 未入力の携帯番号はNULLで保存する。
func (r *PostgresEmployerRepo) Create(ctx context.Context, employer *model.Employer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employers
		 (id, employer_name, organization_name, organization_email, mobile, password, profile_pic, logo_filename, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		employer.ID, employer.EmployerName, employer.Organization, employer.Email,
		nullIfEmpty(employer.Mobile), employer.Password, employer.ProfilePic, employer.LogoFilename,
		employer.CreatedAt,
	)
	if err != nil {
		if mapped := mapPQError(err); errors.Is(mapped, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create employer: %w", err)
	}
	return nil
}

// UpdateProfilePic はプロフィール画像のストレージ名を更新する。
func (r *PostgresEmployerRepo) UpdateProfilePic(ctx context.Context, id, filename string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE employers SET profile_pic = $1 WHERE id = $2`,
		filename, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update employer profile pic: %w", err)
	}
	return nil
}

// UpdateLogo は企業ロゴのストレージ名を更新する。
func (r *PostgresEmployerRepo) UpdateLogo(ctx context.Context, id, filename string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE employers SET logo_filename = $1 WHERE id = $2`,
		filename, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update employer logo: %w", err)
	}
	return nil
}

// compile-time interface check
var _ EmployerRepository = (*PostgresEmployerRepo)(nil)
