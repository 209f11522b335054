package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobman/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// Create は応募を作成する。
// (user_id, job_id)の一意制約を重複応募の最終防衛線とし、
// 同時送信で事前チェックをすり抜けた場合もErrDuplicateになる。
func (r *PostgresApplicationRepo) Create(ctx context.Context, application *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, user_id, job_id, resume_path, applied_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		application.ID, application.UserID, application.JobID,
		application.ResumePath, application.AppliedAt,
	)
	if err != nil {
		if mapped := mapPQError(err); errors.Is(mapped, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ExistsByUserAndJob は指定ユーザーの指定求人への応募が存在するかを返す。
func (r *PostgresApplicationRepo) ExistsByUserAndJob(ctx context.Context, userID, jobID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM applications WHERE user_id = $1 AND job_id = $2)`,
		userID, jobID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check application existence: %w", err)
	}
	return exists, nil
}

// FindResumeByEmployer は指定企業の求人に紐付く応募から履歴書ストレージ名を検索する。
// 他社の求人への応募の履歴書は見つからない扱いになる。
func (r *PostgresApplicationRepo) FindResumeByEmployer(ctx context.Context, employerID, resumePath string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		`SELECT a.resume_path
		 FROM applications a
		 JOIN jobs j ON a.job_id = j.id
		 WHERE j.employer_id = $1 AND a.resume_path = $2`,
		employerID, resumePath,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find resume: %w", err)
	}
	return name, nil
}

// ListApplicantsByJob は求人への応募者一覧をapplied_at降順で返す。
func (r *PostgresApplicationRepo) ListApplicantsByJob(ctx context.Context, jobID string, limit, offset int) ([]model.Applicant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, u.id, u.name, u.email, u.mobile, a.applied_at, a.resume_path
		 FROM applications a
		 JOIN users u ON a.user_id = u.id
		 WHERE a.job_id = $1
		 ORDER BY a.applied_at DESC
		 LIMIT $2 OFFSET $3`,
		jobID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applicants: %w", err)
	}
	defer rows.Close()

	var applicants []model.Applicant
	for rows.Next() {
		var a model.Applicant
		if err := rows.Scan(
			&a.ApplicationID, &a.UserID, &a.Name, &a.Email, &a.Mobile,
			&a.AppliedAt, &a.ResumeFilename,
		); err != nil {
			return nil, fmt.Errorf("failed to scan applicant row: %w", err)
		}
		applicants = append(applicants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applicant rows: %w", err)
	}
	return applicants, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
