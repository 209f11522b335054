package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobman/internal/model"
)

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

const jobColumns = `j.id, j.employer_id, j.title, j.company, j.experience, j.salary,
	j.location, j.description, j.job_type, j.deadline, j.logo_filename, j.created_at`

// scanJob は1行分の求人フィールドをスキャンする。
// rowはjobColumnsの順でSELECTされている必要がある。
func scanJob(scan func(dest ...any) error, job *model.Job, extra ...any) error {
	dest := []any{
		&job.ID, &job.EmployerID, &job.Title, &job.Company, &job.Experience,
		&job.Salary, &job.Location, &job.Description, &job.JobType,
		&job.Deadline, &job.LogoFilename, &job.CreatedAt,
	}
	dest = append(dest, extra...)
	return scan(dest...)
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`,
		id,
	)
	job := &model.Job{}
	err := scanJob(row.Scan, job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job: %w", err)
	}
	return job, nil
}

// FindByIDAndEmployer はIDとオーナー企業IDで求人を検索する。
// 不存在とオーナー不一致はいずれもnilになる。
func (r *PostgresJobRepo) FindByIDAndEmployer(ctx context.Context, id, employerID string) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1 AND j.employer_id = $2`,
		id, employerID,
	)
	job := &model.Job{}
	err := scanJob(row.Scan, job)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by owner: %w", err)
	}
	return job, nil
}

// FindForUser は求人詳細を指定ユーザーの応募済みフラグ付きで取得する。
func (r *PostgresJobRepo) FindForUser(ctx context.Context, id, userID string) (*model.JobForUser, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+`,
		        EXISTS(SELECT 1 FROM applications a WHERE a.job_id = j.id AND a.user_id = $2) AS applied
		 FROM jobs j WHERE j.id = $1`,
		id, userID,
	)
	result := &model.JobForUser{}
	err := scanJob(row.Scan, &result.Job, &result.Applied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job for user: %w", err)
	}
	return result, nil
}

// ListForUser は求人一覧を応募済みフラグ付きでcreated_at降順で返す。
func (r *PostgresJobRepo) ListForUser(ctx context.Context, userID, q string, limit, offset int) ([]model.JobForUser, error) {
	query := `SELECT ` + jobColumns + `,
	          EXISTS(SELECT 1 FROM applications a WHERE a.job_id = j.id AND a.user_id = $1) AS applied
	          FROM jobs j`
	args := []any{userID}

	if q != "" {
		query += ` WHERE (j.title ILIKE $2 OR j.company ILIKE $2 OR j.location ILIKE $2)`
		args = append(args, "%"+q+"%")
	}

	query += fmt.Sprintf(` ORDER BY j.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobForUser
	for rows.Next() {
		var jf model.JobForUser
		if err := scanJob(rows.Scan, &jf.Job, &jf.Applied); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, jf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job rows: %w", err)
	}
	return jobs, nil
}

// ListByEmployer はオーナー企業の求人一覧を応募数付きでcreated_at降順で返す。
func (r *PostgresJobRepo) ListByEmployer(ctx context.Context, employerID, q string, limit, offset int) ([]model.JobForEmployer, error) {
	query := `SELECT ` + jobColumns + `,
	          (SELECT COUNT(*) FROM applications a WHERE a.job_id = j.id) AS applications_count
	          FROM jobs j
	          WHERE j.employer_id = $1`
	args := []any{employerID}

	if q != "" {
		query += ` AND (j.title ILIKE $2 OR j.company ILIKE $2 OR j.location ILIKE $2)`
		args = append(args, "%"+q+"%")
	}

	query += fmt.Sprintf(` ORDER BY j.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employer jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.JobForEmployer
	for rows.Next() {
		var je model.JobForEmployer
		if err := scanJob(rows.Scan, &je.Job, &je.ApplicationsCount); err != nil {
			return nil, fmt.Errorf("failed to scan employer job row: %w", err)
		}
		jobs = append(jobs, je)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employer job rows: %w", err)
	}
	return jobs, nil
}

// Create は求人を作成する。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs
		 (id, employer_id, title, company, experience, salary, location, description, job_type, deadline, logo_filename, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		job.ID, job.EmployerID, job.Title, job.Company, job.Experience,
		job.Salary, job.Location, job.Description, job.JobType,
		job.Deadline, job.LogoFilename, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// DeleteByIDAndEmployer はIDとオーナー企業IDで求人を削除する。
// 応募が存在する場合はRESTRICT制約によりErrRestrictedを返す。
func (r *PostgresJobRepo) DeleteByIDAndEmployer(ctx context.Context, id, employerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE id = $1 AND employer_id = $2`,
		id, employerID,
	)
	if err != nil {
		if mapped := mapPQError(err); errors.Is(mapped, ErrRestricted) {
			return false, ErrRestricted
		}
		return false, fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
