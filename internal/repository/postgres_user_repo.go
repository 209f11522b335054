package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/jobman/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用した求職者リポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, mobile, password, profile_pic, created_at`

// scanUser は1行分のユーザーをスキャンする。
func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Mobile,
		&user.Password, &user.ProfilePic, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

// FindByIdentifier はメールアドレスまたは携帯番号でユーザーを検索する。
func (r *PostgresUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR mobile = $1`,
		identifier,
	)
	return scanUser(row)
}

// ExistsByEmailOrMobile はメールアドレスまたは携帯番号が登録済みかを返す。
func (r *PostgresUserRepo) ExistsByEmailOrMobile(ctx context.Context, email, mobile string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR mobile = $2)`,
		email, mobile,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Create はユーザーを作成する。一意制約違反の場合はErrDuplicateを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, mobile, password, profile_pic, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, user.Email, user.Mobile,
		user.Password, user.ProfilePic, user.CreatedAt,
	)
	if err != nil {
		if mapped := mapPQError(err); errors.Is(mapped, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateProfilePic はプロフィール画像のストレージ名を更新する。
func (r *PostgresUserRepo) UpdateProfilePic(ctx context.Context, id, filename string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile_pic = $1 WHERE id = $2`,
		filename, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile pic: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
