package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/jobman/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
// Identityのスナップショットをdataカラム（JSONB）に保持し、
// 認可チェックがユーザー・企業テーブルを再参照しないようにする。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session.Identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, actor_role, actor_id, data, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, string(session.Identity.Role), session.Identity.ID,
		data, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。
// 存在しない・期限切れ・不正なトークンのいずれもnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT id, data, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &data, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	identity := &model.Identity{}
	if err := json.Unmarshal(data, identity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session identity: %w", err)
	}
	session.Identity = identity

	return session, nil
}

// ExtendByID はセッションの有効期限を延長する。
func (r *PostgresSessionRepo) ExtendByID(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = $1 WHERE id = $2`,
		expiresAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。冪等。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// UpdateIdentityData は指定アクターの全ライブセッションのスナップショットを差し替える。
func (r *PostgresSessionRepo) UpdateIdentityData(ctx context.Context, role model.Role, actorID string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET data = $1 WHERE actor_role = $2 AND actor_id = $3`,
		data, string(role), actorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session identity: %w", err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
