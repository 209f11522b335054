// Package model はドメインモデルを定義する。
package model

import "time"

// Role はセッションに紐付くアクターの種別を表す閉じた列挙型。
// User（求職者）とEmployer（求人企業）の2種類のみが存在する。
type Role string

const (
	// RoleUser は求職者を表す。
	RoleUser Role = "user"
	// RoleEmployer は求人企業の担当者を表す。
	RoleEmployer Role = "employer"
)

// Valid はRoleが定義済みの値であるかを返す。
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEmployer:
		return true
	}
	return false
}

// Identity はセッションに紐付く認証済みアクターを表す。
// ログイン時に一度だけDBから構築し、以降はセッションの
// スナップショットとしてのみ保持する（リクエストごとに再取得しない）。
// プロフィール画像・ロゴの変更はセッション側スナップショットにも反映する。
type Identity struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`

	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`

	// ProfilePic は保存済みプロフィール画像のストレージ名。未設定の場合は空。
	ProfilePic string `json:"profile_pic,omitempty"`

	// Organization と LogoFilename はRoleEmployerの場合のみ設定される。
	Organization string `json:"organization_name,omitempty"`
	LogoFilename string `json:"logo_filename,omitempty"`
}

// User は求職者アカウントを表す。
type User struct {
	ID         string
	Name       string
	Email      string
	Mobile     string
	Password   string // bcryptダイジェスト
	ProfilePic string
	CreatedAt  time.Time
}

// Identity はUserからセッション用Identityを構築する。
func (u *User) Identity() *Identity {
	return &Identity{
		ID:         u.ID,
		Role:       RoleUser,
		Name:       u.Name,
		Email:      u.Email,
		Mobile:     u.Mobile,
		ProfilePic: u.ProfilePic,
	}
}

// Employer は求人企業アカウントを表す。
type Employer struct {
	ID           string
	EmployerName string
	Organization string
	Email        string // 組織メールアドレス
	Mobile       string
	Password     string // bcryptダイジェスト
	ProfilePic   string
	LogoFilename string
	CreatedAt    time.Time
}

// Identity はEmployerからセッション用Identityを構築する。
func (e *Employer) Identity() *Identity {
	return &Identity{
		ID:           e.ID,
		Role:         RoleEmployer,
		Name:         e.EmployerName,
		Email:        e.Email,
		Mobile:       e.Mobile,
		ProfilePic:   e.ProfilePic,
		Organization: e.Organization,
		LogoFilename: e.LogoFilename,
	}
}

// Session はログインセッションを表す。
// 1セッションは常に1つのIdentityのみを保持する。
// アクターを切り替えるには一度ログアウトする必要がある。
type Session struct {
	ID        string
	Identity  *Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}
