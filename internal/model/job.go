package model

import "time"

// Job は求人情報を表す。
// EmployerIDは作成時に確定し、以降変更されない。
// 削除はオーナーのEmployerのみが行え、応募が存在する場合は拒否される。
type Job struct {
	ID           string
	EmployerID   string
	Title        string
	Company      string
	Experience   string
	Salary       string
	Location     string
	Description  string // サニタイズ済みHTML
	JobType      string
	Deadline     *time.Time
	LogoFilename string
	CreatedAt    time.Time
}

// JobForUser は求職者向け一覧・詳細で使う求人と応募済みフラグの結合。
type JobForUser struct {
	Job
	Applied bool
}

// JobForEmployer は企業管理画面向けの求人と応募数の結合。
type JobForEmployer struct {
	Job
	ApplicationsCount int
}
