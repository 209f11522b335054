package model

import "time"

// Application は求職者から求人への応募を表す。
// (UserID, JobID) の組は一意であり、一度作成されたら更新も削除もされない
// （監査証跡としてイミュータブル）。
type Application struct {
	ID         string
	UserID     string
	JobID      string
	ResumePath string // 履歴書のストレージ名（クライアント由来のパスは保持しない）
	AppliedAt  time.Time
}

// Applicant は企業向け応募者一覧で使う応募と求職者情報の結合。
type Applicant struct {
	ApplicationID  string
	UserID         string
	Name           string
	Email          string
	Mobile         string
	AppliedAt      time.Time
	ResumeFilename string
}
