// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, job, upload, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrCodeJobNotFound        = "JOB_NOT_FOUND"
	ErrCodeAlreadyApplied     = "ALREADY_APPLIED"
	ErrCodeJobHasApplications = "JOB_HAS_APPLICATIONS"
	ErrCodeUploadInvalidType  = "UPLOAD_INVALID_TYPE"
	ErrCodeUploadTooLarge     = "UPLOAD_TOO_LARGE"
	ErrCodeFileNotFound       = "FILE_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError はロール不一致エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "適切なアカウントでログインし直してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// アカウント不存在とパスワード不一致を意図的に区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレス・携帯番号またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を修正して再度お試しください。",
	}
}

// NewDuplicateAccountError はアカウント重複エラーを生成する。
func NewDuplicateAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateAccount,
		Message:  "このメールアドレスまたは携帯番号は既に登録されています。",
		Category: "validation",
		Action:   "登録済みのアカウントでログインしてください。",
	}
}

// NewJobNotFoundError は求人未検出エラーを生成する。
// 他社の求人へのアクセスも同一のエラーに集約し、存在の探索を防ぐ。
func NewJobNotFoundError(jobID string) *APIError {
	return &APIError{
		Code:     ErrCodeJobNotFound,
		Message:  fmt.Sprintf("指定された求人が見つかりません: %s", jobID),
		Category: "job",
		Action:   "求人IDを確認してください。",
	}
}

// NewAlreadyAppliedError は重複応募エラーを生成する。
func NewAlreadyAppliedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyApplied,
		Message:  "この求人には既に応募済みです。",
		Category: "job",
		Action:   "応募状況は求人詳細から確認できます。",
	}
}

// NewJobHasApplicationsError は応募が存在する求人の削除エラーを生成する。
func NewJobHasApplicationsError() *APIError {
	return &APIError{
		Code:     ErrCodeJobHasApplications,
		Message:  "応募が存在する求人は削除できません。",
		Category: "job",
		Action:   "応募者への対応が完了してから削除してください。",
	}
}

// NewUploadInvalidTypeError はアップロード拒否（拡張子）エラーを生成する。
func NewUploadInvalidTypeError(allowed string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadInvalidType,
		Message:  "サポートされていないファイル形式です。",
		Category: "upload",
		Action:   fmt.Sprintf("利用可能な形式: %s", allowed),
	}
}

// NewUploadTooLargeError はアップロード拒否（サイズ超過）エラーを生成する。
func NewUploadTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeUploadTooLarge,
		Message:  "ファイルサイズが上限を超えています。",
		Category: "upload",
		Action:   fmt.Sprintf("%dMB以下のファイルをアップロードしてください。", maxBytes/(1024*1024)),
	}
}

// NewFileNotFoundError はファイル未検出エラーを生成する。
func NewFileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeFileNotFound,
		Message:  "指定されたファイルが見つかりません。",
		Category: "upload",
		Action:   "ファイル名を確認してください。",
	}
}
