// Package upload は信頼できないアップロードファイルの検証と、
// 衝突もパストラバーサルも起こさないストレージ名の採番、
// およびクラス別ディレクトリへの保存を提供する。
package upload

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/jobman/internal/model"
)

// Class はアップロードファイルの種別を表す。
// 種別ごとに保存ディレクトリと拡張子の許可リストが決まる。
type Class string

const (
	// ClassProfilePicture はプロフィール画像。
	ClassProfilePicture Class = "profile_pics"
	// ClassLogo は企業ロゴ。
	ClassLogo Class = "logos"
	// ClassResume は履歴書。
	ClassResume Class = "resumes"
)

// Dir はクラスごとの保存ディレクトリ名を返す。
func (c Class) Dir() string {
	return string(c)
}

// 拡張子の許可リスト（クラス別）
var (
	imageExts  = map[string]bool{"png": true, "jpg": true, "jpeg": true}
	resumeExts = map[string]bool{"pdf": true, "doc": true, "docx": true}
)

// AllowedExts はクラスの許可拡張子をカンマ区切りで返す。エラーメッセージ用。
func (c Class) AllowedExts() string {
	if c == ClassResume {
		return "pdf, doc, docx"
	}
	return "png, jpg, jpeg"
}

// allowed はクラスに対して拡張子が許可されているかを返す。
func (c Class) allowed(ext string) bool {
	if c == ClassResume {
		return resumeExts[ext]
	}
	return imageExts[ext]
}

// Sanitizer はアップロードファイルの検証とストレージ名の採番を行う。
// クライアント申告のファイル名は拡張子の判定と履歴書名の一部にのみ使い、
// 保存パスの決定には決して使わない。
type Sanitizer struct {
	maxImageSize int64
	now          func() time.Time
}

// NewSanitizer はSanitizerを生成する。
// maxImageSizeはプロフィール画像・ロゴの上限（バイト）。
func NewSanitizer(maxImageSize int64) *Sanitizer {
	return &Sanitizer{
		maxImageSize: maxImageSize,
		now:          time.Now,
	}
}

// Accept は申告ファイル名とサイズを検証し、ストレージ名を採番する。
// 拒否された場合は*model.APIError（UPLOAD_INVALID_TYPE / UPLOAD_TOO_LARGE）を返す。
// ストレージ名の形式:
//   - プロフィール画像: {role}{owner_id}_{unix}.{ext}
//   - ロゴ:            employer{owner_id}_{unix}.{ext}
//   - 履歴書:          user{owner_id}_job{secondary_id}_{unix}_{sanitized}.{ext}
//
// タイムスタンプにより同一オーナーの再アップロードでも衝突しない。
func (s *Sanitizer) Accept(class Class, role model.Role, ownerID, secondaryID, declaredName string, size int64) (string, error) {
	ext, ok := extOf(declaredName)
	if !ok || !class.allowed(ext) {
		return "", model.NewUploadInvalidTypeError(class.AllowedExts())
	}

	if class != ClassResume && size > s.maxImageSize {
		return "", model.NewUploadTooLargeError(s.maxImageSize)
	}

	ts := s.now().Unix()

	switch class {
	case ClassResume:
		base := SanitizeBaseName(strings.TrimSuffix(declaredName, "."+ext))
		if base == "" {
			base = "resume"
		}
		return fmt.Sprintf("user%s_job%s_%d_%s.%s", ownerID, secondaryID, ts, base, ext), nil
	case ClassLogo:
		return fmt.Sprintf("employer%s_%d.%s", ownerID, ts, ext), nil
	default:
		return fmt.Sprintf("%s%s_%d.%s", role, ownerID, ts, ext), nil
	}
}

// SanitizeBaseName は申告ファイル名からパス成分を除去し、
// 英数字・ドット・アンダースコア・ハイフン以外の文字を落とす。
// パス区切り文字と".."は構造上残らない。
func SanitizeBaseName(name string) string {
	// パス成分の除去（Windows形式の区切りも対象）
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	// 連続ドットの除去。区切り文字が既に無いため".."が残ることはないが、
	// 先頭ドットの隠しファイル化もここで防ぐ。
	for strings.Contains(cleaned, "..") {
		cleaned = strings.ReplaceAll(cleaned, "..", ".")
	}
	cleaned = strings.Trim(cleaned, ".")

	return cleaned
}

// extOf は申告ファイル名から小文字の拡張子を取り出す。
// 拡張子が無い場合はfalseを返す。
func extOf(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	ext := strings.ToLower(name[i+1:])
	if strings.ContainsAny(ext, `/\`) {
		return "", false
	}
	return ext, true
}
