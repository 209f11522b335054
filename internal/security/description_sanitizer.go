// Package security はアプリケーションのセキュリティ機能を提供する。
//
// DescriptionSanitizer は企業が入力した求人説明文のHTMLをサニタイズし、
// 閲覧する求職者をXSS攻撃から保護する。bluemondayライブラリを使用した
// 許可リストベースのポリシーで、整形タグのみを通過させる。
package security

import "github.com/microcosm-cc/bluemonday"

// DescriptionSanitizer は求人説明文サニタイズのインターフェースを定義する。
// 求人の保存前に使用される。
type DescriptionSanitizer interface {
	// Sanitize は説明文HTMLをサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em, h3, h4）のみを通過させ、
	// script, iframe, style, img, aタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// descriptionSanitizer はDescriptionSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type descriptionSanitizer struct {
	policy *bluemonday.Policy
}

// NewDescriptionSanitizer はDescriptionSanitizerの新しいインスタンスを生成する。
// ポリシーの内容:
//   - 許可タグ: p, br, ul, ol, li, strong, em, h3, h4（箇条書きと強調のみ）
//   - リンク・画像は許可しない（求人説明文に外部参照は不要）
//   - script, iframe, style等は許可リストに含めないことで自動的に除去される
func NewDescriptionSanitizer() *descriptionSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "h3", "h4",
	)

	return &descriptionSanitizer{
		policy: p,
	}
}

// Sanitize は説明文HTMLをサニタイズして安全なHTMLを返す。
func (s *descriptionSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}
