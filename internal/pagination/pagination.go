// Package pagination は「1件余分に取得してhas_nextを判定する」
// 方式のページネーション規約を提供する。
// COUNT(*)クエリを発行せずに次ページの有無を正確に返せる。
package pagination

import "strconv"

// 一覧ごとの1ページあたりの件数
const (
	// JobsPerPage は求人一覧（求職者・企業管理画面共通）の1ページ件数。
	JobsPerPage = 6
	// ApplicantsPerPage は応募者一覧の1ページ件数。
	ApplicantsPerPage = 10
)

// ParsePage はクエリ文字列のページ番号を解析する。
// 解析失敗・0以下の値は1に矯正する。
func ParsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Offset はページ番号からOFFSET値を計算する。
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// Trim はperPage+1件フェッチした結果をページとhas_nextに分割する。
func Trim[T any](rows []T, perPage int) ([]T, bool) {
	if len(rows) > perPage {
		return rows[:perPage], true
	}
	return rows, false
}
