package repository

import "database/sql"

// nullIfEmpty は空文字列をNULLとして保存するためのsql.NullStringに変換する。
// 任意項目の一意制約列（employers.mobileなど）で空文字列同士が
// 衝突しないように、未入力はNULLで永続化する。
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
