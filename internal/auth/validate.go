package auth

import "regexp"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

var (
	upperPattern = regexp.MustCompile(`[A-Z]`)
	lowerPattern = regexp.MustCompile(`[a-z]`)
	digitPattern = regexp.MustCompile(`[0-9]`)
)

// validEmail はメールアドレス形式かを返す。
func validEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// validMobile は10桁の数字列かを返す。
func validMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// validPassword はパスワードポリシーを満たすかを返す。
// ポリシー: 8文字以上、大文字・小文字・数字を各1文字以上含む。
func validPassword(password string) bool {
	return len(password) >= 8 &&
		upperPattern.MatchString(password) &&
		lowerPattern.MatchString(password) &&
		digitPattern.MatchString(password)
}
