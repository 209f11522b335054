package auth

import "testing"

func TestValidEmail(t *testing.T) {
	valid := []string{"taro@example.com", "a.b+c@mail.co.jp", "x_1%@sub.example.org"}
	invalid := []string{"", "plain", "no@tld", "@example.com", "a b@example.com"}

	for _, e := range valid {
		if !validEmail(e) {
			t.Errorf("validEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if validEmail(e) {
			t.Errorf("validEmail(%q) = true, want false", e)
		}
	}
}

func TestValidMobile(t *testing.T) {
	if !validMobile("0901234567") {
		t.Error("validMobile(10 digits) = false, want true")
	}
	for _, m := range []string{"", "090123456", "09012345678", "09012345ab"} {
		if validMobile(m) {
			t.Errorf("validMobile(%q) = true, want false", m)
		}
	}
}

func TestValidPassword(t *testing.T) {
	valid := []string{"Password1", "Aa345678", "LongerPassw0rd"}
	invalid := []string{
		"Pass1",     // 8文字未満
		"password1", // 大文字なし
		"PASSWORD1", // 小文字なし
		"Passwords", // 数字なし
	}

	for _, p := range valid {
		if !validPassword(p) {
			t.Errorf("validPassword(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if validPassword(p) {
			t.Errorf("validPassword(%q) = true, want false", p)
		}
	}
}
