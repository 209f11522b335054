// Package credential はパスワードのハッシュ化と検証を提供する。
package credential

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はbcryptによるパスワードハッシュ化を行う。
// コストはパラメータ化されており、同一平文でも呼び出しごとに
// 異なるダイジェストを生成する（ソルトはbcryptが内部で付与する）。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文パスワードのダイジェストを生成する。
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードとダイジェストの一致を検証する。
// 比較は一定時間で行われる。不一致・不正なダイジェストのいずれもfalseを返す。
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
