package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// パスワードハッシュのコストと入力上限（bcryptは72バイトで切り詰める）
const (
	hashCost       = 12
	maxPasswordLen = 72
)

// HashPassword はパスワードをbcryptでハッシュ化する。
// ハッシュは検証専用で、平文を復元することはできない。
func HashPassword(password string) (string, error) {
	if len(password) > maxPasswordLen {
		return "", errors.New("password exceeds 72 bytes and would be truncated by bcrypt")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// CheckPasswordHash は平文パスワードと保存済みハッシュを比較する。
// 一致する場合のみtrueを返す。
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
