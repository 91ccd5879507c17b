package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPasswordHash("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if CheckPasswordHash("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
}

// 同一パスワードでもソルトによりハッシュは毎回異なる
func TestHashPassword_SaltedHashesDiffer(t *testing.T) {
	h1, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	h2, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ")
	}
}

// bcryptの72バイト上限を超える入力は拒否する
func TestHashPassword_TooLong_ReturnsError(t *testing.T) {
	long := strings.Repeat("a", 73)
	if _, err := HashPassword(long); err == nil {
		t.Error("expected error for password longer than 72 bytes")
	}
}

func TestCheckPasswordHash_InvalidHash_ReturnsFalse(t *testing.T) {
	if CheckPasswordHash("anything", "not-a-bcrypt-hash") {
		t.Error("invalid hash should not verify")
	}
}
