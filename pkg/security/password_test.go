package security_test

import (
	"testing"

	"github.com/farhanmajid/bazario-backend/pkg/config"
	"github.com/farhanmajid/bazario-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatal("correct password did not verify")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword with wrong password: %v", err)
	}
	if ok {
		t.Fatal("wrong password verified")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateTempPassword(t *testing.T) {
	first, err := security.GenerateTempPassword(24)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if first == "" {
		t.Fatal("empty temp password")
	}

	second, err := security.GenerateTempPassword(24)
	if err != nil {
		t.Fatalf("GenerateTempPassword: %v", err)
	}
	if first == second {
		t.Fatal("consecutive temp passwords matched")
	}

	if _, err := security.GenerateTempPassword(0); err == nil {
		t.Fatal("expected error for non-positive length")
	}
}
