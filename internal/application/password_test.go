package application

import (
	"errors"
	"strings"
	"testing"
)

var fastArgon2idParams = Argon2idParams{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestCreatePasswordHash(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("open sesame", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Fatalf("expected PHC formatted hash, got %q", hash)
	}

	other, err := CreatePasswordHash("open sesame", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}
	if hash == other {
		t.Fatalf("expected differing salts to produce differing hashes")
	}
}

func TestVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := CreatePasswordHash("open sesame", fastArgon2idParams)
	if err != nil {
		t.Fatalf("CreatePasswordHash failed: %v", err)
	}

	if err := VerifyPassword(hash, "open sesame"); err != nil {
		t.Fatalf("expected matching password to verify, got %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := VerifyPassword("not-a-hash", "open sesame"); !errors.Is(err, ErrInvalidPasswordHash) {
		t.Fatalf("expected ErrInvalidPasswordHash, got %v", err)
	}
}
