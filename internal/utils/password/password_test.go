package password

import "testing"

func TestHashAndCheck(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("Expected hash to differ from the password")
	}

	if !CheckPasswordHash("s3cret!", hash) {
		t.Fatal("Expected matching password to pass")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("Expected wrong password to fail")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Fatal("Expected two hashes of the same password to differ")
	}
}
