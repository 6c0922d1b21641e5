package services

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	const password = "sup3r!secret"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if strings.Contains(hash, password) {
		t.Error("hash contains the plain password")
	}
	if !strings.Contains(hash, "$") {
		t.Errorf("hash missing salt separator: %q", hash)
	}

	ok, err := VerifyPassword(hash, password)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = (%v, %v)", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong!pass1")
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = (%v, %v)", ok, err)
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	const password = "sup3r!secret"

	a, err := HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHashPasswordPolicy(t *testing.T) {
	weak := []string{
		"short",       // too short
		"nodigits!",   // no number
		"nospecials1", // no special character
		"",            // empty
	}
	for _, password := range weak {
		if _, err := HashPassword(password); err == nil {
			t.Errorf("HashPassword(%q) accepted a weak password", password)
		}
	}
}

func TestComparePasswordsMalformedHash(t *testing.T) {
	if ComparePasswords("not-a-valid-hash", "whatever1!") {
		t.Error("malformed hash compared as a match")
	}
}
