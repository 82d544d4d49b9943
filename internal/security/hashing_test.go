package security

import (
	"testing"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("secret123")
	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if hash == string(password) {
		t.Fatal("Hash must not equal the plaintext")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_CompareWrongSecret(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash([]byte("secret123"))
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Fatal("Compare with wrong secret should fail")
	}
}

func TestHasher_ComparePrefixDoesNotVerify(t *testing.T) {
	h := NewHasher(4)
	hash, _ := h.Hash([]byte("refresh-token-abc"))
	if err := h.Compare(hash, []byte("refresh-token-abc-tampered")); err == nil {
		t.Fatal("Compare with a same-prefix secret should fail")
	}
}

func TestHasher_HashTokenLongInput(t *testing.T) {
	h := NewHasher(4)
	tokens := NewTestTokenProvider()
	refresh, _, err := tokens.IssueRefresh(UserPayload{UserID: 1, Email: "a@b.test", TenantID: 2})
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if len(refresh) <= 72 {
		t.Fatalf("signed token unexpectedly short: %d bytes", len(refresh))
	}

	// Raw bcrypt rejects inputs over 72 bytes; HashToken must not.
	if _, err := h.Hash([]byte(refresh)); err == nil {
		t.Fatal("Hash should reject a 72+-byte input")
	}
	hash, err := h.HashToken(refresh)
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if err := h.CompareToken(hash, refresh); err != nil {
		t.Fatalf("CompareToken: %v", err)
	}
	if err := h.CompareToken(hash, refresh+"x"); err == nil {
		t.Fatal("CompareToken with a tampered token should fail")
	}
	if err := h.CompareToken(hash, refresh[:len(refresh)-1]); err == nil {
		t.Fatal("CompareToken with a truncated token should fail")
	}
}

func TestHasher_Cost(t *testing.T) {
	h := NewHasher(12)
	if h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	h0 := NewHasher(0)
	if h0.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h0.Cost)
	}
}
