package pass_test

import (
	"testing"

	"github.com/visitgate/visitgate/internal/visitgate/pass"
)

func newTestSigner(t *testing.T, key string) *pass.Signer {
	t.Helper()
	s, err := pass.NewSigner([]byte(key))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestNewSigner_RejectsEmptyKey(t *testing.T) {
	if _, err := pass.NewSigner(nil); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestSigner_SignVerify(t *testing.T) {
	s := newTestSigner(t, "signing-secret")

	sig := s.Sign("visitor-001", "pass-001", 1772366400000)
	if sig == "" {
		t.Fatal("expected a signature")
	}
	if !s.Verify("visitor-001", "pass-001", 1772366400000, sig) {
		t.Error("signature must verify against the same inputs")
	}
}

func TestSigner_SignIsDeterministic(t *testing.T) {
	s := newTestSigner(t, "signing-secret")

	a := s.Sign("visitor-001", "pass-001", 1772366400000)
	b := s.Sign("visitor-001", "pass-001", 1772366400000)
	if a != b {
		t.Error("same inputs must produce the same signature")
	}
}

func TestSigner_VerifyRejectsChangedInputs(t *testing.T) {
	s := newTestSigner(t, "signing-secret")
	sig := s.Sign("visitor-001", "pass-001", 1772366400000)

	if s.Verify("visitor-002", "pass-001", 1772366400000, sig) {
		t.Error("different visitor must not verify")
	}
	if s.Verify("visitor-001", "pass-002", 1772366400000, sig) {
		t.Error("different pass must not verify")
	}
	if s.Verify("visitor-001", "pass-001", 1772366400001, sig) {
		t.Error("different timestamp must not verify")
	}
}

func TestSigner_VerifyRejectsOtherKey(t *testing.T) {
	a := newTestSigner(t, "key-a")
	b := newTestSigner(t, "key-b")

	sig := a.Sign("visitor-001", "pass-001", 1772366400000)
	if b.Verify("visitor-001", "pass-001", 1772366400000, sig) {
		t.Error("signature from another key must not verify")
	}
}

func TestSigner_VerifyRejectsGarbage(t *testing.T) {
	s := newTestSigner(t, "signing-secret")

	if s.Verify("visitor-001", "pass-001", 1772366400000, "") {
		t.Error("empty signature must not verify")
	}
	if s.Verify("visitor-001", "pass-001", 1772366400000, "not hex at all") {
		t.Error("non-hex signature must not verify")
	}
}
