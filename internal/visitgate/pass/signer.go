package pass

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Signer computes the tamper-evidence signature attached to visitor pass
// payloads.  The signing key must be distinct from the cipher key: CBC
// encryption alone does not authenticate, so the signature is what lets a
// validator tell a forged-but-decryptable payload from a minted one.
type Signer struct {
	key []byte
}

// NewSigner returns a signer.  Any non-empty key length is accepted.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("pass: signing key must not be empty")
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}, nil
}

// Sign returns the hex HMAC-SHA256 over (visitorID, passID, issuedAtMs).
func (s *Signer) Sign(visitorID, passID string, issuedAtMs int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s:%s:%d", visitorID, passID, issuedAtMs)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature in constant time.
func (s *Signer) Verify(visitorID, passID string, issuedAtMs int64, signature string) bool {
	want, err := hex.DecodeString(s.Sign(visitorID, passID, issuedAtMs))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}
