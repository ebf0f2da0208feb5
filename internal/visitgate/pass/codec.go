package pass

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/visitgate/visitgate/internal/visitgate/types"
)

var (
	// ErrMalformedBlob is returned when a blob is not two colon-delimited
	// hex segments.  The content was never a pass.
	ErrMalformedBlob = errors.New("pass: malformed blob")

	// ErrIntegrity is returned when a structurally valid blob fails to
	// decrypt or deserialize.  Tampering, corruption and a rotated key are
	// indistinguishable here; the blob is rejected outright.
	ErrIntegrity = errors.New("pass: integrity check failed")
)

// KeySize is the required cipher key length (AES-256).
const KeySize = 32

// Codec encrypts pass payloads into transportable blobs and back.
// The wire format is <ivHex>:<ciphertextHex>: AES-256-CBC with a fresh
// random IV per call and PKCS#7 padding, which is what deployed scanners
// already decode.  A Codec holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	key []byte
}

// NewCodec returns a codec keyed with a KeySize-byte secret.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("pass: cipher key must be %d bytes, got %d", KeySize, len(key))
	}
	k := make([]byte, KeySize)
	copy(k, key)
	return &Codec{key: k}, nil
}

// Encrypt serializes and encrypts a payload.
func (c *Codec) Encrypt(payload types.PassPayload) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("pass: marshal payload: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("pass: cipher init: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("pass: iv generation: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.  It fails closed: any structural problem is
// ErrMalformedBlob, anything past that is ErrIntegrity, and no partially
// decoded payload is ever returned.
func (c *Codec) Decrypt(blob string) (types.PassPayload, error) {
	parts := strings.Split(blob, ":")
	if len(parts) != 2 {
		return types.PassPayload{}, ErrMalformedBlob
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return types.PassPayload{}, ErrMalformedBlob
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return types.PassPayload{}, ErrMalformedBlob
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return types.PassPayload{}, fmt.Errorf("pass: cipher init: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	unpadded, ok := pkcs7Unpad(plaintext, aes.BlockSize)
	if !ok {
		return types.PassPayload{}, ErrIntegrity
	}

	var payload types.PassPayload
	dec := json.NewDecoder(bytes.NewReader(unpadded))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return types.PassPayload{}, ErrIntegrity
	}
	return payload, nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, bool) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, false
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
