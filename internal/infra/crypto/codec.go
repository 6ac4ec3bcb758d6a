// Package crypto implements field-level symmetric encryption for PHI at rest.
package crypto

import (
	aescipher "crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrMalformedCiphertext indicates the token does not split into exactly
	// two hex segments.
	ErrMalformedCiphertext = errors.New("crypto: malformed ciphertext")
	// ErrDecryptionFailed indicates cipher verification failed (wrong key or
	// corrupted bytes).
	ErrDecryptionFailed = errors.New("crypto: decryption failed")
)

// KeySize is the required symmetric key length in bytes (AES-256).
const KeySize = 32

const maskPlaceholder = "***"

// Codec encrypts, decrypts, hashes, and masks scalar PHI values. It holds no
// state beyond the process-wide key; all operations are safe for concurrent
// use.
type Codec struct {
	aead   cipher.AEAD
	logger *zap.Logger
}

// NewCodec constructs a codec from a fixed-length symmetric key. An
// undersized key is a startup-time configuration fault.
func NewCodec(key []byte, logger *zap.Logger) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	block, err := aescipher.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}

	return &Codec{aead: aead, logger: logger}, nil
}

// Encrypt seals the plaintext under a fresh random IV and returns the
// "ivHex:cipherHex" token. The same plaintext never produces the same token
// twice.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails deterministically on malformed tokens
// and on cipher verification failure; callers never receive garbage
// plaintext.
func (c *Codec) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return "", ErrMalformedCiphertext
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != c.aead.NonceSize() {
		return "", ErrMalformedCiphertext
	}

	sealed, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformedCiphertext
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// Hash returns a one-way SHA-256 hex digest for values needing equality
// comparison without recoverability. Never use it where the original value
// must later be retrieved.
func (c *Codec) Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Mask reveals visible characters at each end and replaces the interior.
// Values too short to safely reveal anything collapse to a fixed placeholder
// instead of leaking their length.
func (c *Codec) Mask(value string, visible int) string {
	runes := []rune(value)
	if visible <= 0 || len(runes) <= 2*visible {
		return maskPlaceholder
	}

	interior := strings.Repeat("*", len(runes)-2*visible)
	return string(runes[:visible]) + interior + string(runes[len(runes)-visible:])
}

// EncryptFields encrypts the named subset of an entity's fields in place,
// skipping fields that are absent, empty, or not strings.
func (c *Codec) EncryptFields(entity map[string]any, fields []string) error {
	for _, field := range fields {
		value, ok := entity[field].(string)
		if !ok || value == "" {
			continue
		}

		encrypted, err := c.Encrypt(value)
		if err != nil {
			return fmt.Errorf("encrypt field %s: %w", field, err)
		}
		entity[field] = encrypted
	}
	return nil
}

// DecryptFields decrypts the named subset of an entity's fields in place. A
// field whose decryption fails is left untouched and a warning is recorded;
// one bad field must not abort the whole entity load.
func (c *Codec) DecryptFields(entity map[string]any, fields []string) {
	for _, field := range fields {
		value, ok := entity[field].(string)
		if !ok || value == "" {
			continue
		}

		plaintext, err := c.Decrypt(value)
		if err != nil {
			c.logger.Warn("field decryption failed, leaving value encrypted",
				zap.String("field", field),
				zap.Error(err),
			)
			continue
		}
		entity[field] = plaintext
	}
}
