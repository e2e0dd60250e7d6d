package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	sealedPrefix = "v1."

	kdfTime    = 1
	kdfMemory  = 64 * 1024
	kdfThreads = 2
)

// kdfSalt is fixed so the same secrets key always yields the same sealing key.
var kdfSalt = []byte("vitrine/carrier-token/v1")

// ErrInvalidSealed signals a value that was not produced by Sealer.Seal or was
// bound to a different scope.
var ErrInvalidSealed = errors.New("invalid sealed value")

// Sealer encrypts carrier credentials at rest with XChaCha20-Poly1305.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the sealing key from the configured secrets key with Argon2id.
func NewSealer(cfg config.SecretsConfig) (*Sealer, error) {
	secret := strings.TrimSpace(cfg.Key)
	if len(secret) < 16 {
		return nil, fmt.Errorf("secrets key must be at least 16 characters")
	}
	key := argon2.IDKey([]byte(secret), kdfSalt, kdfTime, kdfMemory, kdfThreads, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init aead: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext bound to scope (the owning store id). Empty input
// seals to the empty string.
func (s *Sealer) Seal(plaintext, scope string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(scope))
	return sealedPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// Open reverses Seal for the same scope.
func (s *Sealer) Open(sealed, scope string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	if !strings.HasPrefix(sealed, sealedPrefix) {
		return "", ErrInvalidSealed
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(sealed, sealedPrefix))
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return "", ErrInvalidSealed
	}
	nonce, box := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, box, []byte(scope))
	if err != nil {
		return "", ErrInvalidSealed
	}
	return string(plain), nil
}
