package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/mafundi/mafundi-cli/pkg/file"
)

const (
	keySize   = 32
	nonceSize = 12
)

// hkdfInfo binds derived keys to their use so the same secret can serve other purposes.
var hkdfInfo = []byte("mafundi session store v1")

// EncryptionManagerInterface defines encryption and decryption methods.
type EncryptionManagerInterface interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptionManager implements AES-GCM encryption.
type EncryptionManager struct {
	fileClient file.FileOperations
	aesgcm     cipher.AEAD
}

// NewEncryptionManager creates a new EncryptionManager instance.
func NewEncryptionManager(fileClient file.FileOperations) *EncryptionManager {
	return &EncryptionManager{fileClient: fileClient}
}

// InitializeFromFile reads the master secret at secretPath and derives the AES key from it.
func (a *EncryptionManager) InitializeFromFile(secretPath string) error {
	secret, err := a.fileClient.ReadFileRaw(secretPath)
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	return a.Initialize(secret)
}

// Initialize derives a 256-bit AES key from secret with HKDF-SHA256 and caches the cipher.
// The secret may be any length, but must not be empty.
func (a *EncryptionManager) Initialize(secret []byte) error {
	if len(secret) == 0 {
		return errors.New("secret is empty")
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), key); err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create AES cipher block: %w", err)
	}

	a.aesgcm, err = cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create AES-GCM: %w", err)
	}

	return nil
}

// GenerateSecret returns n random bytes suitable as a master secret.
func GenerateSecret(n int) ([]byte, error) {
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate secret: %w", err)
	}
	return secret, nil
}

// Encrypt encrypts plaintext using AES-GCM. The nonce is prepended to the output.
func (a *EncryptionManager) Encrypt(plaintext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return a.aesgcm.Seal(nonce[:], nonce[:], plaintext, nil), nil
}

// Decrypt decrypts ciphertext produced by Encrypt.
func (a *EncryptionManager) Decrypt(ciphertext []byte) ([]byte, error) {
	if a.aesgcm == nil {
		return nil, errors.New("encryption manager not initialized")
	}
	if len(ciphertext) < nonceSize {
		return nil, errors.New("ciphertext too short: must include nonce and encrypted data")
	}

	plaintext, err := a.aesgcm.Open(nil, ciphertext[:nonceSize], ciphertext[nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}

	return plaintext, nil
}
