package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"

	"github.com/mafundi/mafundi-cli/pkg/encryption"
	"github.com/mafundi/mafundi-cli/pkg/file"
)

// KeyringService groups the client's entries in the OS keychain.
const KeyringService = "mafundi"

// FileStore keeps the session AES-GCM encrypted on disk. A lock file
// serialises access between concurrently running CLI processes.
type FileStore struct {
	path       string
	lock       *flock.Flock
	fileOps    file.FileOperations
	encryption encryption.EncryptionManagerInterface
}

// NewFileStore creates a FileStore at path, locked through lockPath.
func NewFileStore(path, lockPath string, fileOps file.FileOperations, em encryption.EncryptionManagerInterface) *FileStore {
	return &FileStore{
		path:       path,
		lock:       flock.New(lockPath),
		fileOps:    fileOps,
		encryption: em,
	}
}

// Save encrypts and writes s.
func (f *FileStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	encrypted, err := f.encryption.Encrypt(data)
	if err != nil {
		return fmt.Errorf("failed to encrypt session: %w", err)
	}

	if err := f.acquire(false); err != nil {
		return err
	}
	defer f.lock.Unlock()

	return f.fileOps.WriteFileRaw(f.path, encrypted)
}

// Load reads and decrypts the stored session.
func (f *FileStore) Load() (*Session, error) {
	if err := f.acquire(true); err != nil {
		return nil, err
	}
	data, err := f.fileOps.ReadFileRaw(f.path)
	f.lock.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoSession
	}

	decrypted, err := f.encryption.Decrypt(data)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(decrypted, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &s, nil
}

// Delete removes the session file.
func (f *FileStore) Delete() error {
	if err := f.acquire(false); err != nil {
		return err
	}
	defer f.lock.Unlock()

	return f.fileOps.RemoveFile(f.path)
}

func (f *FileStore) acquire(shared bool) error {
	if err := os.MkdirAll(filepath.Dir(f.lock.Path()), 0700); err != nil {
		return err
	}
	lock := f.lock.Lock
	if shared {
		lock = f.lock.RLock
	}
	if err := lock(); err != nil {
		return fmt.Errorf("failed to lock session file: %w", err)
	}
	return nil
}

// KeyringStore keeps the session in the OS keychain.
type KeyringStore struct {
	account string
}

// NewKeyringStore creates a store under the given keychain account.
func NewKeyringStore(account string) *KeyringStore {
	return &KeyringStore{account: account}
}

func (k *KeyringStore) Save(s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return keyring.Set(KeyringService, k.account, string(data))
}

func (k *KeyringStore) Load() (*Session, error) {
	data, err := keyring.Get(KeyringService, k.account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}
	return &s, nil
}

func (k *KeyringStore) Delete() error {
	if err := keyring.Delete(KeyringService, k.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

// LoadOrCreateSecret returns the master secret at path, generating one on first use.
func LoadOrCreateSecret(fileOps file.FileOperations, path string) ([]byte, error) {
	exists, err := fileOps.IsFileExists(path)
	if err != nil {
		return nil, err
	}
	if exists {
		return fileOps.ReadFileRaw(path)
	}

	secret, err := encryption.GenerateSecret(32)
	if err != nil {
		return nil, err
	}
	if err := fileOps.WriteFileRaw(path, secret); err != nil {
		return nil, fmt.Errorf("failed to write secret: %w", err)
	}
	return secret, nil
}
