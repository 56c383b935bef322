package secure

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrEmpty is returned when sealing zero bytes; memguard has no empty enclave.
var ErrEmpty = errors.New("secure: cannot seal empty data")

// ErrDestroyed is returned when a destroyed buffer is used.
var ErrDestroyed = errors.New("secure: buffer destroyed")

// ErrUnseal is returned when the enclave cannot be decrypted into locked
// memory, typically because RLIMIT_MEMLOCK is too low for the document.
var ErrUnseal = errors.New("secure: cannot unseal into locked memory")

// openEnclave is swapped in tests to simulate memguard failures.
var openEnclave = func(e *memguard.Enclave) (*memguard.LockedBuffer, error) {
	return e.Open()
}

// SecureBuffer provides memory-safe storage for a fetched document.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// NewSecureBuffer seals data into an encrypted enclave. memguard wipes data
// once it has been copied, so callers must not reuse the slice.
func NewSecureBuffer(data []byte) (*SecureBuffer, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	size := len(data)
	return &SecureBuffer{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}, nil
}

// Len returns the number of sealed bytes.
func (s *SecureBuffer) Len() int {
	return s.size
}

// Open decrypts the enclave into a read-only locked buffer. The caller must
// Destroy the returned buffer. memguard panics instead of returning an error
// when memory cannot be locked; that panic is reported as ErrUnseal.
func (s *SecureBuffer) Open() (locked *memguard.LockedBuffer, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return nil, ErrDestroyed
	}

	defer func() {
		if r := recover(); r != nil {
			locked, err = nil, fmt.Errorf("%w: %v", ErrUnseal, r)
		}
	}()
	return openEnclave(s.enclave)
}

// WriteFile unseals the contents and writes them to path with perm,
// creating or truncating the file. Destroying the locked buffer wipes the
// plaintext.
func (s *SecureBuffer) WriteFile(path string, perm os.FileMode) error {
	locked, err := s.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	// The buffer is frozen read-only, so it must not be wiped in place.
	return writeFile(path, locked.Bytes(), perm)
}

// WriteFile creates or truncates path, writes data, applies perm even when
// the file already existed, and wipes data. data must be writable memory
// owned by the caller.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	defer memguard.WipeBytes(data)
	return writeFile(path, data, perm)
}

func writeFile(path string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(path, data, perm); err != nil {
		return err
	}
	return os.Chmod(path, perm)
}

// Destroy drops the enclave. It is idempotent; the encrypted enclave is
// reclaimed by the garbage collector and memguard.Purge clears the keys at exit.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}
