package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is an exported constant or variable used by the session store.
// Backends return it when no record has been persisted yet.
var ErrNotFound = errors.New("session: record not found")

// ErrUnavailable is an exported constant or variable used by the session
// store. Backends return it (wrapped) when the underlying medium cannot be
// reached, as opposed to the record simply being absent.
var ErrUnavailable = errors.New("session: storage unavailable")

// Storage defines a public type used by tmauth APIs.
//
// A Storage persists the serialized credential record. Implementations must
// be safe for concurrent use. Load returns ErrNotFound when nothing has been
// saved; transport or medium failures wrap ErrUnavailable.
type Storage interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// MemoryStorage defines a public type used by tmauth APIs.
//
// MemoryStorage keeps the record in process memory. It is the default backend
// and the one used by most tests.
type MemoryStorage struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

// NewMemoryStorage describes the new memory storage operation and its
// observable behavior.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(_ context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

func (m *MemoryStorage) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.set = false
	return nil
}
