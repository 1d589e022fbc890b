package trampoline

import (
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/reglet-hooks/domain/entities"
)

// AddressedStorage hands out opaque tokens for values. Entries are never
// removed: trampolines may be invoked for the rest of the process lifetime.
// It is safe for concurrent use.
type AddressedStorage struct {
	mu      sync.RWMutex
	entries map[entities.Token]any
	next    atomic.Uint64
}

// DefaultStorage is the process-wide store used by patchers created without WithStore.
var DefaultStorage = NewAddressedStorage()

// NewAddressedStorage creates an empty store.
func NewAddressedStorage() *AddressedStorage {
	return &AddressedStorage{entries: make(map[entities.Token]any)}
}

// Store keeps v and returns its token. Tokens start at 1; 0 is never issued.
func (s *AddressedStorage) Store(v any) entities.Token {
	token := entities.Token(s.next.Add(1))
	s.mu.Lock()
	s.entries[token] = v
	s.mu.Unlock()
	return token
}

// Fetch returns the value stored under token.
func (s *AddressedStorage) Fetch(token entities.Token) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[token]
	return v, ok
}

// Len returns the number of stored values.
func (s *AddressedStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
