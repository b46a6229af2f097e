// Package keystore holds derived content keys for the lifetime of the process.
package keystore

import (
	"bytes"
	"fmt"
	"sync"

	"hlsgate/models"
	"hlsgate/util"
)

// Store maps key ids to derived keys. It is safe for concurrent use.
// Entries are never evicted.
type Store struct {
	mu   sync.RWMutex
	keys map[string]models.DerivedKey
}

func New() *Store {
	return &Store{
		keys: make(map[string]models.DerivedKey),
	}
}

func (s *Store) Has(kid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.keys[kid]
	return ok
}

func (s *Store) Get(kid string) (models.DerivedKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: kid %s", util.ErrKeyNotFound, kid)
	}
	return bytes.Clone(key), nil
}

// Set stores key under kid, replacing any previous entry.
func (s *Store) Set(kid string, key models.DerivedKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[kid] = bytes.Clone(key)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
