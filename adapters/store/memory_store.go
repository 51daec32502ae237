package store

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/layer-3/simorgh/core"
	"github.com/layer-3/simorgh/ports"
)

// MemoryOTPStore is an in-memory OTP store for tests and local development.
// Entries expire lazily on read, mirroring the Redis key TTL.
type MemoryOTPStore struct {
	mu      sync.Mutex
	records map[string]*memoryOTPEntry
}

type memoryOTPEntry struct {
	rec     core.OTPRecord
	evictAt time.Time
}

// NewMemoryOTPStore creates an in-memory OTP store.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{records: make(map[string]*memoryOTPEntry)}
}

func (s *MemoryOTPStore) PutCode(ctx context.Context, rec core.OTPRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.Phone] = &memoryOTPEntry{
		rec:     rec,
		evictAt: rec.ExpiresAt.Add(recordGrace),
	}
	return nil
}

func (s *MemoryOTPStore) GetCode(ctx context.Context, phone string) (*core.OTPRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(phone)
	if entry == nil {
		return nil, core.ErrCodeNotFound
	}
	rec := entry.rec
	return &rec, nil
}

func (s *MemoryOTPStore) ConsumeCode(ctx context.Context, phone string, codeHash []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(phone)
	if entry == nil || !bytes.Equal(entry.rec.CodeHash, codeHash) {
		return false, nil
	}
	delete(s.records, phone)
	return true, nil
}

func (s *MemoryOTPStore) FailAttempt(ctx context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.live(phone)
	if entry == nil {
		return 0, core.ErrCodeNotFound
	}
	entry.rec.AttemptsLeft--
	if entry.rec.AttemptsLeft <= 0 {
		delete(s.records, phone)
		return 0, nil
	}
	return entry.rec.AttemptsLeft, nil
}

func (s *MemoryOTPStore) DeleteCode(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, phone)
	return nil
}

// live returns the entry for phone, evicting it first if past its TTL.
// Callers must hold the lock.
func (s *MemoryOTPStore) live(phone string) *memoryOTPEntry {
	entry, ok := s.records[phone]
	if !ok {
		return nil
	}
	if time.Now().After(entry.evictAt) {
		delete(s.records, phone)
		return nil
	}
	return entry
}

// MemoryRevocationStore is an in-memory revocation list for tests and local
// development.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewMemoryRevocationStore creates an in-memory revocation store.
func NewMemoryRevocationStore() ports.RevocationStore {
	return &MemoryRevocationStore{revoked: make(map[string]time.Time)}
}

func (s *MemoryRevocationStore) InvalidateToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[tokenID] = time.Now().Add(ttl)
	return nil
}

func (s *MemoryRevocationStore) InvalidateTokenOnce(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expiry, ok := s.revoked[tokenID]; ok && time.Now().Before(expiry) {
		return false, nil
	}
	s.revoked[tokenID] = time.Now().Add(ttl)
	return true, nil
}

func (s *MemoryRevocationStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
