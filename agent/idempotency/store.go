package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	ErrEntryNotFound = errors.New("idempotency entry not found")
	ErrNilEntry      = errors.New("idempotency entry is nil")
	ErrInvalidKey    = errors.New("idempotency key is empty")
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	defaultTTL     = 24 * time.Hour
	maxKeyLength   = 255
	maxStoredBytes = 1 << 20
)

// Entry is a stored HTTP response keyed by the client's Idempotency-Key.
type Entry struct {
	Key        string          `json:"key"`
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Store interface {
	Load(ctx context.Context, key string) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
}

func ValidateKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ErrInvalidKey
	}
	if len(trimmed) > maxKeyLength {
		return errors.New("idempotency key is too long")
	}
	return nil
}

// MemoryStore keeps entries in process memory. Expired entries are dropped
// on Load and swept in bulk from Save at most every ttl/2.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	nextSweep time.Time
	now       func() time.Time
}

type memoryEntry struct {
	entry     Entry
	expiresAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[key]
	if !ok {
		return nil, ErrEntryNotFound
	}
	if !s.now().Before(stored.expiresAt) {
		delete(s.entries, key)
		return nil, ErrEntryNotFound
	}
	cp := stored.entry
	return &cp, nil
}

// Save stores the entry only if no live entry holds the key, so the first response wins.
func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrNilEntry
	}
	if err := ValidateKey(entry.Key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	if stored, ok := s.entries[entry.Key]; ok && now.Before(stored.expiresAt) {
		return nil
	}

	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now.UTC()
	}
	s.entries[cp.Key] = memoryEntry{entry: cp, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) sweepLocked(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for key, stored := range s.entries {
		if !now.Before(stored.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.nextSweep = now.Add(s.ttl / 2)
}
