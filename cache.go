package careerhub

import (
	"reflect"
	"sync"
	"time"
)

// ============================================================================
// Cache Entry Store
// ============================================================================

// Key is the structured identity of one cache slot: resource kind, owning
// user, and optional scope (e.g. a group id). Filtered list views are never
// cached and therefore never produce a Key.
type Key struct {
	Kind    string
	UserID  string
	ScopeID string
}

type cacheEntry struct {
	data any
	at   time.Time
}

// Store is a goroutine-safe keyed cache with a fixed time-to-live. There is
// no background eviction: staleness is detected lazily on the next read, and
// an expired entry simply stops being returned.
//
// The Store cannot fail; all failure handling belongs to the fetch path.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]cacheEntry
}

func newStore(ttl time.Duration, now func() time.Time) *Store {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		ttl:     ttl,
		now:     now,
		entries: make(map[Key]cacheEntry),
	}
}

// NewStore creates a standalone cache store. Clients construct their own
// shared store; this is exported for callers composing custom layers.
func NewStore(ttl time.Duration) *Store {
	return newStore(ttl, time.Now)
}

// Get returns the cached value for key if a fresh entry exists. Row slices
// are returned as copies; callers may patch the result freely.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.validLocked(e) {
		return nil, false
	}
	return cloneRows(e.data), true
}

// Set stores data under key, fully replacing any previous entry. Row slices
// are copied on the way in, so later in-place patches by the caller cannot
// reach the stored entry.
func (s *Store) Set(key Key, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = cacheEntry{data: cloneRows(data), at: s.now()}
}

// Invalidate removes the entry for key.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// InvalidateKind removes every entry of one resource kind.
func (s *Store) InvalidateKind(kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.Kind == kind {
			delete(s.entries, k)
		}
	}
}

// InvalidateUser removes every entry owned by one user.
func (s *Store) InvalidateUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if k.UserID == userID {
			delete(s.entries, k)
		}
	}
}

// InvalidateAll clears the store.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[Key]cacheEntry)
}

// Fresh reports whether a fresh entry exists for key without returning it.
func (s *Store) Fresh(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return ok && s.validLocked(e)
}

// Len returns the number of stored entries, fresh or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// validLocked: an entry is valid iff now - timestamp < TTL.
func (s *Store) validLocked(e cacheEntry) bool {
	return s.now().Sub(e.at) < s.ttl
}

// cloneRows copies slice values so stored entries are immutable snapshots.
// The cache is shared process-wide; without the copy, an optimistic patch
// applied by one consumer would leak into every later cache hit. Non-slice
// values are stored as-is.
func cloneRows(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface()
}
