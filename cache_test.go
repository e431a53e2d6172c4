package careerhub

import (
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakeClock is a manually advanced time source for freshness tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// ============================================================================
// Store
// ============================================================================

func TestStoreFreshness(t *testing.T) {
	key := Key{Kind: kindGroups, UserID: "user-1"}

	t.Run("entry just under TTL is fresh", func(t *testing.T) {
		clock := newFakeClock()
		s := newStore(5*time.Minute, clock.Now)
		s.Set(key, []Group{{ID: "g1"}})

		clock.Advance(5*time.Minute - time.Millisecond)
		if _, ok := s.Get(key); !ok {
			t.Fatal("expected entry at TTL-1ms to be fresh")
		}
	})

	t.Run("entry exactly at TTL is stale", func(t *testing.T) {
		clock := newFakeClock()
		s := newStore(5*time.Minute, clock.Now)
		s.Set(key, []Group{{ID: "g1"}})

		clock.Advance(5 * time.Minute)
		if _, ok := s.Get(key); ok {
			t.Fatal("expected entry exactly at TTL to be stale")
		}
	})

	t.Run("set resets the freshness window", func(t *testing.T) {
		clock := newFakeClock()
		s := newStore(5*time.Minute, clock.Now)
		s.Set(key, []Group{{ID: "old"}})

		clock.Advance(4 * time.Minute)
		s.Set(key, []Group{{ID: "new"}})

		clock.Advance(4 * time.Minute)
		v, ok := s.Get(key)
		if !ok {
			t.Fatal("expected refreshed entry to still be fresh")
		}
		if v.([]Group)[0].ID != "new" {
			t.Fatal("expected replacement data")
		}
	})

	t.Run("stale entry is retained until replaced", func(t *testing.T) {
		clock := newFakeClock()
		s := newStore(5*time.Minute, clock.Now)
		s.Set(key, "data")

		clock.Advance(10 * time.Minute)
		if _, ok := s.Get(key); ok {
			t.Fatal("expected stale miss")
		}
		if s.Len() != 1 {
			t.Fatalf("expected stale entry to remain stored, len=%d", s.Len())
		}
	})
}

func TestStoreSnapshotIsolation(t *testing.T) {
	key := Key{Kind: kindGroups, UserID: "user-1"}

	t.Run("mutating the stored slice does not reach the entry", func(t *testing.T) {
		s := newStore(5*time.Minute, newFakeClock().Now)
		rows := []Group{{ID: "g1", MemberCount: 3}}
		s.Set(key, rows)

		rows[0].MemberCount = 99
		v, ok := s.Get(key)
		if !ok {
			t.Fatal("expected a fresh entry")
		}
		if got := v.([]Group)[0].MemberCount; got != 3 {
			t.Fatalf("cache entry mutated through caller slice: count=%d", got)
		}
	})

	t.Run("mutating a returned slice does not reach the entry", func(t *testing.T) {
		s := newStore(5*time.Minute, newFakeClock().Now)
		s.Set(key, []Group{{ID: "g1", IsMember: false}})

		v, _ := s.Get(key)
		v.([]Group)[0].IsMember = true

		again, _ := s.Get(key)
		if again.([]Group)[0].IsMember {
			t.Fatal("cache entry mutated through returned slice")
		}
	})
}

func TestStoreKeyIsolation(t *testing.T) {
	clock := newFakeClock()
	s := newStore(5*time.Minute, clock.Now)

	s.Set(Key{Kind: kindPosts, UserID: "user-1", ScopeID: "g1"}, "g1-posts")
	s.Set(Key{Kind: kindPosts, UserID: "user-1", ScopeID: "g2"}, "g2-posts")
	s.Set(Key{Kind: kindPosts, UserID: "user-2", ScopeID: "g1"}, "other-user")

	v, ok := s.Get(Key{Kind: kindPosts, UserID: "user-1", ScopeID: "g1"})
	if !ok || v != "g1-posts" {
		t.Fatalf("expected g1-posts, got %v", v)
	}
	if _, ok := s.Get(Key{Kind: kindPosts, UserID: "user-1", ScopeID: "g3"}); ok {
		t.Fatal("unexpected hit for unknown scope")
	}
}

func TestStoreInvalidation(t *testing.T) {
	t.Run("single key", func(t *testing.T) {
		s := NewStore(5 * time.Minute)
		k1 := Key{Kind: kindGroups, UserID: "u"}
		k2 := Key{Kind: kindPosts, UserID: "u", ScopeID: "g1"}
		s.Set(k1, 1)
		s.Set(k2, 2)

		s.Invalidate(k1)
		if _, ok := s.Get(k1); ok {
			t.Fatal("expected k1 invalidated")
		}
		if _, ok := s.Get(k2); !ok {
			t.Fatal("expected k2 untouched")
		}
	})

	t.Run("by kind", func(t *testing.T) {
		s := NewStore(5 * time.Minute)
		s.Set(Key{Kind: kindPosts, UserID: "u", ScopeID: "g1"}, 1)
		s.Set(Key{Kind: kindPosts, UserID: "u", ScopeID: "g2"}, 2)
		s.Set(Key{Kind: kindGroups, UserID: "u"}, 3)

		s.InvalidateKind(kindPosts)
		if s.Len() != 1 {
			t.Fatalf("expected 1 entry left, got %d", s.Len())
		}
		if _, ok := s.Get(Key{Kind: kindGroups, UserID: "u"}); !ok {
			t.Fatal("expected groups entry to survive")
		}
	})

	t.Run("by user", func(t *testing.T) {
		s := NewStore(5 * time.Minute)
		s.Set(Key{Kind: kindGroups, UserID: "a"}, 1)
		s.Set(Key{Kind: kindMilestones, UserID: "a"}, 2)
		s.Set(Key{Kind: kindGroups, UserID: "b"}, 3)

		s.InvalidateUser("a")
		if s.Len() != 1 {
			t.Fatalf("expected 1 entry left, got %d", s.Len())
		}
	})

	t.Run("all", func(t *testing.T) {
		s := NewStore(5 * time.Minute)
		s.Set(Key{Kind: kindGroups, UserID: "a"}, 1)
		s.Set(Key{Kind: kindStories, UserID: "b"}, 2)

		s.InvalidateAll()
		if s.Len() != 0 {
			t.Fatalf("expected empty store, got %d", s.Len())
		}
	})
}

func TestStoreFresh(t *testing.T) {
	clock := newFakeClock()
	s := newStore(time.Minute, clock.Now)
	key := Key{Kind: kindCheckin, UserID: "u"}

	if s.Fresh(key) {
		t.Fatal("expected missing key to be not fresh")
	}
	s.Set(key, nil)
	if !s.Fresh(key) {
		t.Fatal("expected fresh after set")
	}
	clock.Advance(time.Minute)
	if s.Fresh(key) {
		t.Fatal("expected not fresh after TTL")
	}
}
