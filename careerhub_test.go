package careerhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// ============================================================================
// Test Helpers
// ============================================================================

// fakeBackend is an in-memory stand-in for the hosted CRUD backend. Routes
// are registered per method+path; every hit is counted.
type fakeBackend struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	counts   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		handlers: make(map[string]http.HandlerFunc),
		counts:   make(map[string]int),
	}
}

func (b *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[method+" "+path] = h
}

func (b *fakeBackend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[method+" "+path]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	b.mu.Lock()
	h, ok := b.handlers[key]
	b.counts[key]++
	b.mu.Unlock()
	if !ok {
		http.Error(w, `{"message":"no route"}`, http.StatusNotFound)
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, backend http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return NewClient("test-token", append([]ClientOption{WithBaseURL(srv.URL)}, opts...)...)
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ============================================================================
// Request Normalization
// ============================================================================

func TestRequestNormalization(t *testing.T) {
	t.Run("structured API error", func(t *testing.T) {
		b := newFakeBackend()
		b.handle(http.MethodGet, "/rest/v1/support_groups", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusForbidden, map[string]string{"message": "row-level security", "code": "42501"})
		})
		client := newTestClient(t, b)

		res := client.Groups().List(testCtx(t), nil)
		if res.OK() {
			t.Fatal("expected error result")
		}
		if res.Error.Message != "row-level security" || res.Error.Code != "42501" {
			t.Fatalf("unexpected error: %+v", res.Error)
		}
		if res.Error.Status != http.StatusForbidden {
			t.Fatalf("expected status 403, got %d", res.Error.Status)
		}
	})

	t.Run("non-JSON error body falls back to status text", func(t *testing.T) {
		b := newFakeBackend()
		b.handle(http.MethodGet, "/rest/v1/support_groups", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>bad gateway</html>"))
		})
		client := newTestClient(t, b)

		res := client.Groups().List(testCtx(t), nil)
		if res.OK() {
			t.Fatal("expected error result")
		}
		if res.Error.Message != "Bad Gateway" {
			t.Fatalf("expected status text fallback, got %q", res.Error.Message)
		}
	})

	t.Run("transport failure is a network error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		client := NewClient("tok", WithBaseURL(url))

		res := client.Groups().List(testCtx(t), nil)
		if res.OK() {
			t.Fatal("expected error result")
		}
		if res.Error.Code != "network_error" {
			t.Fatalf("expected network_error, got %q", res.Error.Code)
		}
	})

	t.Run("auth and prefer headers", func(t *testing.T) {
		b := newFakeBackend()
		var auth, prefer string
		b.handle(http.MethodPost, "/rest/v1/supporters", func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			prefer = r.Header.Get("Prefer")
			writeJSON(w, http.StatusCreated, []Supporter{{ID: "s1"}})
		})
		client := newTestClient(t, b)

		res := client.Support().AddSupporter(testCtx(t), &AddSupporterOptions{UserID: "u", Name: "Dana"})
		if !res.OK() {
			t.Fatalf("unexpected error: %v", res.Error)
		}
		if auth != "Bearer test-token" {
			t.Fatalf("unexpected auth header: %q", auth)
		}
		if prefer != "return=representation" {
			t.Fatalf("unexpected prefer header: %q", prefer)
		}
	})
}

// ============================================================================
// GroupsService
// ============================================================================

func TestGroupsListFilter(t *testing.T) {
	b := newFakeBackend()
	var query map[string][]string
	b.handle(http.MethodGet, "/rest/v1/support_groups", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		writeJSON(w, http.StatusOK, []Group{})
	})
	client := newTestClient(t, b)

	res := client.Groups().List(testCtx(t), &GroupFilter{
		Category:  "tech",
		CreatedBy: "user-1",
		Search:    "resume",
	})
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Error)
	}

	// Every set field becomes one predicate, ANDed together.
	if got := query["category"]; len(got) != 1 || got[0] != "eq.tech" {
		t.Fatalf("category predicate: %v", got)
	}
	if got := query["created_by"]; len(got) != 1 || got[0] != "eq.user-1" {
		t.Fatalf("created_by predicate: %v", got)
	}
	if got := query["name"]; len(got) != 1 || got[0] != "ilike.*resume*" {
		t.Fatalf("name predicate: %v", got)
	}
}

func TestGroupsJoin(t *testing.T) {
	t.Run("already a member", func(t *testing.T) {
		b := newFakeBackend()
		b.handle(http.MethodGet, "/rest/v1/group_members", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []GroupMembership{{ID: "m1", GroupID: "g1", UserID: "u1"}})
		})
		client := newTestClient(t, b)

		res := client.Groups().Join(testCtx(t), "g1", "u1")
		if res.OK() {
			t.Fatal("expected conflict error")
		}
		if res.Error.Status != http.StatusBadRequest || res.Error.Code != "conflict" {
			t.Fatalf("unexpected error: %+v", res.Error)
		}
	})

	t.Run("counter bump failure does not fail the join", func(t *testing.T) {
		b := newFakeBackend()
		b.handle(http.MethodGet, "/rest/v1/group_members", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, []GroupMembership{})
		})
		b.handle(http.MethodPost, "/rest/v1/group_members", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusCreated, []GroupMembership{{ID: "m1", GroupID: "g1", UserID: "u1"}})
		})
		b.handle(http.MethodPost, "/rest/v1/rpc/bump_counter", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "rpc unavailable"})
		})
		client := newTestClient(t, b)

		res := client.Groups().Join(testCtx(t), "g1", "u1")
		if !res.OK() {
			t.Fatalf("membership insert succeeded, join must succeed: %v", res.Error)
		}
		if b.count(http.MethodPost, "/rest/v1/rpc/bump_counter") != 1 {
			t.Fatal("expected one bump attempt")
		}
	})
}

// ============================================================================
// SupportService
// ============================================================================

func TestProfileByEmail(t *testing.T) {
	b := newFakeBackend()
	b.handle(http.MethodGet, "/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "eq.dana@example.com" {
			writeJSON(w, http.StatusOK, []Profile{})
			return
		}
		writeJSON(w, http.StatusOK, []Profile{{ID: "u1", Email: "dana@example.com", FullName: "Dana", TeamID: "team-1"}})
	})
	client := newTestClient(t, b)

	t.Run("known email resolves the profile", func(t *testing.T) {
		res := client.ProfileByEmail(testCtx(t), "dana@example.com")
		if !res.OK() || res.Data == nil {
			t.Fatalf("expected a profile, got %+v", res)
		}
		if res.Data.ID != "u1" || res.Data.TeamID != "team-1" {
			t.Fatalf("unexpected profile: %+v", res.Data)
		}
	})

	t.Run("unknown email is no rows, not an error", func(t *testing.T) {
		res := client.ProfileByEmail(testCtx(t), "nobody@example.com")
		if !res.OK() {
			t.Fatalf("unexpected error: %v", res.Error)
		}
		if res.Data != nil {
			t.Fatalf("expected nil data, got %+v", res.Data)
		}
	})
}

func TestTodayCheckinNoRows(t *testing.T) {
	b := newFakeBackend()
	var day string
	b.handle(http.MethodGet, "/rest/v1/stress_checkins", func(w http.ResponseWriter, r *http.Request) {
		day = r.URL.Query().Get("day")
		writeJSON(w, http.StatusOK, []StressCheckin{})
	})
	fixed := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	client := newTestClient(t, b, WithClock(func() time.Time { return fixed }))

	res := client.Support().TodayCheckin(testCtx(t), "u1")
	if !res.OK() {
		t.Fatalf("no rows must not be an error: %v", res.Error)
	}
	if res.Data != nil {
		t.Fatal("expected nil data for no check-in today")
	}
	if day != "eq.2026-03-01" {
		t.Fatalf("unexpected day predicate: %q", day)
	}
}

// ============================================================================
// MessagingService
// ============================================================================

func TestMessagingSend(t *testing.T) {
	b := newFakeBackend()
	var body map[string]any
	b.handle(http.MethodPost, "/rest/v1/progress_messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, []ProgressMessage{{ID: "msg-1"}})
	})
	client := newTestClient(t, b)

	res := client.Messaging().Send(testCtx(t), &SendMessageOptions{
		TeamID:      "team-1",
		SenderID:    "u1",
		RecipientID: "u2",
		Content:     "hi",
	})
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Error)
	}
	if body["type"] != "message" {
		t.Fatalf("expected default type message, got %v", body["type"])
	}
	if ref, _ := body["client_ref"].(string); ref == "" {
		t.Fatal("expected generated client_ref")
	}
}

func TestMessagingMarkRead(t *testing.T) {
	b := newFakeBackend()
	var query map[string][]string
	b.handle(http.MethodPatch, "/rest/v1/progress_messages", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		writeJSON(w, http.StatusNoContent, nil)
	})
	client := newTestClient(t, b)

	// Marking twice is safe: the read=eq.false predicate makes the second
	// call match zero rows.
	for i := 0; i < 2; i++ {
		res := client.Messaging().MarkRead(testCtx(t), "team-1", "u2", "u1")
		if !res.OK() {
			t.Fatalf("unexpected error: %v", res.Error)
		}
	}
	if got := query["read"]; len(got) != 1 || got[0] != "eq.false" {
		t.Fatalf("expected read=eq.false predicate, got %v", got)
	}
	if b.count(http.MethodPatch, "/rest/v1/progress_messages") != 2 {
		t.Fatal("expected both calls to reach the backend")
	}
}

// ============================================================================
// firstRow
// ============================================================================

func TestFirstRow(t *testing.T) {
	t.Run("picks first row", func(t *testing.T) {
		rows := []Group{{ID: "a"}, {ID: "b"}}
		res := firstRow(Result[[]Group]{Data: &rows, Status: 200})
		if res.Data == nil || res.Data.ID != "a" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("empty set becomes no rows", func(t *testing.T) {
		rows := []Group{}
		res := firstRow(Result[[]Group]{Data: &rows, Status: 200})
		if !res.OK() || res.Data != nil {
			t.Fatalf("expected no-rows state, got %+v", res)
		}
	})

	t.Run("error passes through", func(t *testing.T) {
		res := firstRow(errResult[[]Group]("boom", "x", 500))
		if res.OK() || res.Error.Message != "boom" {
			t.Fatalf("expected error, got %+v", res)
		}
	})
}
