package careerhub

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// ============================================================================
// Test Helpers
// ============================================================================

const testSecret = "test-webhook-secret-key"

func makeTestSignature(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func makeWebhookPayload() map[string]any {
	return map[string]any{
		"source":    "careerhub",
		"event":     "message.insert",
		"timestamp": 1767225600,
		"message": map[string]any{
			"id":           "msg-001",
			"team_id":      "team-001",
			"sender_id":    "user-001",
			"recipient_id": "user-002",
			"content":      "Hello from test",
			"type":         "message",
			"created_at":   "2026-01-01T00:00:00Z",
		},
		"sender": map[string]any{
			"id":   "user-001",
			"name": "Test User",
			"role": "candidate",
		},
		"team": map[string]any{
			"id":   "team-001",
			"name": "Job Search Squad",
		},
	}
}

func makeWebhookBody() string {
	b, _ := json.Marshal(makeWebhookPayload())
	return string(b)
}

// ============================================================================
// VerifyWebhookSignature
// ============================================================================

func TestVerifyWebhookSignature(t *testing.T) {
	t.Run("valid signature", func(t *testing.T) {
		body := makeWebhookBody()
		sig := makeTestSignature(body, testSecret)
		if !VerifyWebhookSignature(body, sig, testSecret) {
			t.Fatal("expected valid signature")
		}
	})

	t.Run("valid without prefix", func(t *testing.T) {
		body := makeWebhookBody()
		sig := strings.TrimPrefix(makeTestSignature(body, testSecret), "sha256=")
		if !VerifyWebhookSignature(body, sig, testSecret) {
			t.Fatal("expected valid signature without prefix")
		}
	})

	t.Run("wrong signature", func(t *testing.T) {
		body := makeWebhookBody()
		sig := "sha256=" + strings.Repeat("0", 64)
		if VerifyWebhookSignature(body, sig, testSecret) {
			t.Fatal("expected invalid signature")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		body := makeWebhookBody()
		sig := makeTestSignature(body, "wrong-secret")
		if VerifyWebhookSignature(body, sig, testSecret) {
			t.Fatal("expected invalid signature with wrong secret")
		}
	})

	t.Run("tampered body", func(t *testing.T) {
		body := makeWebhookBody()
		sig := makeTestSignature(body, testSecret)
		if VerifyWebhookSignature(body+"tampered", sig, testSecret) {
			t.Fatal("expected invalid for tampered body")
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		if VerifyWebhookSignature("", "sha256=abc", testSecret) {
			t.Fatal("expected false for empty body")
		}
		if VerifyWebhookSignature("body", "", testSecret) {
			t.Fatal("expected false for empty signature")
		}
		if VerifyWebhookSignature("body", "sha256=abc", "") {
			t.Fatal("expected false for empty secret")
		}
		if VerifyWebhookSignature("body", "sha256=", testSecret) {
			t.Fatal("expected false for sha256= prefix only")
		}
	})
}

// ============================================================================
// ParseWebhookPayload
// ============================================================================

func TestParseWebhookPayload(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload, err := ParseWebhookPayload(makeWebhookBody())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload.Source != "careerhub" {
			t.Fatalf("expected source careerhub, got %s", payload.Source)
		}
		if payload.Event != "message.insert" {
			t.Fatalf("expected event message.insert, got %s", payload.Event)
		}
		if payload.Message.ID != "msg-001" || payload.Message.TeamID != "team-001" {
			t.Fatalf("unexpected message: %+v", payload.Message)
		}
		if payload.Sender.Role != "candidate" {
			t.Fatalf("expected sender role candidate, got %s", payload.Sender.Role)
		}
		if payload.Team.ID != "team-001" {
			t.Fatalf("expected team team-001, got %s", payload.Team.ID)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := ParseWebhookPayload("not json"); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		data := makeWebhookPayload()
		data["source"] = "unknown"
		b, _ := json.Marshal(data)
		_, err := ParseWebhookPayload(string(b))
		if err == nil || !strings.Contains(err.Error(), "unknown webhook source") {
			t.Fatalf("expected unknown source error, got: %v", err)
		}
	})

	t.Run("missing event", func(t *testing.T) {
		data := makeWebhookPayload()
		data["event"] = ""
		b, _ := json.Marshal(data)
		_, err := ParseWebhookPayload(string(b))
		if err == nil || !strings.Contains(err.Error(), "missing event") {
			t.Fatalf("expected missing event error, got: %v", err)
		}
	})

	t.Run("missing message ID", func(t *testing.T) {
		data := makeWebhookPayload()
		msg := data["message"].(map[string]any)
		msg["id"] = ""
		b, _ := json.Marshal(data)
		_, err := ParseWebhookPayload(string(b))
		if err == nil || !strings.Contains(err.Error(), "missing required fields") {
			t.Fatalf("expected missing fields error, got: %v", err)
		}
	})
}

// ============================================================================
// MessageWebhook
// ============================================================================

func TestNewMessageWebhook(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		if _, err := NewMessageWebhook("", nil); err == nil {
			t.Fatal("expected error for empty secret")
		}
	})

	t.Run("valid creation", func(t *testing.T) {
		wh, err := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wh == nil {
			t.Fatal("expected non-nil webhook")
		}
	})
}

func TestMessageWebhookHandle(t *testing.T) {
	t.Run("invalid signature", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		status, data := wh.Handle(makeWebhookBody(), "sha256=bad")
		if status != 401 {
			t.Fatalf("expected 401, got %d", status)
		}
		m := data.(map[string]string)
		if m["error"] != "Invalid signature" {
			t.Fatalf("unexpected error: %s", m["error"])
		}
	})

	t.Run("malformed payload", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		body := `{"source": "unknown"}`
		status, _ := wh.Handle(body, makeTestSignature(body, testSecret))
		if status != 400 {
			t.Fatalf("expected 400, got %d", status)
		}
	})

	t.Run("success", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		body := makeWebhookBody()
		status, data := wh.Handle(body, makeTestSignature(body, testSecret))
		if status != 200 {
			t.Fatalf("expected 200, got %d", status)
		}
		m := data.(map[string]bool)
		if !m["ok"] {
			t.Fatal("expected ok:true")
		}
	})

	t.Run("handler error", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error {
			return fmt.Errorf("something broke")
		})
		body := makeWebhookBody()
		status, data := wh.Handle(body, makeTestSignature(body, testSecret))
		if status != 500 {
			t.Fatalf("expected 500, got %d", status)
		}
		m := data.(map[string]string)
		if !strings.Contains(m["error"], "something broke") {
			t.Fatalf("unexpected error: %s", m["error"])
		}
	})
}

// ============================================================================
// MessageWebhook.HTTPHandler
// ============================================================================

func TestMessageWebhookHTTPHandler(t *testing.T) {
	t.Run("GET returns 405", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
		w := httptest.NewRecorder()
		wh.HTTPHandler().ServeHTTP(w, req)
		if w.Code != 405 {
			t.Fatalf("expected 405, got %d", w.Code)
		}
	})

	t.Run("invalid signature returns 401", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(makeWebhookBody()))
		req.Header.Set("X-CareerHub-Signature", "sha256=bad")
		w := httptest.NewRecorder()
		wh.HTTPHandler().ServeHTTP(w, req)
		if w.Code != 401 {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid returns 200", func(t *testing.T) {
		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error { return nil })
		body := makeWebhookBody()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		req.Header.Set("X-CareerHub-Signature", makeTestSignature(body, testSecret))
		w := httptest.NewRecorder()
		wh.HTTPHandler().ServeHTTP(w, req)
		if w.Code != 200 {
			t.Fatalf("expected 200, got %d", w.Code)
		}

		var result map[string]any
		json.NewDecoder(w.Body).Decode(&result)
		if result["ok"] != true {
			t.Fatal("expected ok:true")
		}
	})

	t.Run("payload relays into an inbox", func(t *testing.T) {
		mb := newMessagingBackend()
		client := newTestClient(t, mb)
		in := NewInbox(client, "team-001", "user-002", nil)
		defer in.Close()

		wh, _ := NewMessageWebhook(testSecret, func(p *WebhookPayload) error {
			in.Deliver(p.Message)
			return nil
		})
		body := makeWebhookBody()
		req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
		req.Header.Set("X-CareerHub-Signature", makeTestSignature(body, testSecret))
		w := httptest.NewRecorder()
		wh.HTTPHandler().ServeHTTP(w, req)

		if w.Code != 200 {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if in.Unread("user-001") != 1 {
			t.Fatalf("expected webhook message counted unread, got %d", in.Unread("user-001"))
		}
	})
}
