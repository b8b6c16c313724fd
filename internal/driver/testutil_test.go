package driver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/henrykey/kone-elevator-sub000/internal/auth"
	"github.com/henrykey/kone-elevator-sub000/internal/logger"
)

// mockEndpoint plays the SR-API stream endpoint: it upgrades, records
// every inbound frame, and hands each one to the test's handler to
// reply (or not).
type mockEndpoint struct {
	t          *testing.T
	srv        *httptest.Server
	handshakes int32
	handler    func(conn *websocket.Conn, frame map[string]any)

	mu     sync.Mutex
	frames []map[string]any
}

func newMockEndpoint(t *testing.T, handler func(conn *websocket.Conn, frame map[string]any)) *mockEndpoint {
	m := &mockEndpoint{t: t, handler: handler}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.handshakes, 1)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame map[string]any
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			m.mu.Lock()
			m.frames = append(m.frames, frame)
			m.mu.Unlock()
			if m.handler != nil {
				m.handler(conn, frame)
			}
		}
	}))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockEndpoint) wsURL() string {
	return "ws" + strings.TrimPrefix(m.srv.URL, "http")
}

func (m *mockEndpoint) handshakeCount() int {
	return int(atomic.LoadInt32(&m.handshakes))
}

func (m *mockEndpoint) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// writeReply sends a JSON frame back to the client. Safe for use from
// the per-connection handler goroutine only.
func writeReply(t *testing.T, conn *websocket.Conn, reply map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(reply); err != nil {
		t.Logf("mock endpoint write failed: %v", err)
	}
}

// echoReply builds the standard reply shape: echoed requestId plus a
// statusCode.
func echoReply(frame map[string]any, status int) map[string]any {
	return map[string]any{
		"requestId":  frame["requestId"],
		"statusCode": status,
	}
}

// newTokenEndpoint serves client-credentials tokens and counts calls.
func newTokenEndpoint(t *testing.T) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "test-token",
			"expires_in":   3600,
			"token_type":   "Bearer",
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// newTestSession wires a Session against mock endpoints with logs
// redirected into a temp dir.
func newTestSession(t *testing.T, wsURL, tokenURL string) *Session {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	log, err := logger.NewLogger("test-session")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { log.Close() })

	tokens := auth.NewTokenManager("client", "secret", tokenURL, "callgiving/*", nil)
	return NewSession(wsURL, tokens, log)
}
