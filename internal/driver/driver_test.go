package driver

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/henrykey/kone-elevator-sub000/internal/config"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// koneHandler answers like the sandbox service: sessions get 201 with a
// session id, calls 201, cancels of unknown requests 404, common-api
// 200, monitor subscriptions 201.
func koneHandler(t *testing.T) func(conn *websocket.Conn, frame map[string]any) {
	return func(conn *websocket.Conn, frame map[string]any) {
		switch frame["type"] {
		case protocol.TypeCreateSession:
			reply := echoReply(frame, 201)
			reply["sessionId"] = "sess-test"
			writeReply(t, conn, reply)
		case protocol.TypeCommonAPI:
			writeReply(t, conn, echoReply(frame, 200))
		case protocol.TypeLiftCallV2:
			if _, isCancel := frame["cancelRequestId"]; isCancel {
				reply := echoReply(frame, 404)
				reply["error"] = "request not found"
				writeReply(t, conn, reply)
				return
			}
			writeReply(t, conn, echoReply(frame, 201))
		case protocol.TypeSiteMonitoring:
			writeReply(t, conn, echoReply(frame, 201))
		}
	}
}

func newTestDriver(t *testing.T, mock *mockEndpoint) *Driver {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	tokenSrv, _ := newTokenEndpoint(t)
	cfg := &config.Config{
		ClientID:      "client",
		ClientSecret:  "secret",
		TokenEndpoint: tokenSrv.URL,
		WSEndpoint:    mock.wsURL(),
		Scope:         "callgiving/*",
		BuildingID:    "9990000951",
		GroupID:       "1",
	}

	d, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Close)
	return d
}

func TestInitializeEstablishesSession(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)

	res := d.Initialize(context.Background())
	if !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}
	if res.StatusCode == nil || *res.StatusCode != 201 {
		t.Errorf("status = %v, want 201", res.StatusCode)
	}
	if res.SessionID != "sess-test" {
		t.Errorf("session id = %q, want sess-test", res.SessionID)
	}
}

func TestCallSucceedsWithRequestID(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)

	ctx := context.Background()
	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}

	res := d.Call(ctx, &protocol.CallRequest{
		SourceArea:      1000,
		DestinationArea: 2000,
	})
	if !res.Success {
		t.Fatalf("Call failed: %s", res.Error)
	}
	if res.StatusCode == nil || *res.StatusCode != 201 {
		t.Errorf("status = %v, want 201", res.StatusCode)
	}
	if res.RequestID == "" {
		t.Error("successful call carries no request id")
	}
	if res.SessionID != "sess-test" {
		t.Errorf("session id = %q, want sess-test", res.SessionID)
	}
}

func TestCallReinitializesClosedSocket(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)

	// No explicit Initialize: Call must bring the session up itself.
	res := d.Call(context.Background(), &protocol.CallRequest{
		SourceArea:      1000,
		DestinationArea: 2000,
	})
	if !res.Success {
		t.Fatalf("Call without prior Initialize failed: %s", res.Error)
	}
	if d.SessionID() != "sess-test" {
		t.Errorf("session id = %q after implicit initialize", d.SessionID())
	}
}

func TestCallSameFloorShortCircuits(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)

	res := d.Call(context.Background(), &protocol.CallRequest{
		SourceArea:      3000,
		DestinationArea: 3000,
	})
	if res.Success {
		t.Fatal("same-floor call succeeded")
	}
	if res.Error != protocol.CodeSameSourceAndDest {
		t.Errorf("error = %q, want %s", res.Error, protocol.CodeSameSourceAndDest)
	}
	if res.StatusCode == nil || *res.StatusCode != 400 {
		t.Errorf("status = %v, want 400", res.StatusCode)
	}
	if got := mock.handshakeCount(); got != 0 {
		t.Errorf("validation failure opened %d connections, want 0", got)
	}
	if got := mock.frameCount(); got != 0 {
		t.Errorf("validation failure produced %d outbound frames, want 0", got)
	}
}

func TestCallDelayBoundary(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Call(ctx, &protocol.CallRequest{SourceArea: 1000, DestinationArea: 2000, Delay: 30}); !res.Success {
		t.Errorf("delay=30 rejected: %s", res.Error)
	}

	sent := mock.frameCount()
	res := d.Call(ctx, &protocol.CallRequest{SourceArea: 1000, DestinationArea: 2000, Delay: 31})
	if res.Success {
		t.Fatal("delay=31 accepted")
	}
	if res.Error != protocol.CodeDelayOutOfRange {
		t.Errorf("error = %q, want %s", res.Error, protocol.CodeDelayOutOfRange)
	}
	if mock.frameCount() != sent {
		t.Error("delay=31 still produced an outbound frame")
	}
}

func TestCancelNonexistentRequest(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}

	res := d.Cancel(ctx, "no-such-request")
	if res.Success {
		t.Fatal("cancel of unknown request succeeded")
	}
	if res.StatusCode == nil || *res.StatusCode != 404 {
		t.Errorf("status = %v, want 404", res.StatusCode)
	}
	if res.Error == "" {
		t.Error("failure carries no error message")
	}
}

func TestCallFloorsUsesDefaultMapping(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}

	res := d.CallFloors(ctx, 1, 2, 0)
	if !res.Success {
		t.Fatalf("CallFloors failed: %s", res.Error)
	}

	// The last lift-call frame must carry the convention-mapped areas.
	mock.mu.Lock()
	defer mock.mu.Unlock()
	var found bool
	for _, f := range mock.frames {
		if f["type"] != protocol.TypeLiftCallV2 {
			continue
		}
		payload, _ := f["payload"].(map[string]any)
		call, _ := payload["call"].(map[string]any)
		if payload["area"] == float64(1000) && call["destination"] == float64(2000) {
			found = true
		}
	}
	if !found {
		t.Error("no lift-call frame carried area 1000 -> 2000")
	}
}

func TestMonitorSubscribeAndDrain(t *testing.T) {
	mock := newMockEndpoint(t, func(conn *websocket.Conn, frame map[string]any) {
		koneHandler(t)(conn, frame)
		if frame["type"] == protocol.TypeSiteMonitoring {
			writeReply(t, conn, map[string]any{
				"subtopic": "lift_1/status",
				"data":     map[string]any{"mode": "normal"},
			})
		}
	})
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}
	if res := d.Monitor(ctx, []string{"lift_1/status"}, 10); !res.Success {
		t.Fatalf("Monitor failed: %s", res.Error)
	}

	events := d.WaitForEvents(500 * time.Millisecond)
	if len(events) == 0 {
		t.Fatal("no events drained after subscription")
	}
	for _, ev := range events {
		if ev.ReceivedAt.IsZero() {
			t.Error("event missing receipt timestamp")
		}
	}
}

func TestInitializeFailureIsStructured(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	tokenSrv, _ := newTokenEndpoint(t)
	cfg := &config.Config{
		ClientID:      "client",
		ClientSecret:  "secret",
		TokenEndpoint: tokenSrv.URL,
		WSEndpoint:    "ws://127.0.0.1:1",
		Scope:         "callgiving/*",
		BuildingID:    "9990000951",
		GroupID:       "1",
	}
	d, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()

	res := d.Initialize(context.Background())
	if res.Success {
		t.Fatal("Initialize against dead endpoint succeeded")
	}
	if res.Error == "" {
		t.Error("failure carries no error message")
	}
}

func TestResumeRequiresExistingSession(t *testing.T) {
	mock := newMockEndpoint(t, func(conn *websocket.Conn, frame map[string]any) {
		switch frame["type"] {
		case protocol.TypeCreateSession:
			reply := echoReply(frame, 201)
			reply["sessionId"] = "sess-res"
			writeReply(t, conn, reply)
		case protocol.TypeResumeSession:
			if frame["sessionId"] != "sess-res" {
				writeReply(t, conn, echoReply(frame, 400))
				return
			}
			writeReply(t, conn, echoReply(frame, 200))
		}
	})
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Resume(ctx, 30); res.Success {
		t.Error("Resume without a session succeeded")
	}

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}
	res := d.Resume(ctx, 30)
	if !res.Success {
		t.Fatalf("Resume failed: %s", res.Error)
	}
	if res.StatusCode == nil || *res.StatusCode != 200 {
		t.Errorf("status = %v, want 200", res.StatusCode)
	}
}

func TestCancelAcceptedWith202(t *testing.T) {
	mock := newMockEndpoint(t, func(conn *websocket.Conn, frame map[string]any) {
		switch frame["type"] {
		case protocol.TypeCreateSession:
			reply := echoReply(frame, 201)
			reply["sessionId"] = "sess-test"
			writeReply(t, conn, reply)
		case protocol.TypeLiftCallV2:
			if _, isCancel := frame["cancelRequestId"]; isCancel {
				writeReply(t, conn, echoReply(frame, 202))
			}
		}
	})
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}

	res := d.Cancel(ctx, "req-1")
	if !res.Success {
		t.Fatalf("202 cancel acknowledgement not treated as success: %s", res.Error)
	}
	if res.StatusCode == nil || *res.StatusCode != 202 {
		t.Errorf("status = %v, want 202", res.StatusCode)
	}
}

func TestCancelEmptyRequestID(t *testing.T) {
	mock := newMockEndpoint(t, koneHandler(t))
	d := newTestDriver(t, mock)

	res := d.Cancel(context.Background(), "")
	if res.Success {
		t.Fatal("cancel with empty request id succeeded")
	}
	if res.Error != protocol.CodeMissingField {
		t.Errorf("error = %q, want %s", res.Error, protocol.CodeMissingField)
	}
	if res.StatusCode == nil || *res.StatusCode != 400 {
		t.Errorf("status = %v, want 400", res.StatusCode)
	}
	if got := mock.frameCount(); got != 0 {
		t.Errorf("validation failure produced %d outbound frames, want 0", got)
	}
}

func TestGetModeLeavesOtherEventsQueued(t *testing.T) {
	mock := newMockEndpoint(t, func(conn *websocket.Conn, frame map[string]any) {
		koneHandler(t)(conn, frame)
		if frame["type"] == protocol.TypeSiteMonitoring {
			writeReply(t, conn, map[string]any{
				"subtopic": "call_state/123/fixed",
				"data":     map[string]any{"state": "fixed"},
			})
			writeReply(t, conn, map[string]any{
				"subtopic": "lift_1/mode",
				"data":     map[string]any{"mode": "normal"},
			})
		}
	})
	d := newTestDriver(t, mock)
	ctx := context.Background()

	if res := d.Initialize(ctx); !res.Success {
		t.Fatalf("Initialize failed: %s", res.Error)
	}

	res := d.GetMode(ctx, 1)
	if !res.Success {
		t.Fatalf("GetMode failed: %s", res.Error)
	}

	// The call-state event belongs to Monitor consumers and must still
	// be in the queue after GetMode returns.
	var found bool
	for _, ev := range d.WaitForEvents(500 * time.Millisecond) {
		if ev.Subtopic == "call_state/123/fixed" {
			found = true
		}
	}
	if !found {
		t.Error("unrelated monitoring event was consumed by GetMode")
	}
}
