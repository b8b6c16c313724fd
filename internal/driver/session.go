package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/henrykey/kone-elevator-sub000/internal/auth"
	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/logger"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// Session owns one WebSocket connection to the SR-API stream endpoint.
// The connect mutex serializes the whole ensure-connected-then-send
// sequence, so concurrent callers can never race a reconnect or observe
// a half-open socket.
type Session struct {
	endpoint string
	tokens   *auth.TokenManager
	log      *logger.Logger

	connMu    sync.Mutex // guards conn, connected, connect/teardown
	conn      *websocket.Conn
	connected bool
	pingStop  chan struct{}

	writeMu sync.Mutex // serializes socket writes (frames and pings)

	correlator *Correlator
	events     chan *protocol.Frame

	stateMu   sync.Mutex
	sessionID string
}

func NewSession(endpoint string, tokens *auth.TokenManager, log *logger.Logger) *Session {
	return &Session{
		endpoint:   endpoint,
		tokens:     tokens,
		log:        log,
		correlator: NewCorrelator(),
		events:     make(chan *protocol.Frame, constants.EventQueueCapacity),
	}
}

// Connected reports whether the socket is currently open.
func (s *Session) Connected() bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.connected
}

// SessionID returns the server-issued session identifier, empty until a
// create-session reply has been observed.
func (s *Session) SessionID() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.sessionID
}

func (s *Session) setSessionID(id string) {
	s.stateMu.Lock()
	s.sessionID = id
	s.stateMu.Unlock()
}

// EnsureConnected opens the WebSocket if it is not already open.
// Idempotent: an open connection returns immediately with no side
// effects.
func (s *Session) EnsureConnected(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.ensureConnectedLocked(ctx)
}

// ensureConnectedLocked must run with connMu held for the whole
// connect-and-verify sequence.
func (s *Session) ensureConnectedLocked(ctx context.Context) error {
	if s.connected && s.conn != nil {
		return nil
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	wsURL := s.endpoint + "?accessToken=" + url.QueryEscape(token)

	dialer := &websocket.Dialer{
		ReadBufferSize:    constants.WSBufferSize,
		WriteBufferSize:   constants.WSBufferSize,
		EnableCompression: false,
		HandshakeTimeout:  constants.WSHandshakeTimeout,
		Subprotocols:      []string{constants.WSSubprotocol},
	}

	s.log.LogEvent(fmt.Sprintf("dialing %s", s.endpoint))
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		s.conn = nil
		s.connected = false
		s.log.LogError("client", fmt.Errorf("websocket dial failed: %w", err))
		return &ConnectionError{Err: err}
	}
	conn.SetReadLimit(constants.MaxWSMessageSize)
	conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	})

	s.conn = conn
	s.connected = true
	s.pingStop = make(chan struct{})
	s.log.LogEvent("websocket connected")

	// One listener and one keepalive ticker per connection lifetime.
	go s.listen(conn)
	go s.keepalive(conn, s.pingStop)

	return nil
}

// listen is the single reader loop: replies go to the correlator, the
// session id is captured when the server assigns one, everything else
// is queued as an asynchronous event. It exits on connection close;
// requests still pending at that point are not failed here, they time
// out individually (their next send notices the closed socket).
func (s *Session) listen(conn *websocket.Conn) {
	defer s.teardown(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.log.LogError("server", fmt.Errorf("read loop ended: %w", err))
			return
		}
		conn.SetReadDeadline(time.Now().Add(constants.PongWait))

		frame, err := protocol.ParseFrame(data)
		if err != nil {
			// One malformed frame must never kill the loop.
			s.log.LogError("server", err)
			continue
		}
		s.log.LogFrame("server", frame.Type, frame.RequestID, len(data))

		if frame.SessionID != "" {
			s.setSessionID(frame.SessionID)
		}

		if frame.RequestID != "" && s.correlator.Resolve(frame.RequestID, frame) {
			continue
		}

		select {
		case s.events <- frame:
		default:
			s.log.LogError("server", fmt.Errorf("event queue full, dropping frame (subtopic %q)", frame.Subtopic))
		}
	}
}

// keepalive sends protocol-level pings so an idle but healthy link is
// distinguishable from a dead one; the pong handler extends the read
// deadline.
func (s *Session) keepalive(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(constants.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// teardown closes conn and, when it is still the current connection,
// marks the session disconnected. The close is unconditional: a
// reconnect may already have replaced the connection, and a superseded
// socket must not keep its fd and keepalive alive.
func (s *Session) teardown(conn *websocket.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.teardownLocked(conn)
}

// teardownLocked must run with connMu held.
func (s *Session) teardownLocked(conn *websocket.Conn) {
	conn.Close()
	if s.conn != conn {
		return
	}
	s.connected = false
	s.conn = nil
	if s.pingStop != nil {
		close(s.pingStop)
		s.pingStop = nil
	}
	s.log.LogEvent("session disconnected")
}

// Send transmits one message. With waitResponse it registers the
// requestId before the frame leaves, waits up to timeout for the
// correlated reply, and cleans up its own pending entry on timeout.
// Without waitResponse it returns a synthetic acknowledgement frame
// right after the write.
func (s *Session) Send(ctx context.Context, msg protocol.Message, waitResponse bool, timeout time.Duration) (*protocol.Frame, error) {
	s.connMu.Lock()
	if err := s.ensureConnectedLocked(ctx); err != nil {
		s.connMu.Unlock()
		return nil, err
	}
	conn := s.conn

	id := msg.GetRequestID()
	if id == "" {
		id = uuid.New().String()
		msg.SetRequestID(id)
	}

	var reply <-chan *protocol.Frame
	if waitResponse {
		// Register before the frame leaves, so a reply that races the
		// registration cannot be lost.
		ch, err := s.correlator.Register(id)
		if err != nil {
			s.connMu.Unlock()
			return nil, err
		}
		reply = ch
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.correlator.Cancel(id)
		s.connMu.Unlock()
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	s.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
	err = conn.WriteMessage(websocket.TextMessage, data)
	s.writeMu.Unlock()
	if err != nil {
		s.correlator.Cancel(id)
		s.teardownLocked(conn)
		s.connMu.Unlock()
		return nil, &ConnectionError{Err: err}
	}
	s.log.LogFrame("client", frameType(data), id, len(data))
	s.connMu.Unlock()

	if !waitResponse {
		return &protocol.Frame{RequestID: id, Message: "sent", ReceivedAt: time.Now()}, nil
	}

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case frame := <-reply:
		return frame, nil
	case <-timer.C:
		s.correlator.Cancel(id)
		return nil, &RequestTimeoutError{RequestID: id, Elapsed: time.Since(start)}
	case <-ctx.Done():
		s.correlator.Cancel(id)
		return nil, ctx.Err()
	}
}

// WaitForEvents drains queued monitoring events until the timeout
// elapses. The returned slice may be empty; every event carries the
// receipt timestamp stamped at decode time.
func (s *Session) WaitForEvents(timeout time.Duration) []*protocol.Frame {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var out []*protocol.Frame
	for {
		select {
		case f := <-s.events:
			out = append(out, f)
		case <-timer.C:
			return out
		}
	}
}

// requeue returns an undelivered event to the queue so that other
// consumers still see it. Reports false when the queue is full.
func (s *Session) requeue(f *protocol.Frame) bool {
	select {
	case s.events <- f:
		return true
	default:
		return false
	}
}

// Close shuts the socket down. Idempotent; errors are logged only since
// this runs during shutdown.
func (s *Session) Close() {
	s.connMu.Lock()
	conn := s.conn
	s.connMu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		s.log.LogError("client", fmt.Errorf("close: %w", err))
	}
}

func frameType(data []byte) string {
	var probe struct {
		Type string `json:"type"`
	}
	json.Unmarshal(data, &probe)
	return probe.Type
}
