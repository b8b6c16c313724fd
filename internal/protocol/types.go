package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
)

// Message type literals of the SR-API v2 wire protocol.
const (
	TypeCreateSession  = "create-session"
	TypeResumeSession  = "resume-session"
	TypeCommonAPI      = "common-api"
	TypeLiftCallV2     = "lift-call-api-v2"
	TypeSiteMonitoring = "site-monitoring"
)

// Common API call types.
const (
	CallTypeConfig  = "config"
	CallTypeActions = "actions"
	CallTypePing    = "ping"
	CallTypeAction  = "action"
	CallTypeDelete  = "delete"
	CallTypeHold    = "hold_open"
	CallTypeMonitor = "monitor"
)

// Frame is a loosely decoded server frame. Replies carry a requestId for
// correlation; monitoring pushes carry a subtopic instead. Some replies
// carry a statusCode, others only data, so both stay optional.
type Frame struct {
	Type       string          `json:"type,omitempty"`
	CallType   string          `json:"callType,omitempty"`
	RequestID  string          `json:"requestId,omitempty"`
	StatusCode *int            `json:"statusCode,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
	Subtopic   string          `json:"subtopic,omitempty"`

	Raw        json.RawMessage `json:"-"`
	ReceivedAt time.Time       `json:"-"`
}

// ParseFrame decodes one wire frame and stamps its receipt time.
func ParseFrame(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	f.Raw = append([]byte(nil), data...)
	f.ReceivedAt = time.Now()
	return &f, nil
}

// HasData reports whether the frame carries a well-formed, non-empty
// data object.
func (f *Frame) HasData() bool {
	trimmed := bytes.TrimSpace(f.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return false
	}
	return json.Valid(trimmed)
}

// Result is the uniform envelope every driver operation returns.
// Ambiguous marks the fallback path where the reply had no statusCode
// but did carry well-formed data.
type Result struct {
	Success    bool            `json:"success"`
	Ambiguous  bool            `json:"ambiguous,omitempty"`
	StatusCode *int            `json:"status_code"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	DurationMS float64         `json:"duration_ms"`
	RequestID  string          `json:"request_id,omitempty"`
	SessionID  string          `json:"session_id,omitempty"`
}

// ResultFromFrame normalizes the heterogeneous reply shapes. A reply
// with an accepted statusCode is a confirmed success; one without a
// statusCode but with valid data is an ambiguous success; anything
// else is a failure carrying the server's message. The success set is
// {200, 201} plus whatever extra codes the call path accepts (delete
// acknowledgements arrive as 202).
func ResultFromFrame(f *Frame, duration time.Duration, accepted ...int) Result {
	r := Result{
		StatusCode: f.StatusCode,
		Data:       f.Data,
		DurationMS: float64(duration.Microseconds()) / 1000.0,
		RequestID:  f.RequestID,
		SessionID:  f.SessionID,
	}

	switch {
	case f.StatusCode != nil:
		r.Success = isSuccessStatus(*f.StatusCode, accepted)
		if !r.Success {
			r.Error = remoteError(f)
		}
	case f.HasData():
		r.Success = true
		r.Ambiguous = true
	default:
		r.Error = remoteError(f)
	}
	return r
}

func isSuccessStatus(code int, extra []int) bool {
	if code == 200 || code == 201 {
		return true
	}
	for _, e := range extra {
		if code == e {
			return true
		}
	}
	return false
}

func remoteError(f *Frame) string {
	if f.Error != "" {
		return f.Error
	}
	if f.Message != "" {
		return f.Message
	}
	if f.StatusCode != nil {
		return fmt.Sprintf("request rejected with status %d", *f.StatusCode)
	}
	return "reply carried neither statusCode nor data"
}

// NormalizeBuildingID ensures the vendor "building:" prefix.
func NormalizeBuildingID(id string) string {
	if id == "" || strings.HasPrefix(id, constants.BuildingPrefix) {
		return id
	}
	return constants.BuildingPrefix + id
}

// ISOTime renders a timestamp the way the protocol expects: ISO-8601,
// UTC, Z suffix.
func ISOTime(t time.Time) string {
	return t.UTC().Format(constants.TimeFormatISO)
}
