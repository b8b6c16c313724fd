package driver

import (
	"context"
	"errors"
	"time"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// CommonClient issues the common-api callTypes: config, actions, ping.
type CommonClient struct {
	session    *Session
	buildingID string
	groupID    string
	timeout    time.Duration
}

func NewCommonClient(session *Session, buildingID, groupID string) *CommonClient {
	return &CommonClient{
		session:    session,
		buildingID: buildingID,
		groupID:    groupID,
		timeout:    constants.DefaultRequestTimeout,
	}
}

func (c *CommonClient) Config(ctx context.Context) protocol.Result {
	return c.request(ctx, protocol.CallTypeConfig)
}

func (c *CommonClient) Actions(ctx context.Context) protocol.Result {
	return c.request(ctx, protocol.CallTypeActions)
}

func (c *CommonClient) Ping(ctx context.Context) protocol.Result {
	return c.request(ctx, protocol.CallTypePing)
}

func (c *CommonClient) request(ctx context.Context, callType string) protocol.Result {
	msg := protocol.NewCommonAPIRequest(c.buildingID, c.groupID, callType)
	return sendForResult(ctx, c.session, msg, c.timeout)
}

// sendForResult runs one send-and-wait and folds both transport errors
// and reply frames into the uniform result envelope. No raw error ever
// crosses the driver boundary. Extra accepted status codes widen the
// success set for the call path that needs them.
func sendForResult(ctx context.Context, s *Session, msg protocol.Message, timeout time.Duration, accepted ...int) protocol.Result {
	start := time.Now()
	frame, err := s.Send(ctx, msg, true, timeout)
	if err != nil {
		return failureResult(err, msg.GetRequestID(), time.Since(start))
	}
	return protocol.ResultFromFrame(frame, time.Since(start), accepted...)
}

func failureResult(err error, requestID string, elapsed time.Duration) protocol.Result {
	r := protocol.Result{
		Error:      err.Error(),
		DurationMS: float64(elapsed.Microseconds()) / 1000.0,
		RequestID:  requestID,
	}

	var verr *protocol.ValidationError
	if errors.As(err, &verr) {
		code := 400
		r.StatusCode = &code
		r.Error = verr.Code
	}
	return r
}
