package driver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// LiftCallClient issues lift-call-api-v2 messages: destination calls,
// call cancellation, and door hold-open.
type LiftCallClient struct {
	session    *Session
	buildingID string
	groupID    string
	timeout    time.Duration
}

func NewLiftCallClient(session *Session, buildingID, groupID string) *LiftCallClient {
	return &LiftCallClient{
		session:    session,
		buildingID: buildingID,
		groupID:    groupID,
		timeout:    constants.DefaultRequestTimeout,
	}
}

// Action places one destination call. The request must already be
// validated; the façade only shapes the wire payload.
func (c *LiftCallClient) Action(ctx context.Context, req *protocol.CallRequest) protocol.Result {
	action := req.Action
	if action == 0 {
		action = constants.DefaultCallAction
	}

	call := protocol.CallSpec{
		Action:                  action,
		Destination:             req.DestinationArea,
		GroupSize:               req.GroupSize,
		AllowedLifts:            req.AllowedLifts,
		CallReplacementPriority: req.Priority,
	}
	if req.Delay > 0 {
		delay := req.Delay
		call.Delay = &delay
	}

	payload := protocol.LiftCallPayload{
		RequestID: uuid.New().String(),
		Area:      req.SourceArea,
		Time:      protocol.ISOTime(time.Now()),
		Terminal:  constants.DefaultTerminal,
		Call:      call,
	}

	msg := protocol.NewLiftCallAction(c.buildingID, c.groupID, payload)
	return sendForResult(ctx, c.session, msg, c.timeout)
}

// Delete cancels a previously placed call by its original request id.
// The server acknowledges with status 202, which only this path treats
// as success.
func (c *LiftCallClient) Delete(ctx context.Context, cancelRequestID string) protocol.Result {
	msg := protocol.NewLiftCallDelete(cancelRequestID)
	return sendForResult(ctx, c.session, msg, c.timeout, 202)
}

// HoldOpen keeps a lift deck's doors open at a served area.
func (c *LiftCallClient) HoldOpen(ctx context.Context, liftDeck, servedArea, hardTime, softTime int) protocol.Result {
	payload := protocol.HoldOpenPayload{
		RequestID:  uuid.New().String(),
		Time:       protocol.ISOTime(time.Now()),
		LiftDeck:   liftDeck,
		ServedArea: servedArea,
		HardTime:   hardTime,
		SoftTime:   softTime,
	}

	msg := protocol.NewLiftCallHoldOpen(c.buildingID, c.groupID, payload)
	return sendForResult(ctx, c.session, msg, c.timeout)
}
