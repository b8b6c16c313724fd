package driver

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// MonitoringClient subscribes to site-monitoring subtopics; matching
// events then arrive asynchronously through the session's event queue.
type MonitoringClient struct {
	session    *Session
	buildingID string
	groupID    string
	timeout    time.Duration
}

func NewMonitoringClient(session *Session, buildingID, groupID string) *MonitoringClient {
	return &MonitoringClient{
		session:    session,
		buildingID: buildingID,
		groupID:    groupID,
		timeout:    constants.DefaultRequestTimeout,
	}
}

// Subscribe requests duration seconds of events for the wildcard-capable
// subtopics (e.g. "lift_1/status", "call_state/+/+").
func (c *MonitoringClient) Subscribe(ctx context.Context, subtopics []string, duration int) protocol.Result {
	if duration <= 0 || duration > constants.MaxMonitorDuration {
		duration = constants.MaxMonitorDuration
	}

	sub := constants.DefaultMonitorSub + "-" + uuid.New().String()[:8]
	msg := protocol.NewMonitorRequest(c.buildingID, c.groupID, sub, duration, subtopics)
	return sendForResult(ctx, c.session, msg, c.timeout)
}

// WaitForEvents drains the event queue until the timeout elapses.
// Returns whatever arrived, possibly nothing; never an error.
func (c *MonitoringClient) WaitForEvents(timeout time.Duration) []*protocol.Frame {
	return c.session.WaitForEvents(timeout)
}
