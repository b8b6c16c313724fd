package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/henrykey/kone-elevator-sub000/internal/auth"
	"github.com/henrykey/kone-elevator-sub000/internal/building"
	"github.com/henrykey/kone-elevator-sub000/internal/config"
	"github.com/henrykey/kone-elevator-sub000/internal/constants"
	"github.com/henrykey/kone-elevator-sub000/internal/logger"
	"github.com/henrykey/kone-elevator-sub000/internal/protocol"
)

// Driver is the SR-API elevator driver: one session, one building, and
// the façade clients composed behind the operations a fleet controller
// needs. Every operation returns a structured result; transport errors
// never escape raw.
type Driver struct {
	session    *Session
	mapping    *building.Mapping
	common     *CommonClient
	calls      *LiftCallClient
	monitoring *MonitoringClient
	log        *logger.Logger
}

// New wires a driver from configuration. The caller owns the cache
// store's lifetime; pass nil for a process-local memory cache.
func New(cfg *config.Config, mapping *building.Mapping, store auth.CacheStore) (*Driver, error) {
	log, err := logger.NewLogger(uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if mapping == nil {
		mapping = building.Default(cfg.BuildingID, cfg.GroupID)
	}

	tokens := auth.NewTokenManager(cfg.ClientID, cfg.ClientSecret, cfg.TokenEndpoint, cfg.Scope, store)
	session := NewSession(cfg.WSEndpoint, tokens, log)

	buildingID := protocol.NormalizeBuildingID(cfg.BuildingID)

	return &Driver{
		session:    session,
		mapping:    mapping,
		common:     NewCommonClient(session, buildingID, cfg.GroupID),
		calls:      NewLiftCallClient(session, buildingID, cfg.GroupID),
		monitoring: NewMonitoringClient(session, buildingID, cfg.GroupID),
		log:        log,
	}, nil
}

// Initialize connects the session and establishes a server session via
// create-session. A 201 reply carries the session id.
func (d *Driver) Initialize(ctx context.Context) protocol.Result {
	start := time.Now()

	msg := protocol.NewCreateSession()
	frame, err := d.session.Send(ctx, msg, true, constants.DefaultRequestTimeout)
	if err != nil {
		return failureResult(err, msg.GetRequestID(), time.Since(start))
	}

	res := protocol.ResultFromFrame(frame, time.Since(start))
	if res.SessionID == "" {
		res.SessionID = d.session.SessionID()
	}
	return res
}

// Resume re-attaches to an existing server session after a reconnect,
// asking the server to replay up to resendSeconds of state.
func (d *Driver) Resume(ctx context.Context, resendSeconds int) protocol.Result {
	start := time.Now()

	sessionID := d.session.SessionID()
	if sessionID == "" {
		return failureResult(fmt.Errorf("no session to resume"), "", time.Since(start))
	}

	msg := protocol.NewResumeSession(sessionID, resendSeconds)
	frame, err := d.session.Send(ctx, msg, true, constants.DefaultRequestTimeout)
	if err != nil {
		return failureResult(err, msg.GetRequestID(), time.Since(start))
	}
	return protocol.ResultFromFrame(frame, time.Since(start))
}

// Call places a destination call. Validation runs before any I/O; a
// closed socket triggers a re-initialize first.
func (d *Driver) Call(ctx context.Context, req *protocol.CallRequest) protocol.Result {
	if err := req.Validate(); err != nil {
		return failureResult(err, "", 0)
	}

	if !d.session.Connected() {
		if res := d.Initialize(ctx); !res.Success {
			return res
		}
	}

	res := d.calls.Action(ctx, req)
	if res.Success && res.SessionID == "" {
		res.SessionID = d.session.SessionID()
	}
	return res
}

// CallFloors resolves floor numbers through the building mapping and
// places the call.
func (d *Driver) CallFloors(ctx context.Context, sourceFloor, destFloor, delay int) protocol.Result {
	source, err := d.mapping.AreaForFloor(sourceFloor)
	if err != nil {
		return failureResult(err, "", 0)
	}
	dest, err := d.mapping.AreaForFloor(destFloor)
	if err != nil {
		return failureResult(err, "", 0)
	}
	return d.Call(ctx, &protocol.CallRequest{
		SourceArea:      source,
		DestinationArea: dest,
		Delay:           delay,
	})
}

// Cancel deletes a previously placed call. Success is signaled by 202.
func (d *Driver) Cancel(ctx context.Context, requestID string) protocol.Result {
	if requestID == "" {
		err := &protocol.ValidationError{Code: protocol.CodeMissingField, Message: "cancel request id is required"}
		return failureResult(err, "", 0)
	}
	return d.calls.Delete(ctx, requestID)
}

// HoldOpen keeps a lift deck's doors open at the given area.
func (d *Driver) HoldOpen(ctx context.Context, liftDeck, servedArea, hardTime, softTime int) protocol.Result {
	return d.calls.HoldOpen(ctx, liftDeck, servedArea, hardTime, softTime)
}

func (d *Driver) GetConfig(ctx context.Context) protocol.Result {
	return d.common.Config(ctx)
}

func (d *Driver) GetActions(ctx context.Context) protocol.Result {
	return d.common.Actions(ctx)
}

func (d *Driver) Ping(ctx context.Context) protocol.Result {
	return d.common.Ping(ctx)
}

// GetMode reads a lift's operational mode through a short monitoring
// subscription; the vendor exposes mode only as a monitoring topic.
func (d *Driver) GetMode(ctx context.Context, lift int) protocol.Result {
	start := time.Now()
	topic := fmt.Sprintf("lift_%d/mode", lift)

	res := d.monitoring.Subscribe(ctx, []string{topic}, constants.DefaultMonitorWindow)
	if !res.Success {
		return res
	}

	prefix := fmt.Sprintf("lift_%d/", lift)
	deadline := time.Now().Add(time.Duration(constants.DefaultMonitorWindow) * time.Second)
	for time.Now().Before(deadline) {
		var match *protocol.Frame
		for _, ev := range d.monitoring.WaitForEvents(time.Second) {
			if match == nil && strings.HasPrefix(ev.Subtopic, prefix) {
				match = ev
				continue
			}
			// Not ours; put it back for Monitor consumers.
			if !d.session.requeue(ev) {
				d.log.LogError("client", fmt.Errorf("event queue full, dropping frame (subtopic %q)", ev.Subtopic))
			}
		}
		if match != nil {
			out := protocol.ResultFromFrame(match, time.Since(start))
			out.Success = true
			return out
		}
		if ctx.Err() != nil {
			break
		}
	}

	return failureResult(fmt.Errorf("no mode event received for lift %d", lift), res.RequestID, time.Since(start))
}

// Monitor subscribes to the given subtopics and returns the
// subscription acknowledgement; events are pulled with WaitForEvents.
func (d *Driver) Monitor(ctx context.Context, subtopics []string, duration int) protocol.Result {
	return d.monitoring.Subscribe(ctx, subtopics, duration)
}

// WaitForEvents drains monitoring events until timeout.
func (d *Driver) WaitForEvents(timeout time.Duration) []*protocol.Frame {
	return d.monitoring.WaitForEvents(timeout)
}

// SessionID exposes the server-issued session identifier.
func (d *Driver) SessionID() string {
	return d.session.SessionID()
}

// Close tears the session down. Idempotent; runs during shutdown so it
// only logs failures.
func (d *Driver) Close() {
	d.session.Close()
	d.log.Close()
}
