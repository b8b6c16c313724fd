package protocol

// Envelope is embedded by every outbound message so the session can
// read or assign the correlation id without knowing the concrete type.
type Envelope struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *Envelope) GetRequestID() string   { return e.RequestID }
func (e *Envelope) SetRequestID(id string) { e.RequestID = id }

// Message is anything the session can send and correlate.
type Message interface {
	GetRequestID() string
	SetRequestID(id string)
}

type CreateSession struct {
	Envelope
}

func NewCreateSession() *CreateSession {
	return &CreateSession{Envelope: Envelope{Type: TypeCreateSession}}
}

type ResumeSession struct {
	Envelope
	SessionID                    string `json:"sessionId"`
	ResendLatestStateUpToSeconds int    `json:"resendLatestStateUpToSeconds"`
}

func NewResumeSession(sessionID string, resendSeconds int) *ResumeSession {
	return &ResumeSession{
		Envelope:                     Envelope{Type: TypeResumeSession},
		SessionID:                    sessionID,
		ResendLatestStateUpToSeconds: resendSeconds,
	}
}

type CommonAPIRequest struct {
	Envelope
	BuildingID string `json:"buildingId"`
	GroupID    string `json:"groupId"`
	CallType   string `json:"callType"`
	Payload    any    `json:"payload,omitempty"`
}

func NewCommonAPIRequest(buildingID, groupID, callType string) *CommonAPIRequest {
	return &CommonAPIRequest{
		Envelope:   Envelope{Type: TypeCommonAPI},
		BuildingID: NormalizeBuildingID(buildingID),
		GroupID:    groupID,
		CallType:   callType,
	}
}

// CallSpec is the inner call object of a lift-call action.
type CallSpec struct {
	Action                  int   `json:"action"`
	Destination             int   `json:"destination"`
	Delay                   *int  `json:"delay,omitempty"`
	GroupSize               int   `json:"group_size,omitempty"`
	AllowedLifts            []int `json:"allowed_lifts,omitempty"`
	CallReplacementPriority int   `json:"call_replacement_priority,omitempty"`
}

// LiftCallPayload is immutable once built; the same request_id appears
// at the envelope level for reply correlation.
type LiftCallPayload struct {
	RequestID string   `json:"request_id"`
	Area      int      `json:"area"`
	Time      string   `json:"time"`
	Terminal  int      `json:"terminal"`
	Call      CallSpec `json:"call"`
}

type LiftCallAction struct {
	Envelope
	BuildingID string          `json:"buildingId"`
	GroupID    string          `json:"groupId"`
	CallType   string          `json:"callType"`
	Payload    LiftCallPayload `json:"payload"`
}

func NewLiftCallAction(buildingID, groupID string, payload LiftCallPayload) *LiftCallAction {
	return &LiftCallAction{
		Envelope:   Envelope{Type: TypeLiftCallV2, RequestID: payload.RequestID},
		BuildingID: NormalizeBuildingID(buildingID),
		GroupID:    groupID,
		CallType:   CallTypeAction,
		Payload:    payload,
	}
}

type LiftCallDelete struct {
	Envelope
	CancelRequestID string `json:"cancelRequestId"`
}

func NewLiftCallDelete(cancelRequestID string) *LiftCallDelete {
	return &LiftCallDelete{
		Envelope:        Envelope{Type: TypeLiftCallV2},
		CancelRequestID: cancelRequestID,
	}
}

type HoldOpenPayload struct {
	RequestID  string `json:"request_id"`
	Time       string `json:"time"`
	LiftDeck   int    `json:"lift_deck"`
	ServedArea int    `json:"served_area"`
	HardTime   int    `json:"hard_time"`
	SoftTime   int    `json:"soft_time"`
}

type LiftCallHoldOpen struct {
	Envelope
	BuildingID string          `json:"buildingId"`
	GroupID    string          `json:"groupId"`
	CallType   string          `json:"callType"`
	Payload    HoldOpenPayload `json:"payload"`
}

func NewLiftCallHoldOpen(buildingID, groupID string, payload HoldOpenPayload) *LiftCallHoldOpen {
	return &LiftCallHoldOpen{
		Envelope:   Envelope{Type: TypeLiftCallV2, RequestID: payload.RequestID},
		BuildingID: NormalizeBuildingID(buildingID),
		GroupID:    groupID,
		CallType:   CallTypeHold,
		Payload:    payload,
	}
}

type MonitorPayload struct {
	Sub       string   `json:"sub"`
	Duration  int      `json:"duration"`
	Subtopics []string `json:"subtopics"`
}

type MonitorRequest struct {
	Envelope
	BuildingID string         `json:"buildingId"`
	GroupID    string         `json:"groupId"`
	CallType   string         `json:"callType"`
	Payload    MonitorPayload `json:"payload"`
}

func NewMonitorRequest(buildingID, groupID, sub string, duration int, subtopics []string) *MonitorRequest {
	return &MonitorRequest{
		Envelope:   Envelope{Type: TypeSiteMonitoring},
		BuildingID: NormalizeBuildingID(buildingID),
		GroupID:    groupID,
		CallType:   CallTypeMonitor,
		Payload: MonitorPayload{
			Sub:       sub,
			Duration:  duration,
			Subtopics: subtopics,
		},
	}
}
