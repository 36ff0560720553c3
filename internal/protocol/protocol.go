package protocol

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Kind names a message type on the wire.
type Kind string

const (
	// KindEnsureEngine asks the coordinator to bring the engine to Ready.
	KindEnsureEngine Kind = "ensure-engine"
	// KindCheckStatus reads coordinator state without side effects.
	KindCheckStatus Kind = "check-status"
	// KindExtract extracts text from a document.
	KindExtract Kind = "extract"
	// KindApply applies a batch of edits as tracked changes.
	KindApply Kind = "apply"
	// KindAcceptAll resolves every tracked change in a document.
	KindAcceptAll Kind = "accept-all"
	// KindPing probes engine host liveness and readiness.
	KindPing Kind = "ping"
	// KindReadySignal announces that the engine finished starting up.
	KindReadySignal Kind = "ready-signal"
	// KindErrorSignal announces that engine startup failed.
	KindErrorSignal Kind = "error-signal"
)

// Valid reports whether k is a known message kind.
func (k Kind) Valid() bool {
	switch k {
	case KindEnsureEngine, KindCheckStatus, KindExtract, KindApply,
		KindAcceptAll, KindPing, KindReadySignal, KindErrorSignal:
		return true
	}
	return false
}

// ExpectsResponse reports whether a sender waits for a response frame.
// Readiness signals are one-way notifications.
func (k Kind) ExpectsResponse() bool {
	switch k {
	case KindReadySignal, KindErrorSignal:
		return false
	}
	return true
}

// Request is the wire envelope for an operation or signal.
type Request struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the wire envelope answering a request with the same ID.
// Exactly one of Payload and Error is meaningful, selected by OK.
type Response struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewID returns a fresh time-ordered message ID.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewRequest builds a request envelope with a fresh ID. A nil payload
// produces an envelope without a payload field.
func NewRequest(kind Kind, payload any) (*Request, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return &Request{ID: NewID(), Kind: kind, Payload: raw}, nil
}

// OKResponse builds a success response correlated to req.
func OKResponse(req *Request, payload any) (*Response, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, err
	}
	return &Response{ID: req.ID, OK: true, Payload: raw}, nil
}

// ErrResponse builds a failure response correlated to req.
func ErrResponse(req *Request, perr *Error) *Response {
	return &Response{ID: req.ID, OK: false, Error: perr}
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// EncodeRequest serializes a request envelope to a frame.
func EncodeRequest(req *Request) ([]byte, error) {
	return json.Marshal(req)
}

// EncodeResponse serializes a response envelope to a frame.
func EncodeResponse(resp *Response) ([]byte, error) {
	return json.Marshal(resp)
}

// DecodeRequest parses and validates a request frame. Malformed frames
// come back as invalid-request wire errors.
func DecodeRequest(frame []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(frame, &req); err != nil {
		return nil, Errorf(CodeInvalidRequest, "malformed request frame").WithDetail(err.Error())
	}
	if req.ID == "" {
		return nil, NewError(CodeInvalidRequest, "request missing id")
	}
	if !req.Kind.Valid() {
		return nil, Errorf(CodeInvalidRequest, "unknown request kind %q", req.Kind)
	}
	return &req, nil
}

// DecodeResponse parses a response frame.
func DecodeResponse(frame []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil, Errorf(CodeInvalidRequest, "malformed response frame").WithDetail(err.Error())
	}
	if resp.ID == "" {
		return nil, NewError(CodeInvalidRequest, "response missing id")
	}
	return &resp, nil
}

// FrameClass distinguishes request frames from response frames.
type FrameClass int

const (
	FrameUnknown FrameClass = iota
	FrameRequest
	FrameResponse
)

// ClassifyFrame probes a frame without a full decode. Requests carry a
// kind field, responses an ok field.
func ClassifyFrame(frame []byte) FrameClass {
	if !gjson.ValidBytes(frame) {
		return FrameUnknown
	}
	if gjson.GetBytes(frame, "kind").Exists() {
		return FrameRequest
	}
	if gjson.GetBytes(frame, "ok").Exists() {
		return FrameResponse
	}
	return FrameUnknown
}

// FrameID extracts the correlation ID from a frame without a full decode.
func FrameID(frame []byte) string {
	return gjson.GetBytes(frame, "id").String()
}
