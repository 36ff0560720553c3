package protocol

import (
	"encoding/json"

	"github.com/dshills/redmark/internal/redline"
)

// Mode selects which view of the document extraction returns.
type Mode string

const (
	// ModeRaw returns the full markup view, pending changes included.
	ModeRaw Mode = "raw"
	// ModeClean returns the accepted view: insertions kept, deletions and
	// metadata dropped.
	ModeClean Mode = "clean"
)

// Valid reports whether m is a known extraction mode.
func (m Mode) Valid() bool {
	return m == ModeRaw || m == ModeClean
}

// EnsureResult answers ensure-engine.
type EnsureResult struct {
	Ready bool `json:"ready"`
}

// StatusResult answers check-status. State is the coordinator's
// readiness state name; Reason carries the last failure message while
// the state is failed.
type StatusResult struct {
	Ready  bool   `json:"ready"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// ExtractRequest carries a document for text extraction.
type ExtractRequest struct {
	Bytes []byte `json:"bytes"`
	Mode  Mode   `json:"mode,omitempty"`
}

// ExtractResult answers extract.
type ExtractResult struct {
	Text string `json:"text"`
}

// ApplyRequest carries a batch of edits. FallbackBytes is used when the
// engine host has no cached document, which is the normal case after a
// coordinator restart between extract and apply. Nil means the caller
// supplied no fallback; zero-length bytes are an empty document. The
// distinction survives the wire as JSON null versus "".
type ApplyRequest struct {
	Edits         []redline.Edit `json:"edits"`
	Author        string         `json:"author,omitempty"`
	FallbackBytes []byte         `json:"fallback_bytes"`
}

// ApplyResult answers apply. Outcomes is indexed by the request's
// original edit order.
type ApplyResult struct {
	ResultBytes []byte            `json:"result_bytes"`
	Applied     int               `json:"applied"`
	Skipped     int               `json:"skipped"`
	Outcomes    []redline.Outcome `json:"outcomes"`
}

// AcceptAllRequest resolves every tracked change in a document.
// FallbackBytes follows the same nil-versus-empty contract as
// ApplyRequest.
type AcceptAllRequest struct {
	FallbackBytes []byte `json:"fallback_bytes"`
}

// AcceptAllResult answers accept-all.
type AcceptAllResult struct {
	ResultBytes []byte `json:"result_bytes"`
}

// PingResult answers ping with the engine host's readiness flag.
type PingResult struct {
	Ready bool `json:"ready"`
}

// ErrorSignal carries the reason engine startup failed.
type ErrorSignal struct {
	Reason string `json:"reason"`
}

// DecodeExtractRequest validates and decodes an extract payload.
// An empty mode defaults to raw. Zero-length documents are legitimate
// input and extract to empty text.
func DecodeExtractRequest(req *Request) (*ExtractRequest, *Error) {
	var p ExtractRequest
	if perr := unmarshalPayload(req, &p); perr != nil {
		return nil, perr
	}
	if p.Mode == "" {
		p.Mode = ModeRaw
	}
	if !p.Mode.Valid() {
		return nil, Errorf(CodeInvalidRequest, "unknown extraction mode %q", p.Mode)
	}
	return &p, nil
}

// DecodeApplyRequest decodes an apply payload. Edit content is not
// inspected here: the upstream generator owns well-formedness, and an
// unmatchable edit is a per-edit skip for the host, never a frame
// error.
func DecodeApplyRequest(req *Request) (*ApplyRequest, *Error) {
	var p ApplyRequest
	if perr := unmarshalPayload(req, &p); perr != nil {
		return nil, perr
	}
	return &p, nil
}

// DecodeAcceptAllRequest decodes an accept-all payload.
func DecodeAcceptAllRequest(req *Request) (*AcceptAllRequest, *Error) {
	var p AcceptAllRequest
	if perr := unmarshalPayload(req, &p); perr != nil {
		return nil, perr
	}
	return &p, nil
}

// DecodeErrorSignal decodes an error-signal payload.
func DecodeErrorSignal(req *Request) (*ErrorSignal, *Error) {
	var p ErrorSignal
	if perr := unmarshalPayload(req, &p); perr != nil {
		return nil, perr
	}
	return &p, nil
}

// DecodeResult decodes a success response payload into v.
func DecodeResult(resp *Response, v any) error {
	if resp.Error != nil {
		return resp.Error
	}
	if len(resp.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, v); err != nil {
		return Errorf(CodeInvalidRequest, "malformed response payload").WithDetail(err.Error())
	}
	return nil
}

func unmarshalPayload(req *Request, v any) *Error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return Errorf(CodeInvalidRequest, "malformed %s payload", req.Kind).WithDetail(err.Error())
	}
	return nil
}
