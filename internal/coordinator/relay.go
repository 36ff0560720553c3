package coordinator

import (
	"context"

	"github.com/tidwall/sjson"

	"github.com/dshills/redmark/internal/protocol"
	"github.com/dshills/redmark/internal/runtime"
)

// relay forwards a document operation to the engine host. The request
// is re-enveloped under a fresh ID so the hop toward the worker has its
// own correlation, then the host's answer is stitched back onto the
// client's ID with host-side diagnostic detail removed.
func (c *Coordinator) relay(ctx context.Context, req *protocol.Request) *protocol.Response {
	ctx, cancel := context.WithTimeout(ctx, c.relayTimeout)
	defer cancel()

	fwd := &protocol.Request{ID: protocol.NewID(), Kind: req.Kind, Payload: req.Payload}
	resp, err := c.rt.Call(ctx, runtime.EndpointWorker, fwd)
	if err != nil {
		c.log.Warn("relay failed", "kind", req.Kind, "err", err)
		return protocol.ErrResponse(req, protocol.NewError(
			protocol.CodeCommunicationFailure, "engine host unreachable"))
	}
	return c.reframe(req, resp)
}

// reframe rewrites a host response frame for the client: the ID becomes
// the client's, and error detail never crosses the coordinator.
func (c *Coordinator) reframe(req *protocol.Request, resp *protocol.Response) *protocol.Response {
	frame, err := protocol.EncodeResponse(resp)
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}

	frame, err = sjson.SetBytes(frame, "id", req.ID)
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	if resp.Error != nil && resp.Error.Detail != "" {
		frame, err = sjson.DeleteBytes(frame, "error.detail")
		if err != nil {
			return protocol.ErrResponse(req, protocol.FromError(err))
		}
		c.log.Debug("stripped host detail from relayed error", "code", resp.Error.Code)
	}

	out, err := protocol.DecodeResponse(frame)
	if err != nil {
		return protocol.ErrResponse(req, protocol.FromError(err))
	}
	return out
}
