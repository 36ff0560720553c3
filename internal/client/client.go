// Package client is the typed entry point for talking to the document
// engine. Every request goes through the coordinator endpoint; the
// client never addresses the engine host directly.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/redmark/internal/protocol"
	"github.com/dshills/redmark/internal/redline"
	"github.com/dshills/redmark/internal/runtime"
)

const (
	// DefaultCallTimeout bounds one document operation round trip.
	DefaultCallTimeout = 30 * time.Second

	// DefaultEnsureTimeout bounds ensure-engine. It exceeds the
	// coordinator's own attempt budget so a failed attempt reports its
	// typed error instead of a bare context deadline.
	DefaultEnsureTimeout = 90 * time.Second
)

// Client issues document requests through the coordinator.
type Client struct {
	rt            *runtime.Runtime
	callTimeout   time.Duration
	ensureTimeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout overrides the per-operation budget.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.callTimeout = d
	}
}

// WithEnsureTimeout overrides the ensure-engine budget.
func WithEnsureTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.ensureTimeout = d
	}
}

// New returns a client bound to rt.
func New(rt *runtime.Runtime, opts ...Option) *Client {
	c := &Client{
		rt:            rt,
		callTimeout:   DefaultCallTimeout,
		ensureTimeout: DefaultEnsureTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureEngine blocks until the engine is ready, initialization fails,
// or the attempt budget runs out.
func (c *Client) EnsureEngine(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.ensureTimeout)
	defer cancel()

	var res protocol.EnsureResult
	return c.call(ctx, protocol.KindEnsureEngine, nil, &res)
}

// Status reports the coordinator's readiness view. It has no side
// effects: no engine is started on its behalf.
func (c *Client) Status(ctx context.Context) (protocol.StatusResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var res protocol.StatusResult
	err := c.call(ctx, protocol.KindCheckStatus, nil, &res)
	return res, err
}

// Extract returns the document text in the requested mode and caches
// the document on the engine host for a later Apply or AcceptAll.
func (c *Client) Extract(ctx context.Context, doc []byte, mode protocol.Mode) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var res protocol.ExtractResult
	err := c.call(ctx, protocol.KindExtract, &protocol.ExtractRequest{Bytes: doc, Mode: mode}, &res)
	return res.Text, err
}

// Apply runs a batch of edits against the engine host's cached
// document, falling back to doc when no document is cached. Pass nil
// to rely on the cache alone; zero-length bytes are an empty document,
// not a missing one.
func (c *Client) Apply(ctx context.Context, doc []byte, edits []redline.Edit, author string) (*protocol.ApplyResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var res protocol.ApplyResult
	err := c.call(ctx, protocol.KindApply, &protocol.ApplyRequest{
		Edits:         edits,
		Author:        author,
		FallbackBytes: doc,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AcceptAll resolves every tracked change in the cached document,
// falling back to doc when no document is cached. Insertions and
// highlights are kept; deletions and comments are dropped.
func (c *Client) AcceptAll(ctx context.Context, doc []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var res protocol.AcceptAllResult
	if err := c.call(ctx, protocol.KindAcceptAll, &protocol.AcceptAllRequest{FallbackBytes: doc}, &res); err != nil {
		return nil, err
	}
	return res.ResultBytes, nil
}

func (c *Client) call(ctx context.Context, kind protocol.Kind, payload, out any) error {
	req, err := protocol.NewRequest(kind, payload)
	if err != nil {
		return err
	}
	resp, err := c.rt.Call(ctx, runtime.EndpointCoordinator, req)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return protocol.DecodeResult(resp, out)
}
