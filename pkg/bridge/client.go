// Package bridge turns the host's one-way callback channel into
// request/response calls: Client sends, Router receives, and a
// correlation.Registry pairs the two by identity.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
	"github.com/joeydtaylor/steeze-bridge/pkg/envelope"
)

// Metrics receives request and callback outcomes. The metrics package
// provides the prometheus implementation.
type Metrics interface {
	Callback(result string)
	Request(method string, outcome string, d time.Duration)
}

// Request outcomes reported to Metrics.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeCanceled = "canceled"
	OutcomeRejected = "rejected"
)

// readiness is implemented by outbounds that know up front whether a
// send can succeed; Channel is one.
type readiness interface {
	Ready() bool
}

type nopMetrics struct{}

func (nopMetrics) Callback(string)                       {}
func (nopMetrics) Request(string, string, time.Duration) {}

type ClientOption func(*Client)

// WithTimeout bounds every Request. Zero waits until the host answers.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m Metrics) ClientOption {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

type Client struct {
	reg     *correlation.Registry
	out     Outbound
	log     *zap.Logger
	metrics Metrics
	timeout time.Duration
}

func NewClient(reg *correlation.Registry, out Outbound, opts ...ClientOption) *Client {
	c := &Client{
		reg:     reg,
		out:     out,
		log:     zap.NewNop(),
		metrics: nopMetrics{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request sends env to the host and waits for the response carrying the
// same identity. Nothing is sent if env cannot be encoded. When ctx ends
// or the configured timeout passes, the pending entry is cancelled and a
// late host answer is ignored.
func (c *Client) Request(ctx context.Context, env envelope.Envelope) ([]byte, error) {
	start := time.Now()
	method := env.Method.String()
	log := c.log.With(
		zap.String("path", env.Path),
		zap.String("id", env.ID),
		zap.String("method", method),
	)
	log.Info("request")

	payload, err := env.Encode()
	if err != nil {
		log.Error("encode request", zap.Error(err))
		c.metrics.Request(method, OutcomeRejected, time.Since(start))
		return nil, fmt.Errorf("bridge: encode %s: %w", env, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if rc, ok := c.out.(readiness); ok && !rc.Ready() {
		log.Error("send before host callback registered")
		c.metrics.Request(method, OutcomeRejected, time.Since(start))
		return nil, ErrChannelNotReady
	}

	w := c.reg.Register(env.ID)
	if err := c.out.Send(env, payload); err != nil {
		c.reg.CancelWaiter(w)
		c.metrics.Request(method, OutcomeRejected, time.Since(start))
		return nil, err
	}

	data, err := w.Wait(ctx)
	switch {
	case err == nil:
		c.metrics.Request(method, OutcomeOK, time.Since(start))
		return data, nil
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.reg.CancelWaiter(w)
		// The response may have landed between ctx firing and Cancel.
		if data, rerr, ok := w.Result(); ok && rerr == nil {
			c.metrics.Request(method, OutcomeOK, time.Since(start))
			return data, nil
		}
		outcome := OutcomeCanceled
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = OutcomeTimeout
		}
		log.Warn("request abandoned", zap.Error(err))
		c.metrics.Request(method, outcome, time.Since(start))
		return nil, err
	default:
		log.Warn("request failed", zap.Error(err))
		c.metrics.Request(method, OutcomeError, time.Since(start))
		return nil, err
	}
}

// Do builds an envelope from native parameters and sends it.
func (c *Client) Do(ctx context.Context, path string, method envelope.Method, params map[string]any) ([]byte, error) {
	env, err := envelope.Build(path, method, params)
	if err != nil {
		c.metrics.Request(method.String(), OutcomeRejected, 0)
		return nil, err
	}
	return c.Request(ctx, env)
}

// RequestWithoutWaitingResponse is a placeholder for fire-and-forget calls.
func (c *Client) RequestWithoutWaitingResponse(ctx context.Context, env envelope.Envelope) error {
	c.log.Warn("fire-and-forget requested", zap.String("id", env.ID))
	return fmt.Errorf("%w: request without waiting for a response", ErrNotImplemented)
}

// Listen is a placeholder for named event subscriptions.
func (c *Client) Listen(name string) (<-chan []byte, error) {
	c.log.Warn("event subscription requested", zap.String("event", name))
	return nil, fmt.Errorf("%w: listen on %q", ErrNotImplemented, name)
}

// Pending reports how many requests are waiting on the host.
func (c *Client) Pending() int { return c.reg.Len() }
