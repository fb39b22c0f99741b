package bridge

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/envelope"
)

// HostFunc is the host's one-way entry point: path, identity, method and
// the JSON-encoded envelope.
type HostFunc func(path, id, method, data string)

// Outbound delivers an encoded request to the host.
type Outbound interface {
	Send(env envelope.Envelope, payload string) error
}

// Channel is the Outbound backed by a host-registered HostFunc. Until
// SetHost is called every Send fails with ErrChannelNotReady.
type Channel struct {
	host atomic.Pointer[HostFunc]
	log  *zap.Logger
}

func NewChannel(log *zap.Logger) *Channel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Channel{log: log}
}

// SetHost registers who to call. nil unregisters.
func (c *Channel) SetHost(fn HostFunc) {
	if fn == nil {
		c.host.Store(nil)
		c.log.Info("host callback cleared")
		return
	}
	c.host.Store(&fn)
	c.log.Info("host callback registered")
}

func (c *Channel) Ready() bool { return c.host.Load() != nil }

func (c *Channel) Send(env envelope.Envelope, payload string) error {
	fn := c.host.Load()
	if fn == nil {
		c.log.Error("send before host callback registered",
			zap.String("path", env.Path),
			zap.String("id", env.ID),
			zap.String("method", env.Method.String()),
		)
		return ErrChannelNotReady
	}
	return c.invoke(*fn, env, payload)
}

func (c *Channel) invoke(fn HostFunc, env envelope.Envelope, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("host callback panicked", zap.String("id", env.ID), zap.Any("panic", r))
			err = fmt.Errorf("bridge: host callback panicked: %v", r)
		}
	}()
	c.log.Debug("sending request to host",
		zap.String("path", env.Path),
		zap.String("id", env.ID),
		zap.String("method", env.Method.String()),
	)
	fn(env.Path, env.ID, env.Method.String(), payload)
	return nil
}
