// Package hostbridge is the C boundary of the bridge. The host registers
// one callback for outbound requests and calls back with each response;
// both entry points start the fx app on first use.
package hostbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/bridgefx"
)

const startTimeout = 15 * time.Second

// ErrStopped is returned by every entry point after Stop. The process-wide
// bridge is started once and cannot be restarted.
var ErrStopped = errors.New("hostbridge: bridge stopped")

type hostRuntime struct {
	app     *fx.App
	channel *bridge.Channel
	router  *bridge.Router
	client  *bridge.Client
	log     *zap.Logger
	stopped atomic.Bool
}

var (
	once    sync.Once
	current *hostRuntime
	initErr error
)

func runtime() (*hostRuntime, error) {
	once.Do(func() {
		current, initErr = newRuntime(bridgefx.Module())
		if initErr != nil {
			// The configured logger never came up; stderr is all there is.
			if l, err := zap.NewProduction(); err == nil {
				zap.ReplaceGlobals(l)
			}
			zap.L().Error("bridge start failed", zap.Error(initErr))
		}
	})
	if initErr != nil {
		return nil, initErr
	}
	if err := current.live(); err != nil {
		return nil, err
	}
	return current, nil
}

func newRuntime(opts ...fx.Option) (*hostRuntime, error) {
	rt := &hostRuntime{}
	rt.app = fx.New(
		fx.Options(opts...),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Populate(&rt.channel, &rt.router, &rt.client, &rt.log),
	)
	if err := rt.app.Err(); err != nil {
		return nil, fmt.Errorf("hostbridge: build: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := rt.app.Start(ctx); err != nil {
		return nil, fmt.Errorf("hostbridge: start: %w", err)
	}
	zap.ReplaceGlobals(rt.log)
	return rt, nil
}

func (rt *hostRuntime) setHost(fn bridge.HostFunc) { rt.channel.SetHost(fn) }

func (rt *hostRuntime) deliver(path, id, method, data []byte) {
	rt.router.HandleRaw(path, id, method, data)
}

func (rt *hostRuntime) live() error {
	if rt.stopped.Load() {
		return ErrStopped
	}
	return nil
}

func (rt *hostRuntime) stop(ctx context.Context) error {
	if !rt.stopped.CompareAndSwap(false, true) {
		return ErrStopped
	}
	return rt.app.Stop(ctx)
}

// Client returns the request client of the process-wide bridge, starting
// it if needed.
func Client() (*bridge.Client, error) {
	rt, err := runtime()
	if err != nil {
		return nil, err
	}
	return rt.client, nil
}

// Stop shuts the process-wide bridge down for good. Pending requests are
// cancelled unless [bridge] cancel_on_stop is false, and every later call
// into the package fails with ErrStopped.
func Stop(ctx context.Context) error {
	rt, err := runtime()
	if err != nil {
		return err
	}
	return rt.stop(ctx)
}

// guard keeps a panic from unwinding into the host.
func guard(entry string) {
	if r := recover(); r != nil {
		zap.L().Error("panic at host boundary", zap.String("entry", entry), zap.Any("panic", r))
	}
}
