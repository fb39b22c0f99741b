package bridge_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
	"github.com/joeydtaylor/steeze-bridge/pkg/dynvalue"
	"github.com/joeydtaylor/steeze-bridge/pkg/envelope"
)

type call struct {
	path, id, method, data string
}

// fakeHost records every outbound call and answers through a responder
// on its own goroutine, the way a native host would.
type fakeHost struct {
	mu      sync.Mutex
	calls   []call
	respond func(c call)
}

func (h *fakeHost) fn(path, id, method, data string) {
	c := call{path, id, method, data}
	h.mu.Lock()
	h.calls = append(h.calls, c)
	h.mu.Unlock()
	if h.respond != nil {
		go h.respond(c)
	}
}

func (h *fakeHost) Calls() []call {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]call(nil), h.calls...)
}

type harness struct {
	reg    *correlation.Registry
	ch     *bridge.Channel
	router *bridge.Router
	client *bridge.Client
	host   *fakeHost
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, opts ...bridge.ClientOption) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	reg := correlation.New()
	ch := bridge.NewChannel(log)
	h := &harness{
		reg:    reg,
		ch:     ch,
		router: bridge.NewRouter(reg, log, nil),
		host:   &fakeHost{},
		logs:   logs,
	}
	h.client = bridge.NewClient(reg, ch, append([]bridge.ClientOption{bridge.WithLogger(log)}, opts...)...)
	ch.SetHost(h.host.fn)
	return h
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRequest_HappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.host.respond = func(c call) {
		h.router.HandleCallback(c.path, c.id, c.method, `{"name":"Alice"}`)
	}

	env := envelope.Envelope{ID: "r1", Path: "user/profile", Method: envelope.MethodGet}
	got, err := h.client.Request(ctxT(t), env)
	require.NoError(t, err)
	require.Equal(t, `{"name":"Alice"}`, string(got))

	calls := h.host.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, call{"user/profile", "r1", "GET", `{"path":"user/profile","id":"r1"}`}, calls[0])
	require.Zero(t, h.client.Pending())
}

func TestRequest_InvalidData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.host.respond = func(c call) {
		h.router.HandleCallback(c.path, c.id, c.method, "")
	}

	_, err := h.client.Do(ctxT(t), "user/profile", envelope.MethodGet, nil)
	require.ErrorIs(t, err, bridge.ErrInvalidData)
	require.Zero(t, h.client.Pending())
}

func TestRequest_RawInvalidUTF8AndMissingData(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for name, data := range map[string][]byte{
		"missing":  nil,
		"bad utf8": {0xff, 0xfe, 0xfd},
	} {
		data := data
		h.host.respond = nil
		w := h.reg.Register("raw-" + name)
		h.router.HandleRaw([]byte("p"), []byte("raw-"+name), []byte("GET"), data)
		_, err := w.Wait(ctxT(t))
		require.ErrorIs(t, err, bridge.ErrInvalidData, name)
	}

	// A bad path still fails the waiter closed.
	w := h.reg.Register("bad-path")
	h.router.HandleRaw([]byte{0xff}, []byte("bad-path"), []byte("GET"), []byte("{}"))
	_, err := w.Wait(ctxT(t))
	require.ErrorIs(t, err, bridge.ErrInvalidData)

	// An unusable id cannot be routed at all.
	other := h.reg.Register("other")
	h.router.HandleRaw([]byte("p"), []byte{0xff}, []byte("GET"), []byte("{}"))
	h.router.HandleRaw([]byte("p"), nil, []byte("GET"), []byte("{}"))
	_, _, done := other.Result()
	require.False(t, done)
}

func TestRequest_UnsupportedParameter(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	_, err := h.client.Do(ctxT(t), "x", envelope.MethodPost, map[string]any{"x": struct{}{}})
	require.ErrorIs(t, err, bridge.ErrUnsupportedParameterType)
	require.Empty(t, h.host.Calls())

	// An envelope built by hand with an unencodable value fails at encode time, still before sending.
	env := envelope.Envelope{ID: "r2", Path: "x", Method: envelope.MethodPost,
		Parameters: map[string]dynvalue.Value{"bad": {}}}
	_, err = h.client.Request(ctxT(t), env)
	require.ErrorIs(t, err, dynvalue.ErrUnsupportedParameterType)
	require.Empty(t, h.host.Calls())
	require.Zero(t, h.client.Pending())
}

func TestRequest_ChannelNotReady(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.ch.SetHost(nil)
	require.False(t, h.ch.Ready())

	_, err := h.client.Do(ctxT(t), "x", envelope.MethodGet, nil)
	require.ErrorIs(t, err, bridge.ErrChannelNotReady)
	require.Zero(t, h.client.Pending())
	require.Equal(t, 1, h.logs.FilterMessage("send before host callback registered").
		FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRequest_HostPanics(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.ch.SetHost(func(string, string, string, string) { panic("native crash") })

	_, err := h.client.Do(ctxT(t), "x", envelope.MethodGet, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "native crash")
	require.Zero(t, h.client.Pending())
}

func TestRequest_ContextCancelRemovesEntry(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	env := envelope.New("slow", envelope.MethodGet, nil)
	_, err := h.client.Request(ctx, env)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, h.client.Pending())

	// A late answer is the unknown-identity case.
	h.router.HandleCallback("slow", env.ID, "GET", "{}")
	require.Equal(t, 1, h.logs.FilterMessage("host callback for unknown id").Len())
}

func TestRequest_ConfiguredTimeout(t *testing.T) {
	t.Parallel()

	h := newHarness(t, bridge.WithTimeout(20*time.Millisecond))
	_, err := h.client.Do(context.Background(), "never", envelope.MethodGet, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, h.client.Pending())
}

func TestRouter_UnknownIdentityIsWarning(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	pending := h.reg.Register("keep")

	h.router.HandleCallback("p", "nobody", "GET", "{}")
	h.router.HandleCallback("p", "nobody", "GET", "")

	_, _, done := pending.Result()
	require.False(t, done)
	require.Zero(t, h.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	require.Equal(t, 2, h.logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestRouter_LogsCompositeName(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	w := h.reg.Register("r9")
	h.router.HandleCallback("user/profile", "r9", "GET", "{}")
	_, err := w.Wait(ctxT(t))
	require.NoError(t, err)

	entries := h.logs.FilterMessage("received response data").All()
	require.Len(t, entries, 1)
	require.Equal(t, "user/profile_r9_GET", entries[0].ContextMap()["event"])
}

func TestConcurrentRequestsCorrelate(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	// Answer with the id so each caller can check it got its own response.
	h.host.respond = func(c call) {
		time.Sleep(time.Millisecond)
		h.router.HandleCallback(c.path, c.id, c.method, `"`+c.id+`"`)
	}

	const n = 100
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := envelope.New("echo", envelope.MethodPost, nil)
			got, err := h.client.Request(ctxT(t), env)
			if err != nil {
				errs <- err
				return
			}
			if string(got) != `"`+env.ID+`"` {
				errs <- errors.New("mismatched response " + string(got) + " for " + env.ID)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	require.Zero(t, h.client.Pending())
}

func TestStaleIdentityReuse(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	env := envelope.Envelope{ID: "r1", Path: "p", Method: envelope.MethodGet}

	firstErr := make(chan error, 1)
	go func() {
		_, err := h.client.Request(ctxT(t), env)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return h.client.Pending() == 1 }, time.Second, time.Millisecond)

	secondRes := make(chan []byte, 1)
	go func() {
		got, _ := h.client.Request(ctxT(t), env)
		secondRes <- got
	}()

	require.ErrorIs(t, <-firstErr, bridge.ErrSuperseded)
	require.Eventually(t, func() bool { return len(h.host.Calls()) == 2 }, time.Second, time.Millisecond)

	h.router.HandleCallback("p", "r1", "GET", "second")
	require.Equal(t, "second", string(<-secondRes))
}

// reusingOutbound re-registers the identity it is asked to send, as a
// concurrent caller reusing the identity would, then reports a failure.
type reusingOutbound struct {
	reg    *correlation.Registry
	second *correlation.Waiter
}

func (o *reusingOutbound) Send(env envelope.Envelope, _ string) error {
	o.second = o.reg.Register(env.ID)
	return errors.New("host rejected the call")
}

func TestFailedSendLeavesNewerRegistration(t *testing.T) {
	t.Parallel()

	reg := correlation.New()
	out := &reusingOutbound{reg: reg}
	client := bridge.NewClient(reg, out)

	_, err := client.Request(ctxT(t), envelope.Envelope{ID: "r1", Path: "p", Method: envelope.MethodGet})
	require.Error(t, err)

	require.True(t, reg.Resolve("r1", []byte("second")))
	got, err := out.second.Wait(ctxT(t))
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

func TestAbandonedRequestLeavesNewerRegistration(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	env := envelope.Envelope{ID: "r1", Path: "p", Method: envelope.MethodGet}

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := h.client.Request(ctx, env)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return len(h.host.Calls()) == 1 }, time.Second, time.Millisecond)

	// Evict the first waiter directly, then let its caller give up.
	second := h.reg.Register("r1")
	cancel()
	require.Error(t, <-firstErr)

	require.Equal(t, 1, h.reg.Len())
	h.router.HandleCallback("p", "r1", "GET", "second")
	got, err := second.Wait(ctxT(t))
	require.NoError(t, err)
	require.Equal(t, "second", string(got))
}

type countingObserver struct {
	mu     sync.Mutex
	events int
}

func (o *countingObserver) Registered(string) { o.mu.Lock(); o.events++; o.mu.Unlock() }
func (o *countingObserver) Completed(string, correlation.Outcome) {
	o.mu.Lock()
	o.events++
	o.mu.Unlock()
}

func TestChannelNotReadyTouchesNoRegistry(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	reg := correlation.New(correlation.WithObserver(obs))
	client := bridge.NewClient(reg, bridge.NewChannel(nil))

	_, err := client.Do(ctxT(t), "x", envelope.MethodGet, nil)
	require.ErrorIs(t, err, bridge.ErrChannelNotReady)
	require.Zero(t, obs.events)
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.client.RequestWithoutWaitingResponse(ctxT(t), envelope.New("x", envelope.MethodPost, nil))
	require.ErrorIs(t, err, bridge.ErrNotImplemented)

	ch, err := h.client.Listen("scene/loaded")
	require.ErrorIs(t, err, bridge.ErrNotImplemented)
	require.Nil(t, ch)
}
