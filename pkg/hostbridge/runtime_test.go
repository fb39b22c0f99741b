package hostbridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridgefx"
	"github.com/joeydtaylor/steeze-bridge/pkg/envelope"
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
)

func testRuntime(t *testing.T) *hostRuntime {
	t.Helper()
	off := false
	rt, err := newRuntime(bridgefx.Module(bridgefx.WithConfig(manifest.Config{
		Log: manifest.Log{Dir: t.TempDir(), Console: &off},
	})))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.stop(context.Background()) })
	return rt
}

func TestRoundTripThroughBoundary(t *testing.T) {
	rt := testRuntime(t)

	rt.setHost(func(path, id, method, data string) {
		require.Equal(t, "inventory", path)
		require.Equal(t, "POST", method)
		require.Contains(t, data, `"id":"`+id+`"`)
		go rt.deliver([]byte(path), []byte(id), []byte(method), []byte(`[1,2,3]`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	out, err := rt.client.Do(ctx, "inventory", envelope.MethodPost, map[string]any{"slot": 4})
	require.NoError(t, err)
	require.Equal(t, "[1,2,3]", string(out))
}

func TestDeliverAbsentDataFailsRequest(t *testing.T) {
	rt := testRuntime(t)

	rt.setHost(func(path, id, method, _ string) {
		go rt.deliver([]byte(path), []byte(id), []byte(method), nil)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := rt.client.Do(ctx, "inventory", envelope.MethodGet, nil)
	require.Error(t, err)
	require.Zero(t, rt.client.Pending())
}

func TestGuardSwallowsPanic(t *testing.T) {
	require.NotPanics(t, func() {
		defer guard("test")
		panic("boom")
	})
}

func TestStopIsTerminal(t *testing.T) {
	rt := testRuntime(t)
	require.NoError(t, rt.live())

	require.NoError(t, rt.stop(context.Background()))
	require.ErrorIs(t, rt.live(), ErrStopped)
	require.ErrorIs(t, rt.stop(context.Background()), ErrStopped)
	require.False(t, rt.channel.Ready())
}
