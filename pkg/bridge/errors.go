package bridge

import (
	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
	"github.com/joeydtaylor/steeze-bridge/pkg/dynvalue"
)

const (
	// ErrInvalidData: the host answered with missing or non-UTF-8 data.
	ErrInvalidData = errorString("bridge: received invalid data")
	// ErrChannelNotReady: a send was attempted before the host registered its callback.
	ErrChannelNotReady = errorString("bridge: host callback not registered")
	// ErrNotImplemented marks the fire-and-forget and subscription placeholders.
	ErrNotImplemented = errorString("bridge: not implemented")
)

// Re-exported so callers of Client only need this package for errors.Is.
var (
	ErrUnsupportedParameterType = dynvalue.ErrUnsupportedParameterType
	ErrTypeMismatch             = dynvalue.ErrTypeMismatch
	ErrCanceled                 = correlation.ErrCanceled
	ErrSuperseded               = correlation.ErrSuperseded
)

type errorString string

func (e errorString) Error() string { return string(e) }
