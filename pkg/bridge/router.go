package bridge

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
	"github.com/joeydtaylor/steeze-bridge/pkg/envelope"
)

// Callback results reported to Metrics.
const (
	CallbackDelivered = "delivered"
	CallbackInvalid   = "invalid"
	CallbackUnknown   = "unknown"
	CallbackDropped   = "dropped"
)

// Router is the single entry point for every host response. It is safe
// to call from any goroutine, including threads the host owns.
type Router struct {
	reg     *correlation.Registry
	log     *zap.Logger
	metrics Metrics
}

func NewRouter(reg *correlation.Registry, log *zap.Logger, m Metrics) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Router{reg: reg, log: log, metrics: m}
}

// HandleCallback routes one host response.
func (r *Router) HandleCallback(path, id, method, data string) {
	r.route([]byte(path), []byte(id), []byte(method), []byte(data), true)
}

// HandleRaw is HandleCallback for raw bytes; nil data means the host
// passed no data at all.
func (r *Router) HandleRaw(path, id, method, data []byte) {
	r.route(path, id, method, data, data != nil)
}

func (r *Router) route(path, id, method, data []byte, hasData bool) {
	if !utf8.Valid(id) || len(id) == 0 {
		// Nothing to correlate against.
		r.log.Warn("dropping host callback with unusable id",
			zap.Int("idBytes", len(id)),
			zap.Bool("validUTF8", utf8.Valid(id)),
		)
		r.metrics.Callback(CallbackDropped)
		return
	}
	sid := string(id)

	if !utf8.Valid(path) || !utf8.Valid(method) {
		r.fail(sid, "", fmt.Errorf("%w: path or method is not UTF-8", ErrInvalidData))
		return
	}
	event := envelope.CompositeName(string(path), sid, string(method))
	log := r.log.With(zap.String("event", event), zap.String("id", sid))

	if !hasData || len(data) == 0 {
		r.fail(sid, event, fmt.Errorf("%w: missing data", ErrInvalidData))
		return
	}
	if !utf8.Valid(data) {
		r.fail(sid, event, fmt.Errorf("%w: data is not UTF-8", ErrInvalidData))
		return
	}

	payload := make([]byte, len(data))
	copy(payload, data)
	if !r.reg.Resolve(sid, payload) {
		log.Warn("host callback for unknown id")
		r.metrics.Callback(CallbackUnknown)
		return
	}
	log.Info("received response data", zap.Int("bytes", len(payload)))
	r.metrics.Callback(CallbackDelivered)
}

func (r *Router) fail(id, event string, err error) {
	log := r.log.With(zap.String("id", id))
	if event != "" {
		log = log.With(zap.String("event", event))
	}
	if !r.reg.Fail(id, err) {
		log.Warn("invalid host callback for unknown id", zap.Error(err))
		r.metrics.Callback(CallbackUnknown)
		return
	}
	log.Warn("host callback carried invalid data", zap.Error(err))
	r.metrics.Callback(CallbackInvalid)
}
