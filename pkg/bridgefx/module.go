// Package bridgefx assembles the bridge with fx: config, logging, metrics,
// the correlation registry, the host channel, the client and the optional
// diagnostics server.
package bridgefx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-bridge/pkg/bridge"
	"github.com/joeydtaylor/steeze-bridge/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-bridge/pkg/correlation"
	"github.com/joeydtaylor/steeze-bridge/pkg/diagnostics"
	"github.com/joeydtaylor/steeze-bridge/pkg/manifest"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

// ---------- Options ----------

type Options struct {
	DefaultManifest string // used when BRIDGE_MANIFEST is unset
	Config          *manifest.Config
}

type Option func(*Options)

func WithDefaultManifest(path string) Option { return func(o *Options) { o.DefaultManifest = path } }

// WithConfig skips file and env loading and uses cfg as-is after validation.
func WithConfig(cfg manifest.Config) Option { return func(o *Options) { o.Config = &cfg } }

func defaultOptions() Options {
	return Options{DefaultManifest: "bridge.toml"}
}

// Module returns the complete fx option set.
func Module(opts ...Option) fx.Option {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return fx.Options(
		fx.Provide(func() (manifest.Config, error) { return provideConfig(o) }),
		bundlefx.Module,

		fx.Provide(provideRegistry),
		fx.Provide(
			provideChannel,
			func(c *bridge.Channel) bridge.Outbound { return c },
		),
		fx.Provide(provideRouter),
		fx.Provide(provideClient),
		fx.Provide(fx.Annotate(
			provideDiagnostics,
			fx.ParamTags(``, ``, ``, `name:"metrics"`, ``, ``, ``),
			fx.ResultTags(`name:"diagnostics"`),
		)),

		fx.Invoke(registerHooks),
	)
}

func provideConfig(o Options) (manifest.Config, error) {
	if o.Config != nil {
		cfg := *o.Config
		return cfg, cfg.Validate()
	}
	return manifest.LoadFromEnv(o.DefaultManifest)
}

// ---------- Bridge ----------

func provideRegistry(m metrics.Bridge) *correlation.Registry {
	return correlation.New(correlation.WithObserver(m))
}

func provideChannel(log *zap.Logger) *bridge.Channel {
	return bridge.NewChannel(log.Named("channel"))
}

func provideRouter(reg *correlation.Registry, log *zap.Logger, m metrics.Bridge) *bridge.Router {
	return bridge.NewRouter(reg, log.Named("router"), m)
}

func provideClient(cfg manifest.Config, reg *correlation.Registry, out bridge.Outbound, log *zap.Logger, m metrics.Bridge) *bridge.Client {
	return bridge.NewClient(reg, out,
		bridge.WithTimeout(time.Duration(cfg.Bridge.TimeoutMS)*time.Millisecond),
		bridge.WithLogger(log.Named("client")),
		bridge.WithMetrics(m),
	)
}

// ---------- Diagnostics ----------

func provideDiagnostics(
	cfg manifest.Config,
	a *auth.Middleware,
	lm *logger.Middleware,
	/* name:"metrics" */ m http.Handler,
	reg *correlation.Registry,
	r httpx.Router,
	zl *zap.Logger,
) http.Handler {
	return diagnostics.BuildRouter(diagnostics.Deps{
		Auth:        a,
		LogMW:       lm,
		Metrics:     m,
		Pending:     reg,
		Router:      r,
		Log:         zl.Named("diagnostics"),
		RequireAuth: cfg.Diagnostics.RequireAuth,
	})
}

// ---------- Lifecycle ----------

type hookDeps struct {
	fx.In
	Config      manifest.Config
	Logger      *zap.Logger
	Registry    *correlation.Registry
	Channel     *bridge.Channel
	Diagnostics http.Handler `name:"diagnostics"`
}

func registerHooks(lc fx.Lifecycle, d hookDeps) {
	var srv *http.Server
	if d.Config.Diagnostics.Enable {
		srv = &http.Server{
			Addr:         d.Config.Diagnostics.Address,
			Handler:      d.Diagnostics,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if srv == nil {
				return nil
			}
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			d.Logger.Info("diagnostics starting", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Error("diagnostics server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Channel.SetHost(nil)
			if d.Config.Bridge.ShouldCancelOnStop() {
				if n := d.Registry.CancelAll(); n > 0 {
					d.Logger.Warn("cancelled pending requests on stop", zap.Int("count", n))
				}
			}
			if srv == nil {
				return nil
			}
			d.Logger.Info("diagnostics stopping")
			return srv.Shutdown(ctx)
		},
	})
}
