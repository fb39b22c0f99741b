// bundlefx/bundlefx.go
package bundlefx

import (
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-bridge/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-bridge/pkg/transport/httpx"
)

// Module provides the ambient pieces every bridge app shares: logger,
// token guard, prometheus collectors and the diagnostics router seam.
var Module = fx.Options(
	logger.Module,
	auth.Module,
	metrics.Module,
	fx.Provide(httpx.NewChi),
)
