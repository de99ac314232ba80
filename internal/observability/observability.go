// Package observability starts the tracing and profiling backends selected by
// configuration and stops them in reverse order.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/grafana/pyroscope-go"

	"github.com/riskibarqy/team-schedule/internal/config"
	"github.com/riskibarqy/team-schedule/internal/platform/logging"
)

const pprofShutdownTimeout = 5 * time.Second

// Providers are the backends started for one process.
type Providers struct {
	logger   *logging.Logger
	tracing  bool
	profiler *pyroscope.Profiler
	pprof    *http.Server
}

// Start enables Uptrace, Pyroscope and the pprof listener as configured. On
// error, whatever was already started is stopped again.
func Start(cfg config.Config, logger *logging.Logger) (*Providers, error) {
	if logger == nil {
		logger = logging.Default()
	}
	p := &Providers{logger: logger}

	p.tracing = initTracing(cfg, logger)

	profiler, err := startProfiler(cfg, logger)
	if err != nil {
		_ = p.Shutdown(context.Background())
		return nil, err
	}
	p.profiler = profiler

	p.pprof = startPprofServer(cfg, logger)
	return p, nil
}

// Shutdown flushes traces and stops the profilers. It is safe on a nil receiver.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if p.pprof != nil {
		stopCtx, cancel := context.WithTimeout(ctx, pprofShutdownTimeout)
		if err := p.pprof.Shutdown(stopCtx); err != nil {
			errs = append(errs, err)
		}
		cancel()
		p.pprof = nil
	}
	if p.profiler != nil {
		if err := p.profiler.Stop(); err != nil {
			errs = append(errs, err)
		}
		p.profiler = nil
	}
	if p.tracing {
		if err := shutdownTracing(ctx); err != nil {
			errs = append(errs, err)
		}
		p.tracing = false
	}
	return errors.Join(errs...)
}
