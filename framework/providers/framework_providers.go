// Package providers holds the service providers every kernel usually wants.
package providers

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-shopping/framework/app"
	"github.com/km-arc/go-shopping/framework/lifecycle"
)

// ── MetricsServiceProvider ────────────────────────────────────────────────────

// MetricsServiceProvider exposes the kernel's Prometheus registry at
// METRICS_PATH when METRICS_ENABLED is set.
type MetricsServiceProvider struct {
	app.BaseProvider
}

func (p *MetricsServiceProvider) Register(k *app.Kernel) error {
	if !k.Config.Metrics.Enabled {
		return nil
	}
	k.Router.Handle(k.Config.Metrics.Path, k.Metrics.Handler())
	return nil
}

// ── LifecycleLogProvider ──────────────────────────────────────────────────────

// LifecycleLogProvider logs every transition of the process lifecycle.
type LifecycleLogProvider struct {
	app.BaseProvider
}

func (p *LifecycleLogProvider) Register(k *app.Kernel) error {
	log := k.Log.Named("process")
	k.Process.AddObserver(lifecycleLogger{log: log})
	return nil
}

type lifecycleLogger struct{ log *zap.Logger }

func (l lifecycleLogger) OnTransition(t lifecycle.Transition) {
	l.log.Debug("process transition", zap.Stringer("event", t.Event), zap.Bool("finishing", t.Finishing))
}
